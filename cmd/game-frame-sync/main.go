// Command game-frame-sync is the lockstep coordinator's entry point:
// it parses the operational surface of spec.md §6 from flags and
// environment variables, wires the logger, metrics exporter, room
// manager, and WebSocket listener together, and blocks for a clean
// shutdown on SIGINT/SIGTERM.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kongshan001/game-frame-sync/lifecycle"
	"github.com/kongshan001/game-frame-sync/metrics"
	"github.com/kongshan001/game-frame-sync/room"
	"github.com/kongshan001/game-frame-sync/transport/ws"
	"github.com/kongshan001/game-frame-sync/xlog"
)

func main() {
	cfg := parseFlags()

	xlog.Load(xlog.Config{
		ServiceName: "game-frame-sync",
		Mode:        cfg.logMode,
		Encoding:    cfg.logEncoding,
		Level:       cfg.logLevel,
	})

	if cfg.metricsEnabled {
		metrics.Start(metrics.Config{Host: cfg.metricsHost, Port: cfg.metricsPort})
	}

	mgrMod := &roomManagerModule{conf: room.Conf{
		MaxPlayers:        cfg.maxPlayers,
		TickRate:          cfg.tickRate,
		FrameTimeout:      cfg.frameTimeout,
		RequestsPerSecond: cfg.maxRequestsPerSecond,
	}}
	transportMod := &transportModule{
		mgrMod: mgrMod,
		wsConf: ws.ServerConfig{
			Addr:            fmt.Sprintf("%s:%d", cfg.host, cfg.port),
			MaxConn:         cfg.maxConnections,
			PendingWriteNum: 256,
			MaxMsgSize:      uint32(cfg.maxInputSize),
			Timeout:         10 * time.Second,
		},
		sessionConf: room.SessionConf{
			Conf:             mgrMod.conf,
			AuthTimeout:      room.AuthTimeout,
			HeartbeatTimeout: room.HeartbeatTimeout,
		},
	}

	runner := lifecycle.NewRunner()
	runner.Register(mgrMod)
	runner.Register(transportMod)

	if err := runner.Start(); err != nil {
		xlog.Write().Error("bind failed", zap.Error(err))
		os.Exit(1)
	}

	xlog.Write().Info("game-frame-sync listening",
		zap.String("addr", transportMod.wsConf.Addr),
		zap.Int("tick_rate", cfg.tickRate),
		zap.Int("max_players", cfg.maxPlayers))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	xlog.Write().Info("shutting down")
	runner.Stop()
	os.Exit(0)
}

// roomManagerModule owns the lifetime of the sharded room table.
type roomManagerModule struct {
	conf    room.Conf
	manager *room.Manager
}

func (m *roomManagerModule) Init() error {
	m.manager = room.NewManager(m.conf)
	return nil
}

func (m *roomManagerModule) Run(done <-chan struct{}) { <-done }

func (m *roomManagerModule) Destroy() { m.manager.Stop() }

// transportModule owns the WebSocket listener; its Init binds the
// socket so a bind failure surfaces before Run ever starts.
type transportModule struct {
	mgrMod      *roomManagerModule
	wsConf      ws.ServerConfig
	sessionConf room.SessionConf
	server      *ws.Server
}

func (m *transportModule) Init() error {
	handler := func(c ws.Conn) {
		room.HandleConnection(m.mgrMod.manager, m.sessionConf, c)
	}
	m.server = ws.NewServer(m.wsConf, handler)
	return m.server.Start()
}

func (m *transportModule) Run(done <-chan struct{}) { <-done }

func (m *transportModule) Destroy() { m.server.Stop() }
