package room

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kongshan001/game-frame-sync/input"
	"github.com/kongshan001/game-frame-sync/metrics"
	"github.com/kongshan001/game-frame-sync/transport/ws"
	"github.com/kongshan001/game-frame-sync/wire"
	"github.com/kongshan001/game-frame-sync/xlog"
)

// SessionConf configures HandleConnection; it is the per-connection
// slice of Conf the gateway needs in addition to the room table.
type SessionConf struct {
	Conf
	AuthTimeout      time.Duration
	HeartbeatTimeout time.Duration
}

func (c SessionConf) withDefaults() SessionConf {
	c.Conf = c.Conf.withDefaults()
	if c.AuthTimeout <= 0 {
		c.AuthTimeout = AuthTimeout
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = HeartbeatTimeout
	}
	return c
}

var (
	violationCounter = metrics.NewCounter(metrics.VectorOption{
		Namespace: "game_frame_sync", Subsystem: "session", Name: "violations_total",
		Help: "Dropped or rejected messages by reason.", Labels: []string{"reason"},
	})
	connectionsActive = metrics.NewGauge(metrics.VectorOption{
		Namespace: "game_frame_sync", Subsystem: "session", Name: "connections_active",
		Help: "Currently admitted connections.",
	})
)

// HandleConnection runs the complete admission sequence of spec.md
// §4.7/§4.9 and then the per-connection read loop, until the socket
// closes or the player sends leave. It is the Handler passed to
// transport/ws.Server, and owns conn for its entire lifetime. The
// first message decides the admission path: auth joins a room fresh,
// reconnect re-admits a player whose previous connection dropped.
func HandleConnection(mgr *Manager, conf SessionConf, conn ws.Conn) {
	conf = conf.withDefaults()
	defer conn.Close()

	env, err := awaitFirstMessage(conn, conf.AuthTimeout)
	if err != nil {
		return
	}

	var r *Room
	var playerID string

	switch env.Type {
	case wire.TypeAuth:
		r, playerID, err = admitJoin(mgr, conf, conn, env)
	case wire.TypeReconnect:
		r, playerID, err = admitReconnect(mgr, conf, conn, env)
	default:
		violationCounter.Inc("unexpected_first_message")
		sendError(conn, wire.CloseAuthFailed, "first message must be auth or reconnect")
		return
	}
	if err != nil {
		return
	}
	connectionsActive.Inc()
	defer connectionsActive.Dec()

	runSessionLoop(r, conf, conn, playerID)

	ctx, cancel := context.WithTimeout(context.Background(), conf.AuthTimeout)
	r.Leave(ctx, playerID)
	cancel()
}

// admitJoin runs spec.md §4.7's fresh-join sequence: decode, validate,
// join the room, and reply with join_success.
func admitJoin(mgr *Manager, conf SessionConf, conn ws.Conn, env wire.Envelope) (*Room, string, error) {
	var authPayload wire.AuthPayload
	if err := wire.DecodePayload(env, &authPayload); err != nil {
		violationCounter.Inc("malformed_envelope")
		return nil, "", err
	}
	if err := ValidateIdentifier(authPayload.PlayerID); err != nil {
		violationCounter.Inc("invalid_identifier")
		return nil, "", err
	}
	if err := ValidateIdentifier(authPayload.RoomID); err != nil {
		violationCounter.Inc("invalid_identifier")
		return nil, "", err
	}

	r := mgr.GetOrCreate(authPayload.RoomID)
	joinCtx, cancel := context.WithTimeout(context.Background(), conf.AuthTimeout)
	res, err := r.Join(joinCtx, authPayload.PlayerID, conn)
	cancel()
	if err != nil {
		code := wire.CloseAuthFailed
		if err == ErrRoomFull {
			code = wire.CloseRoomFull
		}
		sendError(conn, code, err.Error())
		return nil, "", err
	}

	if err := sendJoinSuccess(conn, authPayload, res); err != nil {
		return nil, "", err
	}
	return r, authPayload.PlayerID, nil
}

// admitReconnect runs spec.md §4.9's catch-up sequence: decode,
// validate, re-admit the player on the existing room, and reply with
// either sync_frames or resync_full depending on retention.
func admitReconnect(mgr *Manager, conf SessionConf, conn ws.Conn, env wire.Envelope) (*Room, string, error) {
	var p wire.ReconnectPayload
	if err := wire.DecodePayload(env, &p); err != nil {
		violationCounter.Inc("malformed_envelope")
		return nil, "", err
	}
	if err := ValidateIdentifier(p.PlayerID); err != nil {
		violationCounter.Inc("invalid_identifier")
		return nil, "", err
	}
	if err := ValidateIdentifier(p.RoomID); err != nil {
		violationCounter.Inc("invalid_identifier")
		return nil, "", err
	}

	r, err := mgr.Get(p.RoomID)
	if err != nil {
		sendError(conn, wire.CloseAuthFailed, err.Error())
		return nil, "", err
	}

	reconnectCtx, cancel := context.WithTimeout(context.Background(), conf.AuthTimeout)
	res, err := r.Reconnect(reconnectCtx, p.PlayerID, p.LastFrame, conn)
	cancel()
	if err != nil {
		sendError(conn, wire.CloseAuthFailed, err.Error())
		return nil, "", err
	}

	if err := sendCatchUp(conn, res); err != nil {
		return nil, "", err
	}
	return r, p.PlayerID, nil
}

// runSessionLoop reads and dispatches messages for an admitted
// connection until the socket errors or the player sends leave.
// Oversized, rate-limited, and malformed messages are counted and
// dropped; they never end the session. A read deadline armed to HeartbeatTimeout
// before every Read is what actually reaps an idle peer: the deadline
// elapsing makes conn.Read itself return an error, rather than relying
// on a check that only runs once a message has already arrived.
func runSessionLoop(r *Room, conf SessionConf, conn ws.Conn, playerID string) {
	limiter := rate.NewLimiter(rate.Limit(conf.RequestsPerSecond), conf.RequestsPerSecond)

	for {
		if err := conn.SetReadDeadline(conf.HeartbeatTimeout); err != nil {
			break
		}
		data, err := conn.Read()
		if err != nil {
			break
		}

		if len(data) > wire.MaxMessageSize {
			violationCounter.Inc("oversized_message")
			continue
		}
		if !limiter.Allow() {
			violationCounter.Inc("rate_limited")
			continue
		}

		env, err := wire.Unmarshal(data)
		if err != nil {
			violationCounter.Inc("malformed_envelope")
			continue
		}

		if !dispatch(r, playerID, env) {
			break
		}
	}
}

// dispatch routes one decoded envelope from an admitted connection to
// the owning room, per spec.md §4.8's control flow. It returns false
// when the session should end (a leave message).
func dispatch(r *Room, playerID string, env wire.Envelope) bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	switch env.Type {
	case wire.TypeInput:
		var p wire.InputPayload
		if err := wire.DecodePayload(env, &p); err != nil {
			violationCounter.Inc("malformed_envelope")
			return true
		}
		in, err := input.Deserialize(p.InputData)
		if err != nil {
			violationCounter.Inc("malformed_input")
			return true
		}
		in.FrameID = p.FrameID
		r.SubmitInput(ctx, playerID, in)
		return true
	case wire.TypeLeave:
		return false
	default:
		violationCounter.Inc("unexpected_type")
		return true
	}
}

func awaitFirstMessage(conn ws.Conn, timeout time.Duration) (wire.Envelope, error) {
	type result struct {
		env wire.Envelope
		err error
	}
	done := make(chan result, 1)
	go func() {
		data, err := conn.Read()
		if err != nil {
			done <- result{err: err}
			return
		}
		env, err := wire.Unmarshal(data)
		done <- result{env: env, err: err}
	}()

	select {
	case res := <-done:
		return res.env, res.err
	case <-time.After(timeout):
		xlog.Write().Debug("auth timeout", zap.Duration("timeout", timeout))
		return wire.Envelope{}, context.DeadlineExceeded
	}
}

func sendJoinSuccess(conn ws.Conn, auth wire.AuthPayload, res JoinResult) error {
	env, err := wire.EncodePayload(wire.TypeJoinSuccess, wire.JoinSuccessPayload{
		RoomID:   auth.RoomID,
		PlayerID: auth.PlayerID,
		Roster:   res.Roster,
	})
	if err != nil {
		return err
	}
	data, err := wire.Marshal(env)
	if err != nil {
		return err
	}
	return conn.Write(data)
}

// sendCatchUp answers a reconnect with whichever of sync_frames or
// resync_full the room decided on.
func sendCatchUp(conn ws.Conn, res ReconnectResult) error {
	t := wire.TypeSyncFrames
	var payload any = wire.SyncFramesPayload{Frames: res.SyncFrames}
	if res.NeedsFullResync {
		t = wire.TypeResyncFull
		payload = wire.ResyncFullPayload{Snapshot: res.Snapshot}
	}

	env, err := wire.EncodePayload(t, payload)
	if err != nil {
		return err
	}
	data, err := wire.Marshal(env)
	if err != nil {
		return err
	}
	return conn.Write(data)
}

func sendError(conn ws.Conn, code int, message string) {
	env, err := wire.EncodePayload(wire.TypeError, wire.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	data, err := wire.Marshal(env)
	if err != nil {
		return
	}
	conn.Write(data)
}
