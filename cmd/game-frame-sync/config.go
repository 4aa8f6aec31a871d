package main

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/kongshan001/game-frame-sync/xlog"
)

// config is the operational surface of spec.md §6: host, port,
// max_players, tick_rate, frame_timeout, max_requests_per_second, and
// max_input_size, plus the ambient logging/metrics knobs. Every flag
// has an environment-variable fallback per spec.md §6's "optional
// variables for the transport bind address... none are required".
type config struct {
	host                 string
	port                 int
	maxPlayers           int
	tickRate             int
	frameTimeout         time.Duration
	maxRequestsPerSecond int
	maxInputSize         int
	maxConnections       int
	logMode              string
	logEncoding          string
	logLevel             string
	metricsEnabled       bool
	metricsHost          string
	metricsPort          int
}

func parseFlags() config {
	var c config
	flag.StringVar(&c.host, "host", envOr("GFS_HOST", "0.0.0.0"), "listen host")
	flag.IntVar(&c.port, "port", envOrInt("GFS_PORT", 8080), "listen port")
	flag.IntVar(&c.maxPlayers, "max_players", envOrInt("GFS_MAX_PLAYERS", 2), "players per room before game_start")
	flag.IntVar(&c.tickRate, "tick_rate", envOrInt("GFS_TICK_RATE", 30), "logical ticks per second")
	frameTimeoutMs := flag.Int("frame_timeout_ms", envOrInt("GFS_FRAME_TIMEOUT_MS", 1000), "force_tick deadline in milliseconds")
	flag.IntVar(&c.maxRequestsPerSecond, "max_requests_per_second", envOrInt("GFS_MAX_RPS", 100), "per-connection rate limit")
	flag.IntVar(&c.maxInputSize, "max_input_size", envOrInt("GFS_MAX_INPUT_SIZE", 10*1024), "transport-level max message size in bytes")
	flag.IntVar(&c.maxConnections, "max_connections", envOrInt("GFS_MAX_CONNECTIONS", 100000), "process-wide connection cap")
	flag.StringVar(&c.logMode, "log_mode", envOr("GFS_LOG_MODE", xlog.ModeStdout), "stdout or file")
	flag.StringVar(&c.logEncoding, "log_encoding", envOr("GFS_LOG_ENCODING", "console"), "console or json")
	flag.StringVar(&c.logLevel, "log_level", envOr("GFS_LOG_LEVEL", "info"), "debug, info, warn, error")
	flag.BoolVar(&c.metricsEnabled, "metrics", envOrBool("GFS_METRICS_ENABLED", false), "serve /metrics")
	flag.StringVar(&c.metricsHost, "metrics_host", envOr("GFS_METRICS_HOST", ""), "metrics listen host")
	flag.IntVar(&c.metricsPort, "metrics_port", envOrInt("GFS_METRICS_PORT", 9101), "metrics listen port")
	flag.Parse()

	c.frameTimeout = time.Duration(*frameTimeoutMs) * time.Millisecond
	return c
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
