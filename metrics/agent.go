package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kongshan001/game-frame-sync/xlog"
)

var (
	once    sync.Once
	enabled atomic.Bool
)

// Config configures the /metrics HTTP exporter.
type Config struct {
	Host string
	Port int
	Path string
}

func withDefaults(c *Config) {
	if c.Path == "" {
		c.Path = "/metrics"
	}
	if c.Port == 0 {
		c.Port = 9101
	}
}

// Enabled reports whether the metrics exporter is running.
func Enabled() bool {
	return enabled.Load()
}

// Start starts the /metrics HTTP exporter exactly once per process.
func Start(c Config) {
	withDefaults(&c)
	once.Do(func() {
		enabled.Store(true)
		mux := http.NewServeMux()
		mux.Handle(c.Path, promhttp.Handler())
		addr := fmt.Sprintf("%s:%d", c.Host, c.Port)
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil {
				xlog.Write().Error("metrics exporter stopped", zap.Error(err))
			}
		}()
	})
}
