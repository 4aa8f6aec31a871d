// Package xlog provides the server's structured logger: zap for
// structured JSON/console output, lumberjack for rolling log files
// when file mode is selected. Process-level logging configuration
// itself is out of scope for the simulation core, but the core still
// needs somewhere to log admission failures, force_tick events, and
// desync reports — this package is that somewhere.
package xlog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	timeKey = "time"

	EncodingJSON    = "json"
	EncodingConsole = "console"
	ModeFile        = "file"
	ModeStdout      = "stdout"
)

var levels = map[string]zapcore.Level{
	"debug": zap.DebugLevel,
	"info":  zap.InfoLevel,
	"warn":  zap.WarnLevel,
	"error": zap.ErrorLevel,
	"panic": zap.PanicLevel,
	"fatal": zap.FatalLevel,
}

// Config configures the process-wide logger.
type Config struct {
	ServiceName string
	Path        string
	Filename    string
	Mode        string // "file" or "stdout"
	Encoding    string // "json" or "console"
	TimeFormat  string
	Level       string
	Compress    bool
	KeepDays    int
	MaxSizeMB   int
}

var (
	mu      sync.RWMutex
	current *zap.Logger
)

func init() {
	conf := Config{}
	withDefaults(&conf)
	current = build(conf)
}

// Load replaces the process-wide logger with one built from conf.
func Load(conf Config) {
	withDefaults(&conf)
	logger := build(conf)

	mu.Lock()
	current = logger
	mu.Unlock()
}

// Write returns the current process-wide logger.
func Write() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func build(conf Config) *zap.Logger {
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)}
	if conf.ServiceName != "" {
		opts = append(opts, zap.Fields(zap.String("service", conf.ServiceName)))
	}

	var ws zapcore.WriteSyncer
	if conf.Mode == ModeFile {
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename: fmt.Sprintf("%s/%s", conf.Path, conf.Filename),
			Compress: conf.Compress,
			MaxAge:   conf.KeepDays,
			MaxSize:  conf.MaxSizeMB,
		})
	} else {
		ws = zapcore.Lock(os.Stdout)
	}

	level, ok := levels[conf.Level]
	if !ok {
		level = zap.DebugLevel
	}

	return zap.New(zapcore.NewCore(buildEncoder(conf), ws, level), opts...)
}

func buildEncoder(conf Config) zapcore.Encoder {
	econf := zap.NewProductionEncoderConfig()
	econf.TimeKey = timeKey
	econf.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format(conf.TimeFormat))
	}
	if conf.Level == "debug" {
		econf.EncodeLevel = zapcore.LowercaseColorLevelEncoder
	} else {
		econf.EncodeLevel = zapcore.LowercaseLevelEncoder
	}

	if conf.Encoding == EncodingJSON {
		return zapcore.NewJSONEncoder(econf)
	}
	return zapcore.NewConsoleEncoder(econf)
}

func withDefaults(conf *Config) {
	if conf.Mode == "" {
		conf.Mode = ModeStdout
	}
	if conf.Path == "" {
		wd, _ := os.Getwd()
		conf.Path = fmt.Sprintf("%s/logs", wd)
	}
	if conf.Filename == "" {
		conf.Filename = "game-frame-sync.log"
	}
	if conf.Level == "" {
		conf.Level = "info"
	}
	if conf.Encoding == "" {
		conf.Encoding = EncodingConsole
	}
	if conf.TimeFormat == "" {
		conf.TimeFormat = "2006-01-02 15:04:05"
	}
	if conf.MaxSizeMB == 0 {
		conf.MaxSizeMB = 100
	}
}
