package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/gray-logic-sensors/internal/infrastructure/config"
)

const serviceName = "sensoradmin"

// Logger is the service-wide structured logger. Every entry carries the
// service name and build version.
type Logger struct {
	*slog.Logger
}

// New builds a Logger for cfg, writing to stderr when cfg.Output says so
// and to stdout otherwise.
func New(cfg config.LoggingConfig, version string) *Logger {
	out := io.Writer(os.Stdout)
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}
	return NewWithWriter(cfg, version, out)
}

// NewWithWriter is New with an explicit destination. Format "text" selects
// slog's key=value handler; anything else logs JSON.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	}
	return &Logger{slog.New(h).With("service", serviceName, "version", version)}
}

// parseLevel accepts slog's level names plus "warning"; anything it does
// not recognise means info.
func parseLevel(s string) slog.Level {
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// With returns a child Logger, typically tagged with a component:
//
//	log.With("component", "mqtt").Info("connected")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l.Logger.With(args...)}
}

// Default is the bootstrap logger used until config.yaml has been read.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}

// Discard drops every entry.
func Discard() *Logger {
	return &Logger{slog.New(slog.DiscardHandler)}
}
