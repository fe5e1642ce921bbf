// Package logger builds the service zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/akave-ai/udplog/internal/config"
)

// New returns a logger writing to stderr, as console text or JSON per cfg.
func New(cfg *config.ObservabilityConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg *config.ObservabilityConfig, w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	format := config.LogFormatConsole
	service := "udplog"
	if cfg != nil {
		if l, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
			level = l
		}
		if cfg.LogFormat != "" {
			format = cfg.LogFormat
		}
		if cfg.ServiceName != "" {
			service = cfg.ServiceName
		}
	}

	out := w
	if format == config.LogFormatConsole {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", service).Logger()
}
