package config

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the logger described by cfg and sets the global level.
func NewLogger(cfg LoggingConfig, out io.Writer) zerolog.Logger {
	ApplyLevel(cfg)
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// ApplyLevel sets the global zerolog level. Unknown levels fall back to info.
func ApplyLevel(cfg LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
