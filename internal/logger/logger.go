// Package logger configures the application's structured logging.
//
// It uses zerolog throughout. Outside production the logger writes
// human-friendly console output; in production it emits plain JSON lines
// for whatever ships them onward.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the application logger for the given environment.
//
// level is parsed as a zerolog level name ("debug", "info", ...). An empty
// or unknown level falls back to info.
func New(env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if env == "production" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger.Level(lvl).With().Timestamp().Logger()
}
