// Package logging configures zerolog for the TradeCo binaries and hands out
// component loggers to library code.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup sets the global level from a LOG_LEVEL style string and points the
// global logger at stderr. Unknown levels fall back to info.
func Setup(level string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(ParseLevel(level))
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// ParseLevel maps a textual level to a zerolog.Level.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// New returns a logger for the named component writing to w.
func New(w io.Writer, component string) zerolog.Logger {
	if w == nil {
		return zerolog.Nop()
	}
	return zerolog.New(w).With().Timestamp().Str("component", component).Logger()
}

// Component derives a component logger from the global logger.
func Component(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
