package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns the root logger: human-readable console output in debug
// mode, JSON lines otherwise.
func NewLogger(debug bool) *zerolog.Logger {
	level := zerolog.InfoLevel
	var l zerolog.Logger
	if debug {
		level = zerolog.DebugLevel
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		l = zerolog.New(os.Stderr)
	}
	l = l.Level(level).With().Timestamp().Str("service", "ai-grader").Logger()
	return &l
}
