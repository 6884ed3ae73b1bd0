package venuefed

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Log formats
const (
	LogConsole = "console"
	LogJSON    = "json"
)

// NewLogger returns a zerolog logger writing to w. The console format is
// human-friendly; anything else writes JSON lines.
func NewLogger(format string, w io.Writer) zerolog.Logger {
	if format == LogConsole {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
