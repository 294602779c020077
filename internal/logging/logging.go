// Package logging builds the zerolog logger shared by the CLI and the engine.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Formats accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New returns a logger writing to w at the given level. format is
// FormatConsole (human readable, no colour) or FormatJSON.
func New(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level: %w", err)
	}

	var out io.Writer
	switch format {
	case FormatJSON:
		out = w
	case FormatConsole, "":
		out = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("unsupported log format: %s", format)
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
