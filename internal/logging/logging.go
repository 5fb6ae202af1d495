// Package logging builds the zerolog logger shared by the CLI and the index.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Options struct {
	// Level is one of debug, info, warn, error; anything else means info.
	Level string
	// Format is FormatConsole (default) or FormatJSON.
	Format string
	// Output defaults to os.Stderr so command output on stdout stays clean.
	Output io.Writer
}

func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var zl zerolog.Logger
	if strings.EqualFold(opts.Format, FormatJSON) {
		zl = zerolog.New(out)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(out),
		})
	}
	return zl.Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
}

func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Nop discards everything; used where no logger was supplied.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
