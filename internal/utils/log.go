package utils

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Log is the logger shared by every hymoctl package. It is usable before SetLogger is
// called, which only adjusts output and level.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(zerolog.InfoLevel)

// SetLogger configures Log for the current process. Debug is enabled by the flag or by
// HYMOCTL_DEBUG being set to anything.
func SetLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug || os.Getenv("HYMOCTL_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
}

// SetLogOutput redirects Log, mostly for tests that want a quiet run.
func SetLogOutput(w io.Writer) {
	Log = Log.Output(w)
}
