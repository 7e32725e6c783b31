// Package logging builds the zerolog.Logger every node shares, matching the
// teacher's structured-field logging (consumer.go's log.Info().Str(...))
// rather than Printf-style output, with a console writer for local
// readability since nodes run as long-lived foreground processes.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds a Logger tagged with role, at the given level name. An
// unrecognized level falls back to info rather than failing startup.
func New(role string, levelName string) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Str("role", role).
		Logger()
}
