// logger.go - Structured logging setup
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// newLogger builds the root logger. Unknown level strings fall back to info
// rather than failing startup.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}
