// Package logging configures the process-wide structured logger. The
// runfiles materializer has no verbosity flag and consults no
// environment variable for it, so unlike a long-running service the
// level here is fixed rather than operator-tunable.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLevel is deliberately not configurable: the CLI surface is
// fixed by the manifest-reconciliation contract, and adding a
// --verbose flag or env var would be one more thing ArgumentError has
// to reject.
const defaultLevel = zerolog.InfoLevel

// Setup configures the global logger to write pretty console output to
// stderr. It must run once, before the first log call.
func Setup() {
	zerolog.SetGlobalLevel(defaultLevel)
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}
	log.Logger = zerolog.New(console).With().Timestamp().Logger()
}

// Get returns a logger tagged with the given component name.
func Get(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Phase logs the start of a Driver phase at Info level and returns a
// function that logs its completion along with elapsed duration.
func Phase(logger zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Info().Str("phase", name).Msg("phase started")
	return func() {
		logger.Info().Str("phase", name).Dur("duration", time.Since(start)).Msg("phase completed")
	}
}
