// Package logging builds the zerolog logger each collector creates before
// any other subsystem starts, per spec §7. Loggers are returned as values
// and injected; the package-level zerolog logger is not set.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/mdcollector/internal/config"
)

// New builds a zerolog.Logger per cfg.Logging: human-readable console
// output in development, structured JSON in production.
func New(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "json" {
		logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(level).With().Timestamp().Logger()
	}
	return logger
}

// Bootstrap builds a default console logger for use before the config file
// has been read (e.g. to report a config load failure itself).
func Bootstrap() zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}
