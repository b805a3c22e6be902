// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error,
	// fatal, panic or disabled. Unknown values mean info.
	Level string

	// Format is json (default) or console.
	Format string

	// Caller adds the caller file and line to every entry.
	Caller bool

	// Output receives the log entries. Default: os.Stderr.
	Output io.Writer
}

// New builds the root logger of a run. The level is applied to the logger
// itself, so loggers built with different configs do not interfere.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	logCtx := zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp()
	if cfg.Caller {
		logCtx = logCtx.Caller()
	}
	return logCtx.Logger()
}

// Bootstrap returns a JSON logger for the messages emitted before the
// configuration, and with it the logging settings, is loaded.
func Bootstrap(w io.Writer) zerolog.Logger {
	return New(Config{Output: w})
}

// WithComponent derives a child logger tagged with a component field.
//
//	h.logger = logging.WithComponent(logger, "dataset")
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// parseLevel converts a level name to a zerolog.Level.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
