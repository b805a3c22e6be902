// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

// runIDKey is the context key for evaluation run IDs.
const runIDKey contextKey = "run_id"

// GenerateRunID creates a new unique run ID (a full UUID).
func GenerateRunID() string {
	return uuid.New().String()
}

// ContextWithRunID returns a new context with the given run ID.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// ContextWithNewRunID returns a context with a newly generated run ID.
func ContextWithNewRunID(ctx context.Context) context.Context {
	return ContextWithRunID(ctx, GenerateRunID())
}

// RunIDFromContext retrieves the run ID from context.
// Returns empty string if not present.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRunID derives a child logger carrying the run ID of ctx, if any.
//
//	logger := logging.WithRunID(ctx, root)
//	// {"level":"info","run_id":"...","message":"evaluation complete"}
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func WithRunID(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if id := RunIDFromContext(ctx); id != "" {
		return logger.With().Str("run_id", id).Logger()
	}
	return logger
}
