// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

// Package logging builds the zerolog loggers used by Seen.
//
// There is no global logger. The CLI builds one root logger per run with
// New and passes it down; long-lived components derive a child tagged with
// their component name, and evaluation runs add their run ID:
//
//	root := logging.New(logging.Config{Level: "info", Format: "console"})
//
//	ctx = logging.ContextWithNewRunID(ctx)
//	logger := logging.WithRunID(ctx, root)
//	handler := dataset.NewHandler(data, cfg, logger) // component=dataset
//
// Errors raised before the configuration is loaded go to Bootstrap, a JSON
// logger at info level.
//
// Always terminate log chains with .Msg() or .Send(); an unterminated
// event is never written.
package logging
