// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

// Package main is the entry point for the seen command line tool.
//
// seen evaluates and serves recommenders trained on implicit feedback: which
// items a user was shown and which of them they selected.
//
// # Commands
//
//	seen [-config path] evaluate [-report path] [-recommenders a,b]
//	seen [-config path] similarities [-recommender name] [-out path]
//	seen [-config path] recommend -selected a,b [-unselected c] [-n 10] [-recommender name] [-latest]
//	seen [-config path] snapshots [-delete model]
//
// evaluate runs the configured metrics (nearest items, category match,
// recommendations for chosen users, match index, leave-one-out hit rate and
// novelty) for every recommender and writes a JSON report.
//
// similarities fits a model on the full data and writes its item-item
// similarity matrix as CSV rows of "item_name, sim...". With snapshots
// enabled the matrix is also stored in the badger snapshot store.
//
// recommend ranks items for an ad-hoc list of selected and unselected items,
// weighted by the recommender's scores chart.
//
// snapshots lists the stored similarity snapshots as JSON. -delete removes
// every snapshot of one model key first.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (SEEN_*)
//   - Config file (-config, $SEEN_CONFIG, seen.yaml, /etc/seen/config.yaml)
//   - Built-in defaults
//
// # Metrics
//
// When metrics.textfile is set, the Prometheus metrics of the run are
// written there on exit for the node exporter textfile collector.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the running command; parallel evaluation loops
// stop at the next subject.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/tomtom215/seen/internal/config"
	"github.com/tomtom215/seen/internal/logging"
	"github.com/tomtom215/seen/internal/metrics"
)

// command is one seen subcommand.
type command struct {
	name    string
	summary string
	run     func(ctx context.Context, cfg *config.Config, args []string, out io.Writer, logger zerolog.Logger) error
}

var commands = []command{
	{"evaluate", "evaluate the configured recommenders and write a JSON report", runEvaluate},
	{"similarities", "export a model's item-item similarity matrix as CSV", runSimilarities},
	{"recommend", "rank items for a list of selected and unselected items", runRecommend},
	{"snapshots", "list or delete stored similarity snapshots", runSnapshots},
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("seen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (default: $SEEN_CONFIG, seen.yaml, /etc/seen/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: seen [-config path] <command> [flags]\n\nCommands:\n")
		for _, c := range commands {
			fmt.Fprintf(stderr, "  %-13s %s\n", c.name, c.summary)
		}
		fmt.Fprintf(stderr, "\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cmd, ok := findCommand(fs.Arg(0))
	if !ok {
		fmt.Fprintf(stderr, "seen: unknown command %q\n\n", fs.Arg(0))
		fs.Usage()
		return 2
	}

	// Load configuration first to get logging settings
	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLogger := logging.Bootstrap(stderr)
		bootLogger.Error().Err(err).Msg("failed to load configuration")
		return 1
	}

	root := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: stderr,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.ContextWithNewRunID(ctx)

	logger := logging.WithRunID(ctx, root).With().
		Str("command", cmd.name).
		Logger()

	runErr := cmd.run(ctx, cfg, fs.Args()[1:], stdout, logger)

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Error().Err(err).Str("path", cfg.Metrics.Textfile).Msg("failed to write metrics textfile")
		} else {
			logger.Debug().Str("path", cfg.Metrics.Textfile).Msg("metrics textfile written")
		}
	}

	if runErr != nil {
		if errors.Is(runErr, flag.ErrHelp) {
			return 0
		}
		logger.Error().Err(runErr).Msg("command failed")
		return 1
	}
	return 0
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}
