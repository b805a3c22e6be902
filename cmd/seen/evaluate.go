// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tomtom215/seen/internal/config"
	"github.com/tomtom215/seen/internal/recommend"
)

// runEvaluate evaluates the configured recommenders and writes the report.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func runEvaluate(ctx context.Context, cfg *config.Config, args []string, out io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	reportPath := fs.String("report", cfg.Evaluation.Report, `report path ("-" or empty for stdout)`)
	only := fs.String("recommenders", "", "comma-separated recommender names (default: all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	selected, err := selectRecommenders(cfg, splitList(*only))
	if err != nil {
		return err
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close snapshot store")
		}
	}()

	evaluator := recommend.NewEvaluator(a.handler, a.eval.Seed(), logger)
	for i := range selected {
		r, err := a.newRecommender(&selected[i])
		if err != nil {
			return err
		}
		evaluator.Register(r)
		logger.Debug().
			Str("recommender", selected[i].Name).
			Str("kind", selected[i].Kind).
			Str("algorithm", selected[i].Algorithm).
			Msg("recommender built")
	}

	report, err := evaluator.Evaluate(ctx, evaluateOptions(&cfg.Evaluation))
	if err != nil {
		return err
	}

	if *reportPath == "" || *reportPath == "-" {
		return report.WriteJSON(out)
	}
	if err := writeFile(*reportPath, report.WriteJSON); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Info().Str("path", *reportPath).Msg("report written")
	return nil
}

// evaluateOptions maps the evaluation settings onto the evaluator options.
func evaluateOptions(c *config.EvaluationConfig) recommend.EvaluateOptions {
	return recommend.EvaluateOptions{
		FindNearestTo:        c.FindNearestTo,
		NNearest:             c.NNearest,
		NearestCategoryMatch: c.CategoryMatch,
		RecommendFor:         c.RecommendFor,
		NRecommend:           c.NRecommend,
		MatchIndexN:          c.MatchIndexN,
		HitRateN:             c.HitRateN,
		HitPositions:         c.HitPositions,
		NoveltyN:             c.NoveltyN,
	}
}

// writeFile creates path, including missing parent directories, and fills
// it with write.
func writeFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	f, err := os.Create(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
