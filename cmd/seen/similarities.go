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

	"github.com/rs/zerolog"

	"github.com/tomtom215/seen/internal/config"
	"github.com/tomtom215/seen/internal/recommend"
	"github.com/tomtom215/seen/internal/recommend/dataset"
)

// runSimilarities fits a recommender's similarity source on all data and
// exports the matrix as CSV.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func runSimilarities(ctx context.Context, cfg *config.Config, args []string, out io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("similarities", flag.ContinueOnError)
	name := fs.String("recommender", "", "recommender name (default: first with item similarities)")
	outPath := fs.String("out", "", `CSV output path ("-" or empty for stdout)`)
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := findRecommender(cfg, *name)
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

	source, err := a.similaritySource(&rc)
	if err != nil {
		return err
	}
	data, err := a.handler.Data(recommend.PartitionAll)
	if err != nil {
		return err
	}
	sim, err := source.Similarities(ctx, data)
	if err != nil {
		return fmt.Errorf("%s similarities: %w", rc.Name, err)
	}

	names := make([]string, data.NumItems())
	for i := range names {
		names[i] = a.handler.ItemName(i)
	}
	write := func(w io.Writer) error { return dataset.WriteSimilarities(w, names, sim) }

	if *outPath == "" || *outPath == "-" {
		return write(out)
	}
	if err := writeFile(*outPath, write); err != nil {
		return fmt.Errorf("write similarities: %w", err)
	}
	logger.Info().
		Str("recommender", rc.Name).
		Str("model", source.Key()).
		Int("items", len(names)).
		Str("path", *outPath).
		Msg("similarities written")
	return nil
}
