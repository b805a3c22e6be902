// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/seen/internal/config"
	"github.com/tomtom215/seen/internal/recommend"
	"github.com/tomtom215/seen/internal/recommend/dataset"
	"github.com/tomtom215/seen/internal/recommend/storage"
)

var (
	errNoItems     = errors.New("no items given")
	errUnknownItem = errors.New("unknown item")
)

// RecommendOutput is the JSON document written by the recommend command.
type RecommendOutput struct {
	Recommender string          `json:"recommender"`
	Model       string          `json:"model"`
	Selected    []string        `json:"selected"`
	Unselected  []string        `json:"unselected,omitempty"`
	Items       []RecommendItem `json:"items"`
}

// RecommendItem is one ranked item.
type RecommendItem struct {
	Item  int     `json:"item"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// runRecommend ranks catalog items for an ad-hoc item list.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func runRecommend(ctx context.Context, cfg *config.Config, args []string, out io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	name := fs.String("recommender", "", "recommender name (default: first with item similarities)")
	selectedFlag := fs.String("selected", "", "comma-separated selected item names or indices")
	unselectedFlag := fs.String("unselected", "", "comma-separated shown but unselected item names or indices")
	n := fs.Int("n", cfg.Evaluation.NRecommend, "number of recommendations")
	latest := fs.Bool("latest", false, "use the latest stored similarity snapshot instead of fitting")
	if err := fs.Parse(args); err != nil {
		return err
	}

	selected, unselected := splitList(*selectedFlag), splitList(*unselectedFlag)
	if len(selected)+len(unselected) == 0 {
		return fmt.Errorf("-selected or -unselected: %w", errNoItems)
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

	chart := scoresChart(&rc)
	items, weights, err := resolveItems(a.handler, chart, selected, unselected)
	if err != nil {
		return err
	}

	source, err := a.similaritySource(&rc)
	if err != nil {
		return err
	}
	sim, err := a.similarities(ctx, source, *latest)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(a.eval.Seed())) //nolint:gosec // deterministic padding, not security
	recs, scores, err := a.eval.RecommendByItems(items, weights, sim, *n, rng)
	if err != nil {
		return fmt.Errorf("%s: %w", rc.Name, err)
	}

	result := RecommendOutput{
		Recommender: rc.Name,
		Model:       source.Key(),
		Selected:    selected,
		Unselected:  unselected,
		Items:       make([]RecommendItem, len(recs)),
	}
	for i, item := range recs {
		result.Items[i] = RecommendItem{Item: item, Name: a.handler.ItemName(item), Score: scores[i]}
	}
	logger.Debug().
		Str("recommender", rc.Name).
		Int("inputs", len(items)).
		Int("recommendations", len(recs)).
		Msg("recommendations ranked")

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// similarities returns the source's matrix for all data, or the latest
// stored snapshot when latest is set.
func (a *app) similarities(ctx context.Context, source recommend.SimilaritySource, latest bool) (*mat.Dense, error) {
	data, err := a.handler.Data(recommend.PartitionAll)
	if err != nil {
		return nil, err
	}
	if !latest {
		return source.Similarities(ctx, data)
	}
	if a.store == nil {
		return nil, fmt.Errorf("-latest: %w", errSnapshotsDisabled)
	}

	sim, meta, err := a.store.LoadLatest(ctx, source.Key())
	if err != nil {
		if errors.Is(err, storage.ErrSnapshotNotFound) {
			return nil, fmt.Errorf("model %s: %w", source.Key(), err)
		}
		return nil, err
	}
	if rows, _ := sim.Dims(); rows != data.NumItems() {
		return nil, fmt.Errorf("snapshot of model %s has %d items, dataset has %d: %w",
			source.Key(), rows, data.NumItems(), recommend.ErrMisaligned)
	}
	a.logger.Info().
		Str("model", source.Key()).
		Time("saved_at", meta.SavedAt).
		Msg("using stored similarity snapshot")
	return sim, nil
}

// resolveItems maps item names or indices to item IDs weighted by chart.
func resolveItems(h *dataset.Handler, chart recommend.ScoresChart, selected, unselected []string) ([]int, []float64, error) {
	var (
		items   []int
		weights []float64
	)
	add := func(names []string, label recommend.Label) error {
		if len(names) == 0 {
			return nil
		}
		w, err := chart.Weight(label)
		if err != nil {
			return err
		}
		for _, name := range names {
			id, ok := h.ItemIndex(name)
			if !ok {
				return fmt.Errorf("%q: %w", name, errUnknownItem)
			}
			items = append(items, id)
			weights = append(weights, w)
		}
		return nil
	}

	if err := add(selected, recommend.LabelSelected); err != nil {
		return nil, nil, err
	}
	if err := add(unselected, recommend.LabelShown); err != nil {
		return nil, nil, err
	}
	return items, weights, nil
}
