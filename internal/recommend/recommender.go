// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package recommend

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/tomtom215/seen/internal/metrics"
)

// Recommender produces item rankings for users and nearest items for items.
type Recommender interface {
	// Name returns the recommender identifier used in logs and reports.
	Name() string

	// RecommendForUsers returns n items per user from partition p,
	// most relevant first. Rows are aligned with users.
	RecommendForUsers(ctx context.Context, users []int, n int, p Partition) ([][]int, error)

	// RecommendForItems returns the n nearest items of each item, with
	// their similarity values, computed on the full dataset.
	RecommendForItems(ctx context.Context, items []int, n int) ([][]int, [][]float64, error)
}

// ItemSimilarityRecommender ranks items by their chart-weighted similarity
// to the items a user interacted with.
type ItemSimilarityRecommender struct {
	name   string
	source SimilaritySource
	eval   *Evaluation
	chart  ScoresChart
}

// NewItemSimilarityRecommender creates an item-similarity recommender.
// The chart is validated up front.
func NewItemSimilarityRecommender(name string, source SimilaritySource, eval *Evaluation, chart ScoresChart) (*ItemSimilarityRecommender, error) {
	if err := chart.Validate(); err != nil {
		return nil, fmt.Errorf("recommender %s: %w", name, err)
	}
	return &ItemSimilarityRecommender{
		name:   name,
		source: source,
		eval:   eval,
		chart:  chart,
	}, nil
}

// Name returns the recommender identifier.
func (r *ItemSimilarityRecommender) Name() string {
	return r.name
}

// RecommendForUsers implements Recommender.
func (r *ItemSimilarityRecommender) RecommendForUsers(ctx context.Context, users []int, n int, p Partition) ([][]int, error) {
	data, err := r.eval.data.Data(p)
	if err != nil {
		return nil, err
	}
	sim, err := r.source.Similarities(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s similarities: %w", r.name, err)
	}

	recs, err := r.eval.RecommendForUsers(ctx, users, sim, n, r.chart, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.name, err)
	}
	metrics.RecordRecommendations(r.name, "users", len(recs))
	return recs, nil
}

// RecommendForItems implements Recommender.
func (r *ItemSimilarityRecommender) RecommendForItems(ctx context.Context, items []int, n int) ([][]int, [][]float64, error) {
	return recommendNearestItems(ctx, r.name, r.source, r.eval, items, n)
}

func recommendNearestItems(ctx context.Context, name string, source SimilaritySource, eval *Evaluation, items []int, n int) ([][]int, [][]float64, error) {
	data, err := eval.data.Data(PartitionAll)
	if err != nil {
		return nil, nil, err
	}
	sim, err := source.Similarities(ctx, data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s similarities: %w", name, err)
	}

	neighbors, values, err := eval.ItemNeighbors(ctx, items, sim, n)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	metrics.RecordRecommendations(name, "items", len(neighbors))
	return neighbors, values, nil
}

// NewPopularityRecommender creates a recommender whose similarity rows are
// the global popularity ranks. It shares the ranking code of the
// embedding-based recommenders and weighs all labels equally.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPopularityRecommender(name string, eval *Evaluation, logger zerolog.Logger) *ItemSimilarityRecommender {
	return &ItemSimilarityRecommender{
		name:   name,
		source: NewPopularityModel(logger),
		eval:   eval,
		chart:  DefaultScoresChart(),
	}
}

// UserBasedRecommender ranks items through nearest users in user embedding
// space combined with item neighborhoods.
type UserBasedRecommender struct {
	name  string
	model *Model
	eval  *Evaluation
	chart ScoresChart
	cfg   PropagationConfig
}

// NewUserBasedRecommender creates a user-based recommender. The model's
// provider must produce user embeddings.
//
//nolint:gocritic // cfg passed by value for immutability
func NewUserBasedRecommender(name string, model *Model, eval *Evaluation, chart ScoresChart, cfg PropagationConfig) (*UserBasedRecommender, error) {
	if err := chart.Validate(); err != nil {
		return nil, fmt.Errorf("recommender %s: %w", name, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("recommender %s: %w", name, err)
	}
	if cfg.Mode == "" {
		cfg.Mode = PropagateItems
	}

	return &UserBasedRecommender{
		name:  name,
		model: model,
		eval:  eval,
		chart: chart,
		cfg:   cfg,
	}, nil
}

// Name returns the recommender identifier.
func (r *UserBasedRecommender) Name() string {
	return r.name
}

// RecommendForUsers implements Recommender.
func (r *UserBasedRecommender) RecommendForUsers(ctx context.Context, users []int, n int, p Partition) ([][]int, error) {
	data, err := r.eval.data.Data(p)
	if err != nil {
		return nil, err
	}

	itemSim, err := r.model.Similarities(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s similarities: %w", r.name, err)
	}
	userEmb, err := r.model.UserEmbeddings(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.name, err)
	}

	weighted, err := r.eval.UserBasedWeights(ctx, users, userEmb, itemSim, r.model.SimilarityFunction(), r.chart, r.cfg, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.name, err)
	}

	recs, err := r.eval.RecommendFromWeights(ctx, users, weighted, n, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.name, err)
	}
	metrics.RecordRecommendations(r.name, "users", len(recs))
	return recs, nil
}

// RecommendForItems implements Recommender using item similarities.
func (r *UserBasedRecommender) RecommendForItems(ctx context.Context, items []int, n int) ([][]int, [][]float64, error) {
	return recommendNearestItems(ctx, r.name, r.model, r.eval, items, n)
}

// RandomRecommender returns uniformly random items. It is the statistical
// floor the other recommenders are compared against.
type RandomRecommender struct {
	name string
	eval *Evaluation
}

// NewRandomRecommender creates a random recommender drawing from the
// evaluation's seed.
func NewRandomRecommender(name string, eval *Evaluation) *RandomRecommender {
	return &RandomRecommender{name: name, eval: eval}
}

// Name returns the recommender identifier.
func (r *RandomRecommender) Name() string {
	return r.name
}

// RecommendForUsers returns n distinct random catalog items per user. When
// n exceeds the catalog the list is completed with repeats.
func (r *RandomRecommender) RecommendForUsers(ctx context.Context, users []int, n int, p Partition) ([][]int, error) {
	nItems, err := r.eval.data.NumItems(p)
	if err != nil {
		return nil, err
	}

	recs := make([][]int, len(users))
	err = r.eval.parallel(ctx, len(users), func(_ context.Context, i int) error {
		row, err := randomItems(r.eval.SubjectRand(i), nItems, n, -1)
		recs[i] = row
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.name, err)
	}
	metrics.RecordRecommendations(r.name, "users", len(recs))
	return recs, nil
}

// RecommendForItems returns n random items per item, excluding the item
// itself. Similarity values are all 0.
func (r *RandomRecommender) RecommendForItems(ctx context.Context, items []int, n int) ([][]int, [][]float64, error) {
	nItems, err := r.eval.data.NumItems(PartitionAll)
	if err != nil {
		return nil, nil, err
	}

	neighbors := make([][]int, len(items))
	values := make([][]float64, len(items))
	err = r.eval.parallel(ctx, len(items), func(_ context.Context, i int) error {
		row, err := randomItems(r.eval.SubjectRand(i), nItems, n, items[i])
		neighbors[i] = row
		values[i] = make([]float64, len(row))
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", r.name, err)
	}
	metrics.RecordRecommendations(r.name, "items", len(neighbors))
	return neighbors, values, nil
}

// randomItems samples n items from [0, nItems) without replacement, skipping
// exclude, and completes with replacement once the catalog is exhausted.
func randomItems(rng *rand.Rand, nItems, n, exclude int) ([]int, error) {
	if n <= 0 {
		return []int{}, nil
	}
	candidates := make([]int, 0, nItems)
	for _, idx := range rng.Perm(nItems) {
		if idx != exclude {
			candidates = append(candidates, idx)
		}
	}
	if n <= len(candidates) {
		return candidates[:n], nil
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidate items: %w", ErrInsufficientData)
	}

	out := candidates
	for len(out) < n {
		out = append(out, candidates[rng.Intn(len(candidates))])
	}
	return out, nil
}
