// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/seen/internal/logging"
)

// Evaluation implements neighbor search, weighted aggregation, user-based
// propagation and evaluation metrics over a DataSource.
//
// It holds no mutable state and is safe for concurrent use. Similarity
// matrices passed in are read but never modified.
type Evaluation struct {
	data    DataSource
	seed    int64
	workers int
	logger  zerolog.Logger
}

// NewEvaluation creates an evaluation module reading activity from data.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEvaluation(data DataSource, cfg EvaluationConfig, logger zerolog.Logger) *Evaluation {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Evaluation{
		data:    data,
		seed:    cfg.Seed,
		workers: workers,
		logger:  logging.WithComponent(logger, "evaluation"),
	}
}

// Seed returns the configured seed.
func (e *Evaluation) Seed() int64 {
	return e.seed
}

// SubjectRand returns the random source for the subject at position pos of
// a batch. The sequence depends only on the seed and pos.
func (e *Evaluation) SubjectRand(pos int) *rand.Rand {
	return rand.New(rand.NewSource(subjectSeed(e.seed, pos))) //nolint:gosec // math/rand is fine for recommendation padding
}

// subjectSeed mixes the base seed with a subject position (splitmix64).
func subjectSeed(seed int64, pos int) int64 {
	z := uint64(seed) + uint64(pos+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

// parallel runs fn for every position in [0, n) on a bounded worker pool.
// fn must only write to the output slot of its own position.
func (e *Evaluation) parallel(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ItemNeighbors returns, for each subject, its n nearest entities in
// descending similarity order together with their similarity values.
//
// The subject's row is argsorted ascending with a stable sort, so equal
// similarities keep ascending index order before the final reversal. The top
// n+1 entries are taken; the subject itself is removed if present, otherwise
// the lowest of them is dropped. The latter happens for rows that are not
// self-maximal, such as popularity ranks.
func (e *Evaluation) ItemNeighbors(ctx context.Context, subjects []int, sim *mat.Dense, n int) ([][]int, [][]float64, error) {
	rows, _ := sim.Dims()
	for _, s := range subjects {
		if s < 0 || s >= rows {
			return nil, nil, fmt.Errorf("subject %d outside similarity matrix of %d rows: %w", s, rows, ErrInvalidIndex)
		}
	}

	neighbors := make([][]int, len(subjects))
	values := make([][]float64, len(subjects))

	err := e.parallel(ctx, len(subjects), func(_ context.Context, i int) error {
		neighbors[i], values[i] = topNeighbors(sim.RawRowView(subjects[i]), subjects[i], n)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return neighbors, values, nil
}

// topNeighbors selects the n nearest entries of row excluding subject.
func topNeighbors(row []float64, subject, n int) ([]int, []float64) {
	if n <= 0 {
		return []int{}, []float64{}
	}

	order := ascendingOrder(row)

	start := len(order) - (n + 1)
	if start < 0 {
		start = 0
	}
	top := order[start:]

	selected := make([]int, 0, n)
	found := false
	for _, idx := range top {
		if idx == subject {
			found = true
			continue
		}
		selected = append(selected, idx)
	}
	if !found && len(selected) > n {
		selected = selected[len(selected)-n:]
	}

	reverseInts(selected)
	sims := make([]float64, len(selected))
	for j, idx := range selected {
		sims[j] = row[idx]
	}
	return selected, sims
}

// RecommendByItems ranks catalog items by their weighted similarity to items.
//
// Every item j is scored as sum_i weights[i] * sim[items[i]][j]. The input
// items are excluded. When fewer than n items remain, the list is padded at
// the low-relevance end with input items drawn uniformly with replacement
// from rng. The result is ordered by descending score; scores are the
// weighted sums divided by len(items).
func (e *Evaluation) RecommendByItems(items []int, weights []float64, sim *mat.Dense, n int, rng *rand.Rand) ([]int, []float64, error) {
	return recommendByItems(items, weights, sim, n, rng, true)
}

func recommendByItems(items []int, weights []float64, sim *mat.Dense, n int, rng *rand.Rand, discardInputs bool) ([]int, []float64, error) {
	if len(items) != len(weights) {
		return nil, nil, fmt.Errorf("%d items with %d weights: %w", len(items), len(weights), ErrMisaligned)
	}
	rows, cols := sim.Dims()

	sums := make([]float64, cols)
	for i, item := range items {
		if item < 0 || item >= rows {
			return nil, nil, fmt.Errorf("item %d outside similarity matrix of %d rows: %w", item, rows, ErrInvalidIndex)
		}
		floats.AddScaled(sums, weights[i], sim.RawRowView(item))
	}

	var exclude map[int]struct{}
	if discardInputs {
		exclude = make(map[int]struct{}, len(items))
		for _, item := range items {
			exclude[item] = struct{}{}
		}
	}

	recs, err := rankExcluding(sums, exclude, items, n, rng)
	if err != nil {
		return nil, nil, err
	}

	scores := make([]float64, len(recs))
	if len(items) > 0 {
		for j, idx := range recs {
			scores[j] = sums[idx] / float64(len(items))
		}
	}
	return recs, scores, nil
}

// rankExcluding returns the n highest-scored indices not in exclude, in
// descending order, padded at the end with random picks from fallback.
func rankExcluding(scores []float64, exclude map[int]struct{}, fallback []int, n int, rng *rand.Rand) ([]int, error) {
	if n <= 0 {
		return []int{}, nil
	}

	order := ascendingOrder(scores)

	recs := make([]int, 0, n)
	for j := len(order) - 1; j >= 0 && len(recs) < n; j-- {
		if _, skip := exclude[order[j]]; skip {
			continue
		}
		recs = append(recs, order[j])
	}

	if missing := n - len(recs); missing > 0 {
		if len(fallback) == 0 {
			return nil, fmt.Errorf("need %d padding items but have no used items: %w", missing, ErrInsufficientData)
		}
		for ; missing > 0; missing-- {
			recs = append(recs, fallback[rng.Intn(len(fallback))])
		}
	}
	return recs, nil
}

// activityWeights returns the user's item ids and their chart weights.
func (e *Evaluation) activityWeights(user int, chart ScoresChart, p Partition) ([]int, []float64, error) {
	activity, err := e.data.UserActivity(user, p)
	if err != nil {
		return nil, nil, fmt.Errorf("user %d activity: %w", user, err)
	}

	items := make([]int, len(activity))
	weights := make([]float64, len(activity))
	for i, inter := range activity {
		w, err := chart.Weight(inter.Label)
		if err != nil {
			return nil, nil, fmt.Errorf("user %d, item %d: %w", user, inter.ItemID, err)
		}
		items[i] = inter.ItemID
		weights[i] = w
	}
	return items, weights, nil
}

// RecommendForUsers recommends n items to each user from the user's
// activity in partition p, weighted through chart. The result has one row of
// length n per user, aligned with users.
func (e *Evaluation) RecommendForUsers(ctx context.Context, users []int, sim *mat.Dense, n int, chart ScoresChart, p Partition) ([][]int, error) {
	recs, _, err := e.recommendForUsers(ctx, users, sim, n, chart, p, true)
	return recs, err
}

func (e *Evaluation) recommendForUsers(ctx context.Context, users []int, sim *mat.Dense, n int, chart ScoresChart, p Partition, discardInputs bool) ([][]int, [][]float64, error) {
	recs := make([][]int, len(users))
	scores := make([][]float64, len(users))

	err := e.parallel(ctx, len(users), func(_ context.Context, i int) error {
		items, weights, err := e.activityWeights(users[i], chart, p)
		if err != nil {
			return err
		}
		recs[i], scores[i], err = recommendByItems(items, weights, sim, n, e.SubjectRand(i), discardInputs)
		if err != nil {
			return fmt.Errorf("user %d: %w", users[i], err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return recs, scores, nil
}

// ascendingOrder returns the indices of values sorted ascending, ties in
// ascending index order.
func ascendingOrder(values []float64) []int {
	tmp := make([]float64, len(values))
	copy(tmp, values)
	order := make([]int, len(tmp))
	floats.ArgsortStable(tmp, order)
	return order
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
