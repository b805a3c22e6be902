// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package recommend

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// FindNearestUsers returns the nNeighbors nearest users to each subject in
// user embedding space, in descending similarity order, with the same
// selection discipline as ItemNeighbors. userEmb is (k x nUsers).
func (e *Evaluation) FindNearestUsers(ctx context.Context, users []int, userEmb *mat.Dense, nNeighbors int, simFunc SimilarityFunction) ([][]int, [][]float64, error) {
	k, nUsers := userEmb.Dims()
	if len(users) == 0 {
		return [][]int{}, [][]float64{}, nil
	}

	subjects := mat.NewDense(k, len(users), nil)
	for j, u := range users {
		if u < 0 || u >= nUsers {
			return nil, nil, fmt.Errorf("user %d outside embeddings of %d users: %w", u, nUsers, ErrInvalidIndex)
		}
		for r := 0; r < k; r++ {
			subjects.Set(r, j, userEmb.At(r, u))
		}
	}

	// Rows are subjects, columns all users.
	rows := simFunc.Against(userEmb, subjects)

	neighbors := make([][]int, len(users))
	values := make([][]float64, len(users))
	err := e.parallel(ctx, len(users), func(_ context.Context, i int) error {
		neighbors[i], values[i] = topNeighbors(rows.RawRowView(i), users[i], nNeighbors)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return neighbors, values, nil
}

// WeightItemsByUsers accumulates, for each subject i, the item weights
// contributed by the users in neighborSets[i] scaled by userSims[i].
//
// A neighbor's contribution is the chart-weighted mean, over the items the
// neighbor used, of the item itself (weight 1) plus its depth nearest items
// (weighted by item similarity). Contributions are summed per neighbor, so
// each neighbor adds at most its user similarity times one unit of mass per
// used item. The result has one row of length nItems per subject.
func (e *Evaluation) WeightItemsByUsers(ctx context.Context, neighborSets [][]int, userSims [][]float64, itemSim *mat.Dense, chart ScoresChart, depth int, p Partition) ([][]float64, error) {
	if len(neighborSets) != len(userSims) {
		return nil, fmt.Errorf("%d neighbor sets with %d similarity rows: %w", len(neighborSets), len(userSims), ErrMisaligned)
	}
	_, nItems := itemSim.Dims()

	weighted := make([][]float64, len(neighborSets))
	err := e.parallel(ctx, len(neighborSets), func(ctx context.Context, i int) error {
		if len(neighborSets[i]) != len(userSims[i]) {
			return fmt.Errorf("subject %d: %d neighbors with %d similarities: %w", i, len(neighborSets[i]), len(userSims[i]), ErrMisaligned)
		}
		acc := make([]float64, nItems)
		for j, neighbor := range neighborSets[i] {
			if err := ctx.Err(); err != nil {
				return err
			}
			contrib, err := e.neighborContribution(neighbor, itemSim, chart, depth, p)
			if err != nil {
				return err
			}
			floats.AddScaled(acc, userSims[i][j], contrib)
		}
		weighted[i] = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return weighted, nil
}

// neighborContribution computes one user's normalized item weight vector.
func (e *Evaluation) neighborContribution(user int, itemSim *mat.Dense, chart ScoresChart, depth int, p Partition) ([]float64, error) {
	rows, nItems := itemSim.Dims()
	contrib := make([]float64, nItems)

	items, weights, err := e.activityWeights(user, chart, p)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return contrib, nil
	}

	for i, item := range items {
		if item < 0 || item >= rows {
			return nil, fmt.Errorf("user %d item %d outside similarity matrix of %d rows: %w", user, item, rows, ErrInvalidIndex)
		}
		contrib[item] += weights[i]
		near, sims := topNeighbors(itemSim.RawRowView(item), item, depth)
		for j, idx := range near {
			contrib[idx] += weights[i] * sims[j]
		}
	}

	floats.Scale(1/float64(len(items)), contrib)
	return contrib, nil
}

// WeightItemBasedRecommendations accumulates, for each subject i, the
// top-depth item-based recommendation scores of every user in
// neighborSets[i] scaled by userSims[i]. Neighbors' own items are not
// discarded from their recommendations.
func (e *Evaluation) WeightItemBasedRecommendations(ctx context.Context, neighborSets [][]int, userSims [][]float64, itemSim *mat.Dense, chart ScoresChart, depth int, p Partition) ([][]float64, error) {
	if len(neighborSets) != len(userSims) {
		return nil, fmt.Errorf("%d neighbor sets with %d similarity rows: %w", len(neighborSets), len(userSims), ErrMisaligned)
	}
	_, nItems := itemSim.Dims()

	weighted := make([][]float64, len(neighborSets))
	for i, neighbors := range neighborSets {
		if len(neighbors) != len(userSims[i]) {
			return nil, fmt.Errorf("subject %d: %d neighbors with %d similarities: %w", i, len(neighbors), len(userSims[i]), ErrMisaligned)
		}
		recs, scores, err := e.recommendForUsers(ctx, neighbors, itemSim, depth, chart, p, false)
		if err != nil {
			return nil, err
		}
		acc := make([]float64, nItems)
		for j := range neighbors {
			for r, item := range recs[j] {
				acc[item] += scores[j][r] * userSims[i][j]
			}
		}
		weighted[i] = acc
	}
	return weighted, nil
}

// RecommendFromWeights ranks each subject's weight vector descending,
// excluding the items the user already used in partition p, padding with
// used items when too few candidates remain.
func (e *Evaluation) RecommendFromWeights(ctx context.Context, users []int, weighted [][]float64, n int, p Partition) ([][]int, error) {
	if len(users) != len(weighted) {
		return nil, fmt.Errorf("%d users with %d weight rows: %w", len(users), len(weighted), ErrMisaligned)
	}

	recs := make([][]int, len(users))
	err := e.parallel(ctx, len(users), func(_ context.Context, i int) error {
		activity, err := e.data.UserActivity(users[i], p)
		if err != nil {
			return fmt.Errorf("user %d activity: %w", users[i], err)
		}
		used := make([]int, len(activity))
		exclude := make(map[int]struct{}, len(activity))
		for j, inter := range activity {
			used[j] = inter.ItemID
			exclude[inter.ItemID] = struct{}{}
		}

		recs[i], err = rankExcluding(weighted[i], exclude, used, n, e.SubjectRand(i))
		if err != nil {
			return fmt.Errorf("user %d: %w", users[i], err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// UserBasedWeights runs the two-stage propagation pipeline for users: the
// neighbor stage at DepthNeighbors plus the subject's own stage at DepthUser.
func (e *Evaluation) UserBasedWeights(ctx context.Context, users []int, userEmb *mat.Dense, itemSim *mat.Dense, simFunc SimilarityFunction, chart ScoresChart, cfg PropagationConfig, p Partition) ([][]float64, error) {
	nearest, userSims, err := e.FindNearestUsers(ctx, users, userEmb, cfg.NNeighbors, simFunc)
	if err != nil {
		return nil, fmt.Errorf("find nearest users: %w", err)
	}

	weigh := e.WeightItemsByUsers
	if cfg.Mode == PropagateRecommendations {
		weigh = e.WeightItemBasedRecommendations
	}

	weighted, err := weigh(ctx, nearest, userSims, itemSim, chart, cfg.DepthNeighbors, p)
	if err != nil {
		return nil, fmt.Errorf("weigh neighbor items: %w", err)
	}

	self := make([][]int, len(users))
	ones := make([][]float64, len(users))
	for i, u := range users {
		self[i] = []int{u}
		ones[i] = []float64{1}
	}
	own, err := weigh(ctx, self, ones, itemSim, chart, cfg.DepthUser, p)
	if err != nil {
		return nil, fmt.Errorf("weigh own items: %w", err)
	}

	for i := range weighted {
		floats.Add(weighted[i], own[i])
	}
	return weighted, nil
}
