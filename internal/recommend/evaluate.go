// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package recommend

import (
	"context"
	"fmt"
)

// LOORecommendations prepares the leave-one-out split and recommends n items
// to every participating user from the training partition.
func LOORecommendations(ctx context.Context, r Recommender, src DataSource, n int) ([][]int, *LOOSplit, error) {
	split, err := src.PrepareLOO()
	if err != nil {
		return nil, nil, fmt.Errorf("prepare leave-one-out split: %w", err)
	}

	recs, err := r.RecommendForUsers(ctx, split.Users, n, PartitionLOO)
	if err != nil {
		return nil, nil, err
	}
	return recs, split, nil
}

// CalcHitRate returns the leave-one-out hit rate of r at list length n.
func CalcHitRate(ctx context.Context, r Recommender, src DataSource, n int) (float64, error) {
	recs, split, err := LOORecommendations(ctx, r, src, n)
	if err != nil {
		return 0, err
	}
	return HitRate(recs, split.LeftOut)
}

// CalcMatchIndex returns the mean category match between every item and its
// n nearest items according to r.
func CalcMatchIndex(ctx context.Context, r Recommender, src DataSource, n int) (float64, error) {
	nItems, err := src.NumItems(PartitionAll)
	if err != nil {
		return 0, err
	}
	if nItems == 0 {
		return 0, nil
	}

	items := make([]int, nItems)
	for i := range items {
		items[i] = i
	}

	neighbors, _, err := r.RecommendForItems(ctx, items, n)
	if err != nil {
		return 0, err
	}

	var total float64
	for i, item := range items {
		total += CategoryMatch(item, neighbors[i], src)
	}
	return total / float64(nItems), nil
}

// CalcNoveltyScore returns the novelty of n recommendations for every user
// of the full dataset.
func CalcNoveltyScore(ctx context.Context, r Recommender, src DataSource, n int) (float64, error) {
	users, err := src.UserIDs(PartitionAll)
	if err != nil {
		return 0, err
	}
	data, err := src.Data(PartitionAll)
	if err != nil {
		return 0, err
	}

	recs, err := r.RecommendForUsers(ctx, users, n, PartitionAll)
	if err != nil {
		return 0, err
	}
	return NoveltyScore(recs, data), nil
}
