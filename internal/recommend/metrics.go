// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package recommend

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// CategoryLookup returns the category IDs of an item.
type CategoryLookup interface {
	ItemCategories(itemID int) []string
}

// HitRate returns the fraction of users whose left-out item appears in
// their recommendation list. recs and leftOut are aligned by user order.
func HitRate(recs [][]int, leftOut []int) (float64, error) {
	if len(recs) != len(leftOut) {
		return 0, fmt.Errorf("%d recommendation rows for %d left-out items: %w", len(recs), len(leftOut), ErrMisaligned)
	}
	if len(leftOut) == 0 {
		return 0, nil
	}

	hits := 0
	for i, item := range leftOut {
		if slices.Contains(recs[i], item) {
			hits++
		}
	}
	return float64(hits) / float64(len(leftOut)), nil
}

// HitPositions returns the 0-based position of each user's left-out item in
// their recommendation list, or -1 when it was not recommended.
func HitPositions(recs [][]int, leftOut []int) ([]int, error) {
	if len(recs) != len(leftOut) {
		return nil, fmt.Errorf("%d recommendation rows for %d left-out items: %w", len(recs), len(leftOut), ErrMisaligned)
	}

	positions := make([]int, len(leftOut))
	for i, item := range leftOut {
		positions[i] = -1
		for pos, rec := range recs[i] {
			if rec == item {
				positions[i] = pos
				break
			}
		}
	}
	return positions, nil
}

// PositionSummary describes where hits landed in the recommendation lists.
type PositionSummary struct {
	Hits   int     `json:"hits"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

// SummarizePositions summarizes the hit positions, ignoring misses (-1).
// The zero summary is returned when there are no hits.
func SummarizePositions(positions []int) PositionSummary {
	var x []float64
	for _, p := range positions {
		if p >= 0 {
			x = append(x, float64(p))
		}
	}
	if len(x) == 0 {
		return PositionSummary{}
	}
	sort.Float64s(x)

	return PositionSummary{
		Hits:   len(x),
		Min:    x[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, x, nil),
		Median: stat.Quantile(0.5, stat.Empirical, x, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, x, nil),
		Max:    x[len(x)-1],
		Mean:   stat.Mean(x, nil),
	}
}

// NoveltyScore returns the mean novelty rank over all recommended slots.
//
// Items are ranked by ascending interaction count in data (ties by index)
// and the novelty rank is nItems minus that rank: the least popular item
// scores nItems, the most popular scores 1. Items unknown to data score
// nItems. An empty recommendation set scores 0.
func NoveltyScore(recs [][]int, data *Dataset) float64 {
	n := data.NumItems()
	ranks := PopularityRanks(data.ItemCounts())

	var total float64
	slots := 0
	for _, row := range recs {
		for _, item := range row {
			slots++
			if item < 0 || item >= n {
				total += float64(n)
				continue
			}
			total += float64(n) - ranks[item]
		}
	}
	if slots == 0 {
		return 0
	}
	return total / float64(slots)
}

// CategoryMatch returns the mean Ochiai coefficient between the categories
// of subject and those of each neighbor:
//
//	|S ∩ N| / sqrt(|S| * |N|)
//
// A neighbor without categories contributes 0. The result is 0 when the
// subject has no categories or there are no neighbors.
func CategoryMatch(subject int, neighbors []int, lookup CategoryLookup) float64 {
	subjectCats := toSet(lookup.ItemCategories(subject))
	if len(subjectCats) == 0 || len(neighbors) == 0 {
		return 0
	}

	var total float64
	for _, neighbor := range neighbors {
		neighborCats := toSet(lookup.ItemCategories(neighbor))
		if len(neighborCats) == 0 {
			continue
		}
		common := 0
		for c := range neighborCats {
			if _, ok := subjectCats[c]; ok {
				common++
			}
		}
		total += float64(common) / math.Sqrt(float64(len(subjectCats)*len(neighborCats)))
	}
	return total / float64(len(neighbors))
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
