// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package recommend

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"slices"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestItemNeighbors(t *testing.T) {
	eval := newTestEvaluation(newExampleSource(), 2)
	ctx := context.Background()

	t.Run("descending without self", func(t *testing.T) {
		neighbors, sims, err := eval.ItemNeighbors(ctx, []int{0, 1, 2, 3}, exampleSim(), 2)
		if err != nil {
			t.Fatal(err)
		}
		want := [][]int{{1, 2}, {0, 2}, {0, 1}, {0, 1}}
		wantSims := [][]float64{{0.9, 0.8}, {0.9, 0.5}, {0.8, 0.5}, {0.7, 0.4}}
		for i := range want {
			if !slices.Equal(neighbors[i], want[i]) {
				t.Errorf("subject %d neighbors = %v, want %v", i, neighbors[i], want[i])
			}
			if !almostEqualSlices(sims[i], wantSims[i]) {
				t.Errorf("subject %d sims = %v, want %v", i, sims[i], wantSims[i])
			}
		}
	})

	t.Run("subject never in its own list", func(t *testing.T) {
		neighbors, _, err := eval.ItemNeighbors(ctx, []int{0, 1, 2, 3}, exampleSim(), 3)
		if err != nil {
			t.Fatal(err)
		}
		for i, row := range neighbors {
			if len(row) != 3 {
				t.Errorf("subject %d: %d neighbors, want 3", i, len(row))
			}
			if slices.Contains(row, i) {
				t.Errorf("subject %d appears in its own neighbors %v", i, row)
			}
		}
	})

	t.Run("row not maximal at subject drops lowest", func(t *testing.T) {
		ranks := mat.NewDense(4, 4, nil)
		for i := 0; i < 4; i++ {
			ranks.SetRow(i, []float64{0, 1, 2, 3})
		}
		neighbors, _, err := eval.ItemNeighbors(ctx, []int{0}, ranks, 2)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(neighbors[0], []int{3, 2}) {
			t.Errorf("neighbors = %v, want [3 2]", neighbors[0])
		}
	})

	t.Run("ties are stable", func(t *testing.T) {
		flat := mat.NewDense(4, 4, nil)
		for i := 0; i < 4; i++ {
			flat.SetRow(i, []float64{1, 1, 1, 1})
		}
		first, _, err := eval.ItemNeighbors(ctx, []int{1}, flat, 2)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(first[0], []int{3, 2}) {
			t.Errorf("neighbors = %v, want [3 2]", first[0])
		}
	})

	t.Run("zero neighbors", func(t *testing.T) {
		neighbors, sims, err := eval.ItemNeighbors(ctx, []int{0, 1}, exampleSim(), 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(neighbors) != 2 || len(neighbors[0]) != 0 || len(sims[1]) != 0 {
			t.Errorf("neighbors = %v, sims = %v; want empty rows", neighbors, sims)
		}
	})

	t.Run("n larger than catalog", func(t *testing.T) {
		neighbors, _, err := eval.ItemNeighbors(ctx, []int{2}, exampleSim(), 10)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(neighbors[0], []int{0, 1, 3}) {
			t.Errorf("neighbors = %v, want [0 1 3]", neighbors[0])
		}
	})

	t.Run("subject out of range", func(t *testing.T) {
		_, _, err := eval.ItemNeighbors(ctx, []int{4}, exampleSim(), 2)
		if !errors.Is(err, ErrInvalidIndex) {
			t.Errorf("error = %v, want ErrInvalidIndex", err)
		}
	})
}

func TestRecommendByItems(t *testing.T) {
	eval := newTestEvaluation(newExampleSource(), 1)
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name       string
		items      []int
		weights    []float64
		n          int
		want       []int
		wantScores []float64
	}{
		{"single item top 1", []int{1}, []float64{1}, 1, []int{0}, []float64{0.9}},
		{"single item top 2", []int{1}, []float64{1}, 2, []int{0, 2}, []float64{0.9, 0.5}},
		{"weighted pair", []int{0, 3}, []float64{1, 2}, 2, []int{1, 2}, []float64{0.85, 0.6}},
		{"zero n", []int{1}, []float64{1}, 0, []int{}, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, scores, err := eval.RecommendByItems(tt.items, tt.weights, exampleSim(), tt.n, rng)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("recs = %v, want %v", got, tt.want)
			}
			if !almostEqualSlices(scores, tt.wantScores) {
				t.Errorf("scores = %v, want %v", scores, tt.wantScores)
			}
		})
	}

	t.Run("pads with used items", func(t *testing.T) {
		items := []int{0, 1, 2}
		got, _, err := eval.RecommendByItems(items, []float64{1, 1, 1}, exampleSim(), 4, rand.New(rand.NewSource(3)))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 4 || got[0] != 3 {
			t.Fatalf("recs = %v, want 4 items starting with 3", got)
		}
		for _, item := range got[1:] {
			if !slices.Contains(items, item) {
				t.Errorf("padding item %d not among used items %v", item, items)
			}
		}
	})

	t.Run("padding is seeded", func(t *testing.T) {
		items := []int{0, 1, 2, 3}
		a, _, err := eval.RecommendByItems(items, []float64{1, 1, 1, 1}, exampleSim(), 6, rand.New(rand.NewSource(11)))
		if err != nil {
			t.Fatal(err)
		}
		b, _, err := eval.RecommendByItems(items, []float64{1, 1, 1, 1}, exampleSim(), 6, rand.New(rand.NewSource(11)))
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(a, b) {
			t.Errorf("same seed gave %v and %v", a, b)
		}
	})

	t.Run("nothing to pad with", func(t *testing.T) {
		_, _, err := eval.RecommendByItems(nil, nil, exampleSim(), 5, rng)
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("error = %v, want ErrInsufficientData", err)
		}
	})

	t.Run("misaligned weights", func(t *testing.T) {
		_, _, err := eval.RecommendByItems([]int{0, 1}, []float64{1}, exampleSim(), 1, rng)
		if !errors.Is(err, ErrMisaligned) {
			t.Errorf("error = %v, want ErrMisaligned", err)
		}
	})

	t.Run("item out of range", func(t *testing.T) {
		_, _, err := eval.RecommendByItems([]int{7}, []float64{1}, exampleSim(), 1, rng)
		if !errors.Is(err, ErrInvalidIndex) {
			t.Errorf("error = %v, want ErrInvalidIndex", err)
		}
	})

	t.Run("does not modify similarities", func(t *testing.T) {
		sim := exampleSim()
		before := mat.DenseCopyOf(sim)
		if _, _, err := eval.RecommendByItems([]int{0, 2}, []float64{2, 1}, sim, 2, rng); err != nil {
			t.Fatal(err)
		}
		if !mat.Equal(sim, before) {
			t.Error("similarity matrix was modified")
		}
	})
}

func TestRecommendForUsers(t *testing.T) {
	src := &mockDataSource{all: MustDataset([]Interaction{
		{UserID: 0, ItemID: 1, Label: LabelSelected},
		{UserID: 1, ItemID: 0, Label: LabelSelected},
		{UserID: 1, ItemID: 3, Label: LabelShown},
	})}
	ctx := context.Background()

	t.Run("excludes used items", func(t *testing.T) {
		eval := newTestEvaluation(src, 2)
		recs, err := eval.RecommendForUsers(ctx, []int{0, 1}, exampleSim(), 2, DefaultScoresChart(), PartitionAll)
		if err != nil {
			t.Fatal(err)
		}
		want := [][]int{{0, 2}, {1, 2}}
		if !reflect.DeepEqual(recs, want) {
			t.Errorf("recs = %v, want %v", recs, want)
		}
	})

	t.Run("unmapped label fails fast", func(t *testing.T) {
		eval := newTestEvaluation(src, 2)
		_, err := eval.RecommendForUsers(ctx, []int{1}, exampleSim(), 2, ScoresChart{"1": 1}, PartitionAll)
		if !errors.Is(err, ErrUnmappedLabel) {
			t.Errorf("error = %v, want ErrUnmappedLabel", err)
		}
	})

	t.Run("unknown partition", func(t *testing.T) {
		eval := newTestEvaluation(src, 2)
		_, err := eval.RecommendForUsers(ctx, []int{0}, exampleSim(), 2, DefaultScoresChart(), Partition("test"))
		if !errors.Is(err, ErrUnknownPartition) {
			t.Errorf("error = %v, want ErrUnknownPartition", err)
		}
	})

	t.Run("independent of worker count", func(t *testing.T) {
		var interactions []Interaction
		for u := 0; u < 40; u++ {
			for i := 0; i < 4; i++ {
				if i == u%4 {
					continue
				}
				interactions = append(interactions, Interaction{UserID: u, ItemID: i, Label: Label(i % 2)})
			}
		}
		dense := &mockDataSource{all: MustDataset(interactions)}
		users := dense.all.UserIDs()

		serial, err := newTestEvaluation(dense, 1).RecommendForUsers(ctx, users, exampleSim(), 6, DefaultScoresChart(), PartitionAll)
		if err != nil {
			t.Fatal(err)
		}
		parallel, err := newTestEvaluation(dense, 8).RecommendForUsers(ctx, users, exampleSim(), 6, DefaultScoresChart(), PartitionAll)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(serial, parallel) {
			t.Error("results differ between 1 and 8 workers")
		}
		for i, row := range serial {
			if len(row) != 6 {
				t.Errorf("user %d: %d recommendations, want 6", users[i], len(row))
			}
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		eval := newTestEvaluation(src, 2)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := eval.RecommendForUsers(cctx, []int{0, 1}, exampleSim(), 2, DefaultScoresChart(), PartitionAll)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestSubjectSeed(t *testing.T) {
	if subjectSeed(1, 0) == subjectSeed(1, 1) {
		t.Error("adjacent positions share a seed")
	}
	if subjectSeed(1, 5) == subjectSeed(2, 5) {
		t.Error("different base seeds share a subject seed")
	}
	if subjectSeed(9, 3) != subjectSeed(9, 3) {
		t.Error("subject seed is not deterministic")
	}
}
