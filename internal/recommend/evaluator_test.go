// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package recommend

import (
	"bytes"
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/seen/internal/logging"
)

func newTestEvaluator(t *testing.T, src *mockDataSource) *Evaluator {
	t.Helper()

	eval := newTestEvaluation(src, 2)
	static, err := NewItemSimilarityRecommender("static", &staticSource{key: "static", sim: exampleSim()}, eval, DefaultScoresChart())
	if err != nil {
		t.Fatal(err)
	}

	e := NewEvaluator(src, eval.Seed(), zerolog.Nop())
	e.Register(static)
	e.Register(NewPopularityRecommender("popularity", eval, zerolog.Nop()))
	e.Register(NewRandomRecommender("random", eval))
	return e
}

func TestCalcHitRate(t *testing.T) {
	src := newExampleSource()
	rec, err := NewItemSimilarityRecommender("static", &staticSource{key: "static", sim: exampleSim()}, newTestEvaluation(src, 2), DefaultScoresChart())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		n    int
		want float64
	}{
		{1, 2.0 / 3},
		{3, 1},
	}
	for _, tt := range tests {
		got, err := CalcHitRate(context.Background(), rec, src, tt.n)
		if err != nil {
			t.Fatal(err)
		}
		if !almostEqual(got, tt.want) {
			t.Errorf("CalcHitRate(n=%d) = %v, want %v", tt.n, got, tt.want)
		}
	}

	t.Run("requires split", func(t *testing.T) {
		noLOO := &mockDataSource{all: MustDataset(exampleInteractions())}
		if _, err := CalcHitRate(context.Background(), rec, noLOO, 1); !errors.Is(err, ErrLOONotPrepared) {
			t.Errorf("error = %v, want ErrLOONotPrepared", err)
		}
	})
}

func TestCalcMatchIndex(t *testing.T) {
	src := newExampleSource()
	rec, err := NewItemSimilarityRecommender("static", &staticSource{key: "static", sim: exampleSim()}, newTestEvaluation(src, 2), DefaultScoresChart())
	if err != nil {
		t.Fatal(err)
	}

	got, err := CalcMatchIndex(context.Background(), rec, src, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := (2/math.Sqrt(2) + 0.5) / 4
	if !almostEqual(got, want) {
		t.Errorf("CalcMatchIndex() = %v, want %v", got, want)
	}
}

func TestCalcNoveltyScore(t *testing.T) {
	src := newExampleSource()
	rec, err := NewItemSimilarityRecommender("static", &staticSource{key: "static", sim: exampleSim()}, newTestEvaluation(src, 2), DefaultScoresChart())
	if err != nil {
		t.Fatal(err)
	}

	got, err := CalcNoveltyScore(context.Background(), rec, src, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(got, 3.25) {
		t.Errorf("CalcNoveltyScore() = %v, want 3.25", got)
	}
}

func TestEvaluator_Evaluate(t *testing.T) {
	src := newExampleSource()
	src.names = map[int]string{0: "alpha", 1: "beta"}
	e := newTestEvaluator(t, src)

	if got := len(e.Recommenders()); got != 3 {
		t.Fatalf("Recommenders() = %d, want 3", got)
	}

	ctx := logging.ContextWithRunID(context.Background(), "run-123")
	report, err := e.Evaluate(ctx, EvaluateOptions{
		FindNearestTo:        []int{0},
		NNearest:             2,
		NearestCategoryMatch: true,
		RecommendFor:         []int{0, 2},
		NRecommend:           2,
		MatchIndexN:          1,
		HitRateN:             1,
		HitPositions:         true,
		NoveltyN:             1,
	})
	if err != nil {
		t.Fatal(err)
	}

	if report.RunID != "run-123" {
		t.Errorf("RunID = %q, want run-123", report.RunID)
	}
	if report.Seed != 7 {
		t.Errorf("Seed = %d, want 7", report.Seed)
	}
	if report.LOO == nil || report.LOO.Users != 3 || report.LOO.Excluded != 1 {
		t.Errorf("LOO = %+v, want 3 users and 1 excluded", report.LOO)
	}
	if report.FinishedAt.Before(report.StartedAt) {
		t.Error("FinishedAt before StartedAt")
	}
	if len(report.Recommenders) != 3 {
		t.Fatalf("got %d recommender reports, want 3", len(report.Recommenders))
	}

	static := report.Recommenders[0]
	if static.Name != "static" {
		t.Fatalf("first report = %q, want static", static.Name)
	}

	t.Run("nearest items", func(t *testing.T) {
		if len(static.Nearest) != 1 {
			t.Fatalf("Nearest = %+v", static.Nearest)
		}
		nearest := static.Nearest[0]
		if nearest.Name != "alpha" {
			t.Errorf("Name = %q, want alpha", nearest.Name)
		}
		if !slices.Equal(nearest.Neighbors, []int{1, 2}) {
			t.Errorf("Neighbors = %v, want [1 2]", nearest.Neighbors)
		}
		if !slices.Equal(nearest.NeighborNames, []string{"beta", "item-2"}) {
			t.Errorf("NeighborNames = %v", nearest.NeighborNames)
		}
		want := (1 / math.Sqrt(2)) / 2
		if nearest.CategoryMatch == nil || !almostEqual(*nearest.CategoryMatch, want) {
			t.Errorf("CategoryMatch = %v, want %v", nearest.CategoryMatch, want)
		}
	})

	t.Run("user recommendations", func(t *testing.T) {
		if len(static.Recommendations) != 2 {
			t.Fatalf("Recommendations = %+v", static.Recommendations)
		}
		for _, ur := range static.Recommendations {
			if len(ur.Items) != 2 || len(ur.Names) != 2 {
				t.Errorf("user %d: items %v names %v", ur.User, ur.Items, ur.Names)
			}
		}
	})

	t.Run("scores", func(t *testing.T) {
		if static.HitRate == nil || !almostEqual(*static.HitRate, 2.0/3) {
			t.Errorf("HitRate = %v, want 2/3", static.HitRate)
		}
		if static.HitPositions == nil || static.HitPositions.Hits != 2 {
			t.Errorf("HitPositions = %+v, want 2 hits", static.HitPositions)
		}
		if static.MatchIndex == nil || static.Novelty == nil {
			t.Error("MatchIndex or Novelty missing")
		}
		for _, rr := range report.Recommenders {
			if rr.HitRate == nil || *rr.HitRate < 0 || *rr.HitRate > 1 {
				t.Errorf("%s: hit rate %v outside [0, 1]", rr.Name, rr.HitRate)
			}
		}
	})

	t.Run("json report", func(t *testing.T) {
		var buf bytes.Buffer
		if err := report.WriteJSON(&buf); err != nil {
			t.Fatal(err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}
		if decoded["run_id"] != "run-123" {
			t.Errorf("run_id = %v", decoded["run_id"])
		}
		recs, ok := decoded["recommenders"].([]any)
		if !ok || len(recs) != 3 {
			t.Errorf("recommenders = %v", decoded["recommenders"])
		}
	})
}

func TestEvaluator_GeneratesRunID(t *testing.T) {
	e := newTestEvaluator(t, newExampleSource())

	report, err := e.Evaluate(context.Background(), EvaluateOptions{NoveltyN: 1})
	if err != nil {
		t.Fatal(err)
	}
	if report.RunID == "" {
		t.Error("RunID is empty")
	}
	if report.LOO != nil {
		t.Error("LOO summary present without hit rate")
	}
	for _, rr := range report.Recommenders {
		if rr.HitRate != nil || rr.MatchIndex != nil {
			t.Errorf("%s: unrequested metrics in report", rr.Name)
		}
	}
}

func TestEvaluator_MissingSplit(t *testing.T) {
	src := &mockDataSource{all: MustDataset(exampleInteractions())}
	e := newTestEvaluator(t, src)

	_, err := e.Evaluate(context.Background(), EvaluateOptions{HitRateN: 2})
	if !errors.Is(err, ErrLOONotPrepared) {
		t.Errorf("error = %v, want ErrLOONotPrepared", err)
	}
}
