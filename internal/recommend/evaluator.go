// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package recommend

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/seen/internal/logging"
	"github.com/tomtom215/seen/internal/metrics"
)

// ItemNamer resolves item indices to display names.
type ItemNamer interface {
	ItemName(itemID int) string
}

// EvaluateOptions selects which evaluations a run performs. A zero n skips
// the corresponding metric.
type EvaluateOptions struct {
	// FindNearestTo lists items whose nearest items are reported.
	FindNearestTo []int
	NNearest      int

	// NearestCategoryMatch adds the category match of each neighbor list.
	NearestCategoryMatch bool

	// RecommendFor lists users whose recommendations are reported.
	RecommendFor []int
	NRecommend   int

	MatchIndexN int
	HitRateN    int

	// HitPositions adds a summary of where hits landed in the lists.
	HitPositions bool

	NoveltyN int
}

// Report is the result of an evaluation run.
type Report struct {
	RunID        string              `json:"run_id"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   time.Time           `json:"finished_at"`
	Seed         int64               `json:"seed"`
	LOO          *LOOSummary         `json:"loo,omitempty"`
	Recommenders []RecommenderReport `json:"recommenders"`
}

// LOOSummary describes the leave-one-out split used for hit rates.
type LOOSummary struct {
	Users    int `json:"users"`
	Excluded int `json:"excluded"`
}

// RecommenderReport holds the results of one recommender.
type RecommenderReport struct {
	Name            string                `json:"name"`
	Nearest         []NearestItems        `json:"nearest,omitempty"`
	Recommendations []UserRecommendations `json:"recommendations,omitempty"`
	MatchIndex      *float64              `json:"match_index,omitempty"`
	HitRate         *float64              `json:"hit_rate,omitempty"`
	HitPositions    *PositionSummary      `json:"hit_positions,omitempty"`
	Novelty         *float64              `json:"novelty,omitempty"`
}

// NearestItems lists the nearest items of one item.
type NearestItems struct {
	Item          int       `json:"item"`
	Name          string    `json:"name,omitempty"`
	Neighbors     []int     `json:"neighbors"`
	NeighborNames []string  `json:"neighbor_names,omitempty"`
	Similarities  []float64 `json:"similarities"`
	CategoryMatch *float64  `json:"category_match,omitempty"`
}

// UserRecommendations lists the recommendations for one user.
type UserRecommendations struct {
	User  int      `json:"user"`
	Items []int    `json:"items"`
	Names []string `json:"names,omitempty"`
}

// Evaluator drives registered recommenders over a shared data source.
// It is safe for concurrent use.
type Evaluator struct {
	src    DataSource
	seed   int64
	namer  ItemNamer
	logger zerolog.Logger

	recommenders []Recommender
	mu           sync.RWMutex
}

// NewEvaluator creates an evaluator over src. seed is recorded in reports.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEvaluator(src DataSource, seed int64, logger zerolog.Logger) *Evaluator {
	e := &Evaluator{
		src:    src,
		seed:   seed,
		logger: logging.WithComponent(logger, "evaluator"),
	}
	if namer, ok := src.(ItemNamer); ok {
		e.namer = namer
	}
	return e
}

// Register adds a recommender to the evaluation.
func (e *Evaluator) Register(r Recommender) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.recommenders = append(e.recommenders, r)
	e.logger.Info().
		Str("recommender", r.Name()).
		Msg("registered recommender")
}

// Recommenders returns the registered recommenders in registration order.
func (e *Evaluator) Recommenders() []Recommender {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Recommender, len(e.recommenders))
	copy(out, e.recommenders)
	return out
}

// Evaluate runs the selected evaluations for every registered recommender.
// The run ID is taken from ctx or generated.
//
//nolint:gocritic // hugeParam: opts passed by value for immutability
func (e *Evaluator) Evaluate(ctx context.Context, opts EvaluateOptions) (*Report, error) {
	runID := logging.RunIDFromContext(ctx)
	if runID == "" {
		runID = logging.GenerateRunID()
		ctx = logging.ContextWithRunID(ctx, runID)
	}
	logger := logging.WithRunID(ctx, e.logger)

	report := &Report{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Seed:      e.seed,
	}

	if opts.HitRateN > 0 {
		split, err := e.src.PrepareLOO()
		if err != nil {
			return nil, fmt.Errorf("prepare leave-one-out split: %w", err)
		}
		report.LOO = &LOOSummary{Users: len(split.Users), Excluded: split.Excluded}
		logger.Info().
			Int("users", len(split.Users)).
			Int("excluded", split.Excluded).
			Msg("leave-one-out split ready")
	}

	for _, r := range e.Recommenders() {
		rlog := logger.With().Str("recommender", r.Name()).Logger()
		rr, err := e.evaluateRecommender(ctx, r, opts, rlog)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", r.Name(), err)
		}
		report.Recommenders = append(report.Recommenders, *rr)
	}

	report.FinishedAt = time.Now().UTC()
	logger.Info().
		Int("recommenders", len(report.Recommenders)).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("evaluation complete")

	return report, nil
}

//nolint:gocritic // hugeParam: opts passed by value for immutability
func (e *Evaluator) evaluateRecommender(ctx context.Context, r Recommender, opts EvaluateOptions, logger zerolog.Logger) (*RecommenderReport, error) {
	rr := &RecommenderReport{Name: r.Name()}

	if len(opts.FindNearestTo) > 0 && opts.NNearest > 0 {
		nearest, err := e.nearestItems(ctx, r, opts)
		if err != nil {
			return nil, err
		}
		rr.Nearest = nearest
	}

	if len(opts.RecommendFor) > 0 && opts.NRecommend > 0 {
		recs, err := r.RecommendForUsers(ctx, opts.RecommendFor, opts.NRecommend, PartitionAll)
		if err != nil {
			return nil, fmt.Errorf("recommend for users: %w", err)
		}
		for i, user := range opts.RecommendFor {
			rr.Recommendations = append(rr.Recommendations, UserRecommendations{
				User:  user,
				Items: recs[i],
				Names: e.names(recs[i]),
			})
		}
	}

	if opts.MatchIndexN > 0 {
		score, err := e.timed(r.Name(), "match_index", func() (float64, error) {
			return CalcMatchIndex(ctx, r, e.src, opts.MatchIndexN)
		})
		if err != nil {
			return nil, fmt.Errorf("match index: %w", err)
		}
		rr.MatchIndex = &score
		logger.Info().Int("n", opts.MatchIndexN).Float64("match_index", score).Msg("category match index")
	}

	if opts.HitRateN > 0 {
		var positions []int
		score, err := e.timed(r.Name(), "hit_rate", func() (float64, error) {
			recs, split, err := LOORecommendations(ctx, r, e.src, opts.HitRateN)
			if err != nil {
				return 0, err
			}
			if opts.HitPositions {
				if positions, err = HitPositions(recs, split.LeftOut); err != nil {
					return 0, err
				}
			}
			return HitRate(recs, split.LeftOut)
		})
		if err != nil {
			return nil, fmt.Errorf("hit rate: %w", err)
		}
		rr.HitRate = &score
		if opts.HitPositions {
			summary := SummarizePositions(positions)
			rr.HitPositions = &summary
		}
		logger.Info().Int("n", opts.HitRateN).Float64("hit_rate", score).Msg("hit rate")
	}

	if opts.NoveltyN > 0 {
		score, err := e.timed(r.Name(), "novelty", func() (float64, error) {
			return CalcNoveltyScore(ctx, r, e.src, opts.NoveltyN)
		})
		if err != nil {
			return nil, fmt.Errorf("novelty: %w", err)
		}
		rr.Novelty = &score
		logger.Info().Int("n", opts.NoveltyN).Float64("novelty", score).Msg("novelty score")
	}

	return rr, nil
}

//nolint:gocritic // hugeParam: opts passed by value for immutability
func (e *Evaluator) nearestItems(ctx context.Context, r Recommender, opts EvaluateOptions) ([]NearestItems, error) {
	neighbors, sims, err := r.RecommendForItems(ctx, opts.FindNearestTo, opts.NNearest)
	if err != nil {
		return nil, fmt.Errorf("recommend for items: %w", err)
	}

	out := make([]NearestItems, len(opts.FindNearestTo))
	for i, item := range opts.FindNearestTo {
		out[i] = NearestItems{
			Item:          item,
			Name:          e.name(item),
			Neighbors:     neighbors[i],
			NeighborNames: e.names(neighbors[i]),
			Similarities:  sims[i],
		}
		if opts.NearestCategoryMatch {
			match := CategoryMatch(item, neighbors[i], e.src)
			out[i].CategoryMatch = &match
		}
	}
	return out, nil
}

// timed runs fn and records its score and duration.
func (e *Evaluator) timed(recommender, metric string, fn func() (float64, error)) (float64, error) {
	start := time.Now()
	score, err := fn()
	if err != nil {
		return 0, err
	}
	metrics.RecordEvaluation(recommender, metric, score, time.Since(start))
	return score, nil
}

func (e *Evaluator) name(item int) string {
	if e.namer == nil {
		return ""
	}
	return e.namer.ItemName(item)
}

func (e *Evaluator) names(items []int) []string {
	if e.namer == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = e.namer.ItemName(item)
	}
	return out
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
