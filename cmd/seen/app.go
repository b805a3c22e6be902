// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/seen/internal/config"
	"github.com/tomtom215/seen/internal/recommend"
	"github.com/tomtom215/seen/internal/recommend/algorithms"
	"github.com/tomtom215/seen/internal/recommend/dataset"
	"github.com/tomtom215/seen/internal/recommend/similarity"
	"github.com/tomtom215/seen/internal/recommend/storage"
)

var (
	// errUnknownRecommender is returned when a flag names a recommender
	// that is not configured.
	errUnknownRecommender = errors.New("unknown recommender")

	errSnapshotsDisabled = errors.New("snapshots.enabled is false")
)

// app holds the components shared by all commands.
type app struct {
	handler *dataset.Handler
	eval    *recommend.Evaluation
	store   *storage.SnapshotStore
	logger  zerolog.Logger
}

// newApp loads the data and opens the snapshot store if enabled.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	handler, err := loadHandler(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &app{
		handler: handler,
		eval: recommend.NewEvaluation(handler, recommend.EvaluationConfig{
			Seed:    cfg.Evaluation.Seed,
			Workers: cfg.Evaluation.Workers,
		}, logger),
		logger: logger,
	}

	if cfg.Snapshots.Enabled {
		store, err := storage.OpenSnapshotStore(cfg.Snapshots.Path)
		if err != nil {
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
		a.store = store
		logger.Info().Str("path", cfg.Snapshots.Path).Msg("snapshot store opened")
	}

	return a, nil
}

// Close releases the snapshot store.
func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// loadHandler reads the configured data files.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func loadHandler(cfg *config.Config, logger zerolog.Logger) (*dataset.Handler, error) {
	var (
		data      *recommend.Dataset
		itemNames []string
	)

	if cfg.Data.Events != "" {
		events, err := dataset.LoadEventsFile(cfg.Data.Events)
		if err != nil {
			return nil, fmt.Errorf("load events: %w", err)
		}
		res, err := dataset.Preprocess(events, dataset.Options{
			MinPreviews: cfg.Data.MinPreviews,
			ItemFilter:  itemFilter(cfg.Data),
		})
		if err != nil {
			return nil, fmt.Errorf("preprocess events: %w", err)
		}
		data, itemNames = res.Data, res.Items
		logger.Info().
			Str("path", cfg.Data.Events).
			Int("events", res.Stats.Events).
			Int("duplicates", res.Stats.Duplicates).
			Int("filtered_items", res.Stats.FilteredItems).
			Int("filtered_users", res.Stats.FilteredUsers).
			Int("interactions", res.Stats.Interactions).
			Msg("events preprocessed")
	} else {
		d, err := dataset.LoadInteractionsFile(cfg.Data.Interactions)
		if err != nil {
			return nil, fmt.Errorf("load interactions: %w", err)
		}
		data = d
		logger.Info().
			Str("path", cfg.Data.Interactions).
			Int("interactions", data.Len()).
			Msg("interactions loaded")
	}

	if cfg.Data.ItemNames != "" {
		names, err := dataset.LoadItemNamesFile(cfg.Data.ItemNames)
		if err != nil {
			return nil, fmt.Errorf("load item names: %w", err)
		}
		itemNames = names
	}

	var categories map[string][]string
	if cfg.Data.Categories != "" {
		c, err := dataset.LoadCategoriesFile(cfg.Data.Categories)
		if err != nil {
			return nil, fmt.Errorf("load categories: %w", err)
		}
		categories = c
	}

	logger.Info().
		Int("users", data.NumUsers()).
		Int("items", data.NumItems()).
		Int("named_items", len(itemNames)).
		Int("categorized_items", len(categories)).
		Msg("dataset ready")

	return dataset.NewHandler(data, dataset.Config{
		Seed:       cfg.Evaluation.Seed,
		ItemNames:  itemNames,
		Categories: categories,
	}, logger), nil
}

// itemFilter builds the event item filter from the variant settings.
func itemFilter(d config.DataConfig) func(string) bool {
	switch {
	case len(d.Variants) > 0:
		return dataset.VariantFilter(d.Variants...)
	case len(d.ExcludeVariants) > 0:
		return dataset.ExcludeVariants(d.ExcludeVariants...)
	default:
		return nil
	}
}

// selectRecommenders returns the configured recommenders named in names, in
// configuration order. Empty names selects all.
func selectRecommenders(cfg *config.Config, names []string) ([]config.RecommenderConfig, error) {
	if len(names) == 0 {
		return cfg.Recommenders, nil
	}
	for _, name := range names {
		if !slices.ContainsFunc(cfg.Recommenders, func(rc config.RecommenderConfig) bool { return rc.Name == name }) {
			return nil, fmt.Errorf("%q: %w", name, errUnknownRecommender)
		}
	}
	var out []config.RecommenderConfig
	for _, rc := range cfg.Recommenders {
		if slices.Contains(names, rc.Name) {
			out = append(out, rc)
		}
	}
	return out, nil
}

// findRecommender returns the named recommender. An empty name picks the
// first one backed by a similarity matrix.
func findRecommender(cfg *config.Config, name string) (config.RecommenderConfig, error) {
	for _, rc := range cfg.Recommenders {
		if name == "" && rc.Kind != config.KindRandom {
			return rc, nil
		}
		if name != "" && rc.Name == name {
			return rc, nil
		}
	}
	if name == "" {
		return config.RecommenderConfig{}, fmt.Errorf("no recommender with item similarities configured: %w", errUnknownRecommender)
	}
	return config.RecommenderConfig{}, fmt.Errorf("%q: %w", name, errUnknownRecommender)
}

// newProvider creates the embedding provider of a model-backed recommender.
func newProvider(rc *config.RecommenderConfig) (recommend.EmbeddingProvider, error) {
	zero := algorithms.DefaultZeroReplacement
	if rc.ZeroReplacement != nil {
		zero = *rc.ZeroReplacement
	}

	switch rc.Algorithm {
	case config.AlgorithmItemsSVD:
		return algorithms.NewItemsSVD(zero), nil
	case config.AlgorithmItemsUsersSVD:
		return algorithms.NewItemsUsersSVD(zero), nil
	case config.AlgorithmRandom:
		return algorithms.NewRandomEmbedding(rc.Seed), nil
	case config.AlgorithmALS:
		alsCfg := algorithms.DefaultALSConfig()
		if rc.ALS.Iterations > 0 {
			alsCfg.NumIterations = rc.ALS.Iterations
		}
		if rc.ALS.Regularization > 0 {
			alsCfg.Regularization = rc.ALS.Regularization
		}
		if rc.ALS.Alpha > 0 {
			alsCfg.Alpha = rc.ALS.Alpha
		}
		if rc.ALS.Workers > 0 {
			alsCfg.NumWorkers = rc.ALS.Workers
		}
		if rc.Seed != 0 {
			alsCfg.Seed = rc.Seed
		}
		return algorithms.NewALS(alsCfg), nil
	case config.AlgorithmBPR:
		bprCfg := algorithms.DefaultBPRConfig()
		if rc.BPR.Iterations > 0 {
			bprCfg.NumIterations = rc.BPR.Iterations
		}
		if rc.BPR.LearningRate > 0 {
			bprCfg.LearningRate = rc.BPR.LearningRate
		}
		if rc.BPR.Regularization > 0 {
			bprCfg.Regularization = rc.BPR.Regularization
		}
		if rc.BPR.NegativeSamples > 0 {
			bprCfg.NumNegativeSamples = rc.BPR.NegativeSamples
		}
		if rc.BPR.ShownNegativeRate != nil {
			bprCfg.ShownNegativeRate = *rc.BPR.ShownNegativeRate
		}
		if rc.Seed != 0 {
			bprCfg.Seed = rc.Seed
		}
		return algorithms.NewBPR(bprCfg), nil
	default:
		return nil, fmt.Errorf("recommender %s: unknown algorithm %q", rc.Name, rc.Algorithm)
	}
}

// newModel creates the embedding model of a model-backed recommender.
func (a *app) newModel(rc *config.RecommenderConfig) (*recommend.Model, error) {
	provider, err := newProvider(rc)
	if err != nil {
		return nil, err
	}
	var opts []recommend.ModelOption
	if a.store != nil {
		opts = append(opts, recommend.WithSnapshotStore(a.store))
	}
	return recommend.NewModel(provider, rc.K, similarity.NewCosine(rc.K), a.logger, opts...), nil
}

// similaritySource returns the item similarity source of a recommender.
func (a *app) similaritySource(rc *config.RecommenderConfig) (recommend.SimilaritySource, error) {
	switch rc.Kind {
	case config.KindItem, config.KindUser:
		return a.newModel(rc)
	case config.KindPopularity:
		return recommend.NewPopularityModel(a.logger), nil
	default:
		return nil, fmt.Errorf("recommender %s: kind %q has no item similarities", rc.Name, rc.Kind)
	}
}

// newRecommender builds the recommender described by rc.
func (a *app) newRecommender(rc *config.RecommenderConfig) (recommend.Recommender, error) {
	switch rc.Kind {
	case config.KindItem:
		model, err := a.newModel(rc)
		if err != nil {
			return nil, err
		}
		return recommend.NewItemSimilarityRecommender(rc.Name, model, a.eval, scoresChart(rc))
	case config.KindUser:
		model, err := a.newModel(rc)
		if err != nil {
			return nil, err
		}
		return recommend.NewUserBasedRecommender(rc.Name, model, a.eval, scoresChart(rc), propagationConfig(rc))
	case config.KindPopularity:
		return recommend.NewPopularityRecommender(rc.Name, a.eval, a.logger), nil
	case config.KindRandom:
		return recommend.NewRandomRecommender(rc.Name, a.eval), nil
	default:
		return nil, fmt.Errorf("recommender %s: unknown kind %q", rc.Name, rc.Kind)
	}
}

// scoresChart returns the configured chart or the default one.
func scoresChart(rc *config.RecommenderConfig) recommend.ScoresChart {
	if len(rc.ScoresChart) == 0 {
		return recommend.DefaultScoresChart()
	}
	return recommend.ScoresChart(rc.ScoresChart)
}

// propagationConfig overrides the default propagation with the settings
// present in rc.
func propagationConfig(rc *config.RecommenderConfig) recommend.PropagationConfig {
	p := recommend.DefaultPropagationConfig()
	if rc.NNeighbors != nil {
		p.NNeighbors = *rc.NNeighbors
	}
	if rc.DepthNeighbors != nil {
		p.DepthNeighbors = *rc.DepthNeighbors
	}
	if rc.DepthUser != nil {
		p.DepthUser = *rc.DepthUser
	}
	if rc.Propagation != "" {
		p.Mode = recommend.PropagationMode(rc.Propagation)
	}
	return p
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
