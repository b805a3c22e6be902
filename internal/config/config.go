// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package config

// Config holds all configuration of the seen CLI.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values for every optional setting
//  2. Config File: optional YAML file (seen.yaml)
//  3. Environment Variables: SEEN_* overrides for scalar settings
//
// Example:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	data, err := dataset.LoadInteractionsFile(cfg.Data.Interactions)
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Logging      LoggingConfig       `koanf:"logging"`
	Data         DataConfig          `koanf:"data"`
	Evaluation   EvaluationConfig    `koanf:"evaluation"`
	Recommenders []RecommenderConfig `koanf:"recommenders" validate:"required,min=1,dive"`
	Snapshots    SnapshotConfig      `koanf:"snapshots"`
	Metrics      MetricsConfig       `koanf:"metrics"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - SEEN_LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - SEEN_LOG_FORMAT: json, console (default: console)
//   - SEEN_LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	// Level is the minimum log level.
	Level string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`

	// Format is the output format. Console suits interactive runs, JSON suits
	// log shipping.
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// DataConfig locates the input files.
//
// Exactly one of Interactions and Events must be set. Interactions is a
// prepared user_index,item_index,is_selected CSV. Events is a raw
// id_for_vendor,template_name,is_selected export that is preprocessed on load;
// item names then come from the export itself.
type DataConfig struct {
	Interactions string `koanf:"interactions"`
	Events       string `koanf:"events"`

	// MinPreviews drops users with fewer distinct previewed items. Events only.
	MinPreviews int `koanf:"min_previews" validate:"gte=0"`

	// Variants keeps only items whose name ends in "-<variant>". Events only.
	Variants []string `koanf:"variants"`

	// ExcludeVariants drops items whose name ends in "-<variant>". Events only.
	ExcludeVariants []string `koanf:"exclude_variants"`

	// ItemNames is an item_index,item_name CSV.
	ItemNames string `koanf:"item_names"`

	// Categories is a categories JSON document keyed by item name.
	Categories string `koanf:"categories"`
}

// EvaluationConfig selects the evaluations of `seen evaluate`. A zero n
// skips the corresponding metric.
type EvaluationConfig struct {
	// Seed drives the leave-one-out split and all random padding.
	Seed int64 `koanf:"seed"`

	// Workers bounds per-subject parallelism. 0 uses GOMAXPROCS.
	Workers int `koanf:"workers" validate:"gte=0"`

	FindNearestTo []int `koanf:"find_nearest_to" validate:"dive,gte=0"`
	NNearest      int   `koanf:"n_nearest" validate:"gte=0"`
	CategoryMatch bool  `koanf:"category_match"`

	RecommendFor []int `koanf:"recommend_for" validate:"dive,gte=0"`
	NRecommend   int   `koanf:"n_recommend" validate:"gte=0"`

	MatchIndexN  int  `koanf:"match_index_n" validate:"gte=0"`
	HitRateN     int  `koanf:"hit_rate_n" validate:"gte=0"`
	HitPositions bool `koanf:"hit_positions"`
	NoveltyN     int  `koanf:"novelty_n" validate:"gte=0"`

	// Report is the JSON report path. Empty writes to stdout.
	Report string `koanf:"report"`
}

// Recommender kinds.
const (
	KindItem       = "item"
	KindUser       = "user"
	KindPopularity = "popularity"
	KindRandom     = "random"
)

// Embedding algorithms.
const (
	AlgorithmItemsSVD      = "items_svd"
	AlgorithmItemsUsersSVD = "items_users_svd"
	AlgorithmALS           = "als"
	AlgorithmBPR           = "bpr"
	AlgorithmRandom        = "random"
)

// RecommenderConfig describes one recommender to build.
type RecommenderConfig struct {
	// Name identifies the recommender in logs, metrics and reports.
	Name string `koanf:"name" validate:"required"`

	// Kind is item, user, popularity or random.
	Kind string `koanf:"kind" validate:"required,oneof=item user popularity random"`

	// Algorithm is the embedding provider of item and user recommenders.
	Algorithm string `koanf:"algorithm" validate:"omitempty,oneof=items_svd items_users_svd als bpr random"`

	// K is the embedding dimension.
	K int `koanf:"k" validate:"gte=0"`

	// ZeroReplacement is the SVD utility value of shown-only items.
	// Nil uses -1.
	ZeroReplacement *float64 `koanf:"zero_replacement"`

	// Seed drives the random algorithm and ALS and BPR initialization.
	Seed int64 `koanf:"seed"`

	// ScoresChart weights interactions by label ("0" shown, "1" selected).
	// Empty uses {"0": 1, "1": 1}.
	ScoresChart map[string]float64 `koanf:"scores_chart" validate:"omitempty,scoreschart"`

	// User-based propagation. Nil uses the engine default; an explicit 0
	// is kept, so depth 0 gives classic user-based CF.
	NNeighbors     *int   `koanf:"n_neighbors" validate:"omitempty,gte=0"`
	DepthNeighbors *int   `koanf:"depth_neighbors" validate:"omitempty,gte=0"`
	DepthUser      *int   `koanf:"depth_user" validate:"omitempty,gte=0"`
	Propagation    string `koanf:"propagation" validate:"omitempty,oneof=items recommendations"`

	ALS ALSConfig `koanf:"als"`
	BPR BPRConfig `koanf:"bpr"`
}

// ALSConfig tunes the als algorithm. Zero values use the provider defaults.
type ALSConfig struct {
	Iterations     int     `koanf:"iterations" validate:"gte=0"`
	Regularization float64 `koanf:"regularization" validate:"gte=0"`
	Alpha          float64 `koanf:"alpha" validate:"gte=0"`
	Workers        int     `koanf:"workers" validate:"gte=0"`
}

// BPRConfig tunes the bpr algorithm. Zero values use the provider defaults.
type BPRConfig struct {
	Iterations      int     `koanf:"iterations" validate:"gte=0"`
	LearningRate    float64 `koanf:"learning_rate" validate:"gte=0"`
	Regularization  float64 `koanf:"regularization" validate:"gte=0"`
	NegativeSamples int     `koanf:"negative_samples" validate:"gte=0"`

	// ShownNegativeRate is the share of negatives drawn from shown but
	// unselected items. Nil uses 0.5.
	ShownNegativeRate *float64 `koanf:"shown_negative_rate" validate:"omitempty,gte=0,lte=1"`
}

// NeedsModel reports whether the recommender is backed by an embedding model.
func (r *RecommenderConfig) NeedsModel() bool {
	return r.Kind == KindItem || r.Kind == KindUser
}

// SnapshotConfig configures the badger similarity snapshot store.
type SnapshotConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// MetricsConfig configures the Prometheus textfile written after each run.
type MetricsConfig struct {
	// Textfile is the output path. Empty disables the file.
	Textfile string `koanf:"textfile"`
}
