// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"seen.yaml",
	"seen.yml",
	"/etc/seen/config.yaml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "SEEN_CONFIG"

// envPrefix prefixes every environment override.
const envPrefix = "SEEN_"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
		Data: DataConfig{
			MinPreviews: 20,
		},
		Evaluation: EvaluationConfig{
			Seed:         42,
			Workers:      0, // 0 = GOMAXPROCS
			NNearest:     10,
			NRecommend:   10,
			MatchIndexN:  10,
			HitRateN:     10,
			HitPositions: true,
			NoveltyN:     10,
		},
		Recommenders: []RecommenderConfig{
			{Name: "items_svd", Kind: KindItem, Algorithm: AlgorithmItemsSVD, K: 10},
			{Name: "popularity", Kind: KindPopularity},
			{Name: "random", Kind: KindRandom},
		},
		Snapshots: SnapshotConfig{
			Enabled: false,
			Path:    "data/snapshots",
		},
	}
}

// Load reads configuration with koanf.
//
// Layers, lowest priority first: struct defaults, the YAML file at path (or
// the first of SEEN_CONFIG and DefaultConfigPaths when path is empty), and
// SEEN_* environment variables. The result is validated before it is
// returned.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional unless named explicitly)
	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		// Lists replace their defaults rather than merging element-wise.
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// SEEN_EVALUATION_HIT_RATE_N -> evaluation.hit_rate_n
	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists config paths parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"data.variants",
	"data.exclude_variants",
}

// intSliceConfigPaths are like sliceConfigPaths with integer elements.
var intSliceConfigPaths = []string{
	"evaluation.find_nearest_to",
	"evaluation.recommend_for",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		parts, ok := splitString(k.Get(path))
		if !ok {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}

	for _, path := range intSliceConfigPaths {
		parts, ok := splitString(k.Get(path))
		if !ok {
			continue
		}
		ints := make([]int, len(parts))
		for i, p := range parts {
			v, err := strconv.Atoi(p)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			ints[i] = v
		}
		if err := k.Set(path, ints); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// splitString splits a comma-separated string value. It reports false for
// values that are not strings (e.g. lists from YAML) and for empty strings.
func splitString(val any) ([]string, bool) {
	s, ok := val.(string)
	if !ok || s == "" {
		return nil, false
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, len(out) > 0
}

// envMappings maps environment variable names, lowercased and without the
// SEEN_ prefix, to koanf paths.
var envMappings = map[string]string{
	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Data
	"data_interactions":     "data.interactions",
	"data_events":           "data.events",
	"data_min_previews":     "data.min_previews",
	"data_variants":         "data.variants",
	"data_exclude_variants": "data.exclude_variants",
	"data_item_names":       "data.item_names",
	"data_categories":       "data.categories",

	// Evaluation
	"seed":                       "evaluation.seed",
	"workers":                    "evaluation.workers",
	"evaluation_seed":            "evaluation.seed",
	"evaluation_workers":         "evaluation.workers",
	"evaluation_find_nearest_to": "evaluation.find_nearest_to",
	"evaluation_n_nearest":       "evaluation.n_nearest",
	"evaluation_category_match":  "evaluation.category_match",
	"evaluation_recommend_for":   "evaluation.recommend_for",
	"evaluation_n_recommend":     "evaluation.n_recommend",
	"evaluation_match_index_n":   "evaluation.match_index_n",
	"evaluation_hit_rate_n":      "evaluation.hit_rate_n",
	"evaluation_hit_positions":   "evaluation.hit_positions",
	"evaluation_novelty_n":       "evaluation.novelty_n",
	"evaluation_report":          "evaluation.report",

	// Snapshots
	"snapshots_enabled": "snapshots.enabled",
	"snapshots_path":    "snapshots.path",

	// Metrics
	"metrics_textfile": "metrics.textfile",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - SEEN_LOG_LEVEL -> logging.level
//   - SEEN_DATA_INTERACTIONS -> data.interactions
//   - SEEN_EVALUATION_HIT_RATE_N -> evaluation.hit_rate_n
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents stray SEEN_ variables (SEEN_CONFIG) from polluting config
	return ""
}
