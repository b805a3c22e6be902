// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q, want console", cfg.Logging.Format)
	}
	if cfg.Data.MinPreviews != 20 {
		t.Errorf("Data.MinPreviews = %d, want 20", cfg.Data.MinPreviews)
	}
	if cfg.Evaluation.Seed != 42 {
		t.Errorf("Evaluation.Seed = %d, want 42", cfg.Evaluation.Seed)
	}
	if cfg.Evaluation.HitRateN != 10 {
		t.Errorf("Evaluation.HitRateN = %d, want 10", cfg.Evaluation.HitRateN)
	}
	if len(cfg.Recommenders) != 3 {
		t.Fatalf("got %d default recommenders, want 3", len(cfg.Recommenders))
	}
	if r := cfg.Recommenders[0]; r.Kind != KindItem || r.Algorithm != AlgorithmItemsSVD || r.K != 10 {
		t.Errorf("Recommenders[0] = %+v", r)
	}
	if cfg.Snapshots.Enabled {
		t.Error("Snapshots.Enabled should be false by default")
	}
}

// TestEnvTransformFunc verifies environment variable to config path mapping
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"SEEN_LOG_LEVEL", "logging.level"},
		{"SEEN_DATA_INTERACTIONS", "data.interactions"},
		{"SEEN_DATA_EXCLUDE_VARIANTS", "data.exclude_variants"},
		{"SEEN_SEED", "evaluation.seed"},
		{"SEEN_EVALUATION_HIT_RATE_N", "evaluation.hit_rate_n"},
		{"SEEN_SNAPSHOTS_PATH", "snapshots.path"},
		{"SEEN_METRICS_TEXTFILE", "metrics.textfile"},
		{"SEEN_CONFIG", ""},
		{"SEEN_UNKNOWN", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := envTransformFunc(tt.input); result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestFindConfigFile verifies config file discovery
func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	t.Run("no config file exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("seen.yaml exists", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "seen.yaml")
		if err := os.WriteFile(configPath, []byte("logging: {}"), 0o600); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove(configPath)

		t.Setenv(ConfigPathEnvVar, "")
		if result := findConfigFile(); result != "seen.yaml" {
			t.Errorf("findConfigFile() = %q, want seen.yaml", result)
		}
	})

	t.Run("SEEN_CONFIG takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(customPath, []byte("logging: {}"), 0o600); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		defer os.Remove(customPath)

		t.Setenv(ConfigPathEnvVar, customPath)
		if result := findConfigFile(); result != customPath {
			t.Errorf("findConfigFile() = %q, want %q", result, customPath)
		}
	})

	t.Run("SEEN_CONFIG with non-existent file", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/seen.yaml")
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seen.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoad_EnvVars tests loading configuration from environment variables
func TestLoad_EnvVars(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("SEEN_DATA_INTERACTIONS", "data/interactions.csv")
	t.Setenv("SEEN_LOG_LEVEL", "debug")
	t.Setenv("SEEN_SEED", "7")
	t.Setenv("SEEN_EVALUATION_HIT_RATE_N", "5")
	t.Setenv("SEEN_EVALUATION_FIND_NEAREST_TO", "3, 1,4")
	t.Setenv("SEEN_DATA_VARIANTS", "ja")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Data.Interactions != "data/interactions.csv" {
		t.Errorf("Data.Interactions = %q", cfg.Data.Interactions)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Evaluation.Seed != 7 {
		t.Errorf("Evaluation.Seed = %d, want 7", cfg.Evaluation.Seed)
	}
	if cfg.Evaluation.HitRateN != 5 {
		t.Errorf("Evaluation.HitRateN = %d, want 5", cfg.Evaluation.HitRateN)
	}
	if !slices.Equal(cfg.Evaluation.FindNearestTo, []int{3, 1, 4}) {
		t.Errorf("Evaluation.FindNearestTo = %v, want [3 1 4]", cfg.Evaluation.FindNearestTo)
	}
	if !slices.Equal(cfg.Data.Variants, []string{"ja"}) {
		t.Errorf("Data.Variants = %v, want [ja]", cfg.Data.Variants)
	}

	// Defaults survive
	if cfg.Evaluation.NoveltyN != 10 {
		t.Errorf("Evaluation.NoveltyN = %d, want 10", cfg.Evaluation.NoveltyN)
	}
	if len(cfg.Recommenders) != 3 {
		t.Errorf("got %d recommenders, want the 3 defaults", len(cfg.Recommenders))
	}
}

// TestLoad_File tests loading configuration from a YAML file
func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
logging:
  format: json
data:
  events: data/events.csv.gz
  min_previews: 5
  exclude_variants: [ja, ch]
evaluation:
  recommend_for: [0, 2]
  category_match: false
recommenders:
  - name: svd_user
    kind: user
    algorithm: items_users_svd
    k: 8
    zero_replacement: 0
    scores_chart: {"0": -0.5, "1": 1}
    n_neighbors: 4
    depth_user: 0
    propagation: recommendations
  - name: als
    kind: item
    algorithm: als
    k: 16
    als:
      iterations: 5
      alpha: 10
snapshots:
  enabled: true
  path: /tmp/snapshots
`)
	t.Setenv("SEEN_METRICS_TEXTFILE", "/tmp/seen.prom")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Data.Events != "data/events.csv.gz" || cfg.Data.MinPreviews != 5 {
		t.Errorf("Data = %+v", cfg.Data)
	}
	if !slices.Equal(cfg.Data.ExcludeVariants, []string{"ja", "ch"}) {
		t.Errorf("Data.ExcludeVariants = %v", cfg.Data.ExcludeVariants)
	}
	if !slices.Equal(cfg.Evaluation.RecommendFor, []int{0, 2}) {
		t.Errorf("Evaluation.RecommendFor = %v", cfg.Evaluation.RecommendFor)
	}
	if cfg.Metrics.Textfile != "/tmp/seen.prom" {
		t.Errorf("Metrics.Textfile = %q", cfg.Metrics.Textfile)
	}

	if len(cfg.Recommenders) != 2 {
		t.Fatalf("got %d recommenders, want 2 (file replaces defaults)", len(cfg.Recommenders))
	}
	user := cfg.Recommenders[0]
	if user.Kind != KindUser || user.K != 8 || user.Propagation != "recommendations" {
		t.Errorf("Recommenders[0] = %+v", user)
	}
	if user.NNeighbors == nil || *user.NNeighbors != 4 {
		t.Errorf("NNeighbors = %v, want 4", user.NNeighbors)
	}
	if user.DepthUser == nil || *user.DepthUser != 0 {
		t.Errorf("DepthUser = %v, want explicit 0", user.DepthUser)
	}
	if user.DepthNeighbors != nil {
		t.Errorf("DepthNeighbors = %v, want unset", *user.DepthNeighbors)
	}
	if user.ZeroReplacement == nil || *user.ZeroReplacement != 0 {
		t.Errorf("ZeroReplacement = %v, want 0", user.ZeroReplacement)
	}
	if user.ScoresChart["0"] != -0.5 || user.ScoresChart["1"] != 1 {
		t.Errorf("ScoresChart = %v", user.ScoresChart)
	}
	als := cfg.Recommenders[1]
	if als.ZeroReplacement != nil {
		t.Errorf("ZeroReplacement = %v, want nil", *als.ZeroReplacement)
	}
	if als.ALS.Iterations != 5 || als.ALS.Alpha != 10 {
		t.Errorf("ALS = %+v", als.ALS)
	}
	if !cfg.Snapshots.Enabled || cfg.Snapshots.Path != "/tmp/snapshots" {
		t.Errorf("Snapshots = %+v", cfg.Snapshots)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no data source",
			content: "logging: {level: info}",
			wantErr: "data.interactions or data.events",
		},
		{
			name: "invalid kind",
			content: `
data: {interactions: x.csv}
recommenders:
  - {name: a, kind: graph}`,
			wantErr: "recommenders[0].kind",
		},
		{
			name: "bad scores chart",
			content: `
data: {interactions: x.csv}
recommenders:
  - {name: a, kind: item, algorithm: items_svd, k: 4, scores_chart: {"2": 1}}`,
			wantErr: "recommenders[0].scores_chart",
		},
		{
			name: "user kind without user embeddings",
			content: `
data: {interactions: x.csv}
recommenders:
  - {name: a, kind: user, algorithm: items_svd, k: 4}`,
			wantErr: "no user embeddings",
		},
		{
			name:    "invalid log level",
			content: "logging: {level: loud}\ndata: {interactions: x.csv}",
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}

	t.Run("explicit path missing", func(t *testing.T) {
		if _, err := Load("/non/existent/seen.yaml"); err == nil {
			t.Error("Load() with a missing explicit path should fail")
		}
	})
}
