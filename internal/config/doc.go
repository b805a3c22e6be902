// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

/*
Package config provides configuration management for the seen CLI.

Configuration is layered with koanf v2: struct defaults, then an optional
YAML file, then SEEN_* environment variables. The merged result is validated
with go-playground/validator struct tags (package validation) and a few
cross-field rules.

# Configuration File

The file is the first of: the -config flag, $SEEN_CONFIG, seen.yaml,
seen.yml, /etc/seen/config.yaml.

	logging:
	  level: info
	  format: console
	data:
	  interactions: data/interactions.csv
	  item_names: data/items.csv
	  categories: data/categories.json
	evaluation:
	  seed: 42
	  find_nearest_to: [0, 5]
	  category_match: true
	  hit_rate_n: 10
	recommenders:
	  - name: svd_user
	    kind: user
	    algorithm: items_users_svd
	    k: 10
	    scores_chart: {"0": -0.5, "1": 1}
	    n_neighbors: 10
	  - name: popularity
	    kind: popularity
	snapshots:
	  enabled: true
	  path: data/snapshots

A recommenders list in the file replaces the default list entirely.

Kinds item and user need an algorithm (items_svd, items_users_svd, als, bpr
or random) and k > 0. The user kind needs user embeddings, which
items_users_svd, als and bpr provide. The als and bpr blocks tune those
providers:

	  - name: bpr_user
	    kind: user
	    algorithm: bpr
	    k: 16
	    seed: 3
	    bpr:
	      iterations: 50
	      learning_rate: 0.05
	      shown_negative_rate: 0.7

# Environment Variables

Scalar settings and comma-separated lists can be overridden:

  - SEEN_LOG_LEVEL, SEEN_LOG_FORMAT, SEEN_LOG_CALLER
  - SEEN_DATA_INTERACTIONS, SEEN_DATA_EVENTS, SEEN_DATA_MIN_PREVIEWS
  - SEEN_DATA_VARIANTS, SEEN_DATA_EXCLUDE_VARIANTS (comma-separated)
  - SEEN_DATA_ITEM_NAMES, SEEN_DATA_CATEGORIES
  - SEEN_SEED, SEEN_WORKERS (aliases of SEEN_EVALUATION_SEED and _WORKERS)
  - SEEN_EVALUATION_FIND_NEAREST_TO, SEEN_EVALUATION_RECOMMEND_FOR (comma-separated)
  - SEEN_EVALUATION_N_NEAREST, SEEN_EVALUATION_N_RECOMMEND
  - SEEN_EVALUATION_MATCH_INDEX_N, SEEN_EVALUATION_HIT_RATE_N, SEEN_EVALUATION_NOVELTY_N
  - SEEN_EVALUATION_CATEGORY_MATCH, SEEN_EVALUATION_HIT_POSITIONS, SEEN_EVALUATION_REPORT
  - SEEN_SNAPSHOTS_ENABLED, SEEN_SNAPSHOTS_PATH
  - SEEN_METRICS_TEXTFILE

Recommenders are configured in the file only.

# Thread Safety

Config is immutable after Load and safe for concurrent read access.
*/
package config
