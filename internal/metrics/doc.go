// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

/*
Package metrics provides Prometheus metrics collection and export for observability.

Evaluation runs are batch jobs, so metrics are not scraped from an endpoint.
Instead the CLI writes the default registry to a node_exporter textfile
collector directory when a run finishes:

	if err := metrics.WriteTextfile("/var/lib/node_exporter/seen.prom"); err != nil {
	    logger.Warn().Err(err).Msg("failed to write metrics")
	}

# Available Metrics

Model Metrics:
  - seen_model_fits_total: Embedding fits (counter)
    Labels: algorithm, status (success, error)
  - seen_model_fit_duration_seconds: Embedding fit time (histogram)
    Labels: algorithm
  - seen_model_cache_lookups_total: Model cache lookups (counter)
    Labels: cache (embeddings, similarities), result (hit, miss)

Snapshot Metrics:
  - seen_snapshot_operations_total: Similarity snapshot store operations (counter)
    Labels: operation (load, save), result (hit, miss, ok, error)

Evaluation Metrics:
  - seen_evaluation_duration_seconds: Metric computation time (histogram)
    Labels: recommender, metric
  - seen_evaluation_score: Last computed metric value (gauge)
    Labels: recommender, metric
  - seen_recommendations_total: Recommendation lists produced (counter)
    Labels: recommender, mode (users, items)
  - seen_loo_users: Users participating in the leave-one-out split (gauge)
  - seen_loo_excluded_users: Users dropped from the split (gauge)

# Thread Safety

All collectors are safe for concurrent use.
*/
package metrics
