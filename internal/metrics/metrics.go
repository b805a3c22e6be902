// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Model Metrics
	ModelFits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seen_model_fits_total",
			Help: "Total number of embedding fits",
		},
		[]string{"algorithm", "status"},
	)

	ModelFitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seen_model_fit_duration_seconds",
			Help:    "Duration of embedding fits in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"algorithm"},
	)

	ModelCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seen_model_cache_lookups_total",
			Help: "Total number of model cache lookups",
		},
		[]string{"cache", "result"}, // cache: "embeddings", "similarities"; result: "hit", "miss"
	)

	// Snapshot Metrics
	SnapshotOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seen_snapshot_operations_total",
			Help: "Total number of similarity snapshot store operations",
		},
		[]string{"operation", "result"},
	)

	// Evaluation Metrics
	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seen_evaluation_duration_seconds",
			Help:    "Duration of evaluation metric computations in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
		[]string{"recommender", "metric"},
	)

	EvaluationScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "seen_evaluation_score",
			Help: "Last computed evaluation metric value",
		},
		[]string{"recommender", "metric"},
	)

	RecommendationsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seen_recommendations_total",
			Help: "Total number of recommendation lists produced",
		},
		[]string{"recommender", "mode"},
	)

	LOOUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seen_loo_users",
			Help: "Number of users participating in the leave-one-out split",
		},
	)

	LOOExcludedUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seen_loo_excluded_users",
			Help: "Number of users excluded from the leave-one-out split",
		},
	)
)

// RecordModelFit records an embedding fit.
func RecordModelFit(algorithm string, duration time.Duration, err error) {
	ModelFitDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	status := "success"
	if err != nil {
		status = "error"
	}
	ModelFits.WithLabelValues(algorithm, status).Inc()
}

// RecordCacheLookup records a model cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	ModelCacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordSnapshotOperation records a snapshot store operation outcome.
func RecordSnapshotOperation(operation, result string) {
	SnapshotOperations.WithLabelValues(operation, result).Inc()
}

// RecordEvaluation records a computed metric value and its duration.
func RecordEvaluation(recommender, metric string, score float64, duration time.Duration) {
	EvaluationDuration.WithLabelValues(recommender, metric).Observe(duration.Seconds())
	EvaluationScore.WithLabelValues(recommender, metric).Set(score)
}

// RecordRecommendations counts recommendation lists produced by a recommender.
func RecordRecommendations(recommender, mode string, lists int) {
	RecommendationsGenerated.WithLabelValues(recommender, mode).Add(float64(lists))
}

// SetLOOStats updates the leave-one-out split gauges.
func SetLOOStats(users, excluded int) {
	LOOUsers.Set(float64(users))
	LOOExcludedUsers.Set(float64(excluded))
}

// WriteTextfile writes all registered metrics to path in the Prometheus
// text exposition format. The file is written atomically.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
