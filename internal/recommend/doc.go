// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

// Package recommend implements the recommendation and offline evaluation engine.
//
// # Architecture
//
// Items are ranked for users from implicit signals: an item is either
// "selected" by a user or merely "shown" to them. The engine is built from:
//
//   - EmbeddingProvider: fits low-rank item (and optionally user) embeddings
//   - SimilarityFunction: turns embeddings into a pairwise similarity matrix
//   - Model: caches embeddings and similarities per dataset fingerprint
//   - Evaluation: neighbor search, weighted aggregation, user-space propagation
//   - Recommender: ItemSimilarity, UserBased, Popularity and Random strategies
//   - Evaluator: drives several recommenders over one dataset and reports
//
// Data flows dataset -> Model.Embeddings -> Model.Similarities -> Evaluation
// -> Recommender -> metrics (hit rate, novelty, category match).
//
// # Design Principles
//
//   - Deterministic: every random choice (padding, LOO hold-out, random
//     baselines) draws from a seeded source, and per-subject sources are
//     derived from the subject's position so results do not depend on the
//     worker count
//   - Stable ranking: ties are broken by ascending index order
//   - Observable: fits, cache lookups and evaluation scores are exported as
//     Prometheus metrics and logged with structured fields
//
// # Usage
//
//	provider := algorithms.NewItemsUsersSVD(1)
//	model := recommend.NewModel(provider, 10, similarity.NewCosine(10), logger)
//	eval := recommend.NewEvaluation(handler, recommend.EvaluationConfig{Seed: 42}, logger)
//	rec, err := recommend.NewItemSimilarityRecommender(model.Key(), model, eval, chart)
//
//	hitRate, err := recommend.CalcHitRate(ctx, rec, handler, 10)
//
// # Thread Safety
//
// Evaluation routines treat similarity matrices as read-only and write each
// subject's result into its own output slot, so the per-subject loops run on
// a bounded worker pool. The Model cache has a single writer: recomputation
// is serialized and the new state is swapped in atomically.
package recommend
