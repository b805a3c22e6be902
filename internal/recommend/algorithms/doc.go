// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

// Package algorithms implements embedding providers for the recommendation engine.
//
// Each provider implements recommend.EmbeddingProvider and fits low-rank
// item (and optionally user) embeddings for a dataset. The Model in
// package recommend caches the fitted embeddings and derives similarity
// matrices from them.
//
// # Providers
//
//   - SVD (items_svd, items_users_svd): truncated SVD of the user-item
//     utility matrix. Shown-only interactions take a configurable
//     replacement value, -1 by default.
//   - ALS (als): Alternating Least Squares for implicit feedback, producing
//     item and user factors.
//   - BPR (bpr): Bayesian Personalized Ranking trained by SGD on selected
//     items, with negatives drawn partly from shown but skipped items.
//   - RandomEmbedding (random): seeded uniform embeddings, a baseline.
//
// # Interface
//
//	type EmbeddingProvider interface {
//	    Name() string
//	    Fit(ctx context.Context, data *Dataset, k int) (*Embeddings, error)
//	}
//
// Embeddings are (k x numItems) and (k x numUsers) matrices. Indices are the
// dense user and item indices of the dataset, so entities without
// interactions get embeddings too (zero for SVD).
//
// # Usage Example
//
//	provider := algorithms.NewItemsUsersSVD(algorithms.DefaultZeroReplacement)
//	emb, err := provider.Fit(ctx, data, 10)
//	if err != nil {
//	    return err
//	}
//	users, err := emb.UserEmbeddings()
//
// # Thread Safety
//
// Providers hold configuration only and may be shared. Fit allocates its
// own working state; ALS parallelizes its per-row solves internally.
//
// # Performance Considerations
//
// Training Complexity:
//   - SVD: dense factorization of the (users x items) matrix
//   - ALS: O(iterations * (nnz * k^2 + (m + n) * k^3))
//   - BPR: O(iterations * selected * negatives * k)
//   - RandomEmbedding: O(k * n)
package algorithms
