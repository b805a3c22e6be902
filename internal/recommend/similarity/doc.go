// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

// Package similarity provides similarity functions over embedding matrices.
//
// Functions accept embeddings in either (k x n) or (n x k) layout. When the
// row count equals the configured dimension k the matrix is treated as
// (k x n) and transposed before use, so a square matrix is always read as
// (k x n).
//
// All functions are pure and safe for concurrent use.
package similarity
