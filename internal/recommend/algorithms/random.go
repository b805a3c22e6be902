// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package algorithms

import (
	"context"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/seen/internal/recommend"
)

// RandomEmbedding draws item embeddings uniformly from [-1, 1). It ignores
// the interactions apart from the item count and serves as a baseline for
// the learned embeddings.
type RandomEmbedding struct {
	seed int64
}

// NewRandomEmbedding creates a random provider. Fits with the same seed and
// item count return the same embeddings.
func NewRandomEmbedding(seed int64) *RandomEmbedding {
	return &RandomEmbedding{seed: seed}
}

// Name returns the algorithm identifier.
func (r *RandomEmbedding) Name() string {
	return "random"
}

// Params identifies the seed.
func (r *RandomEmbedding) Params() string {
	return fmt.Sprintf("seed=%d", r.seed)
}

// Fit returns a (k x numItems) matrix of uniform values in [-1, 1).
func (r *RandomEmbedding) Fit(ctx context.Context, data *recommend.Dataset, k int) (*recommend.Embeddings, error) {
	if err := checkFit(r.Name(), data, k); err != nil {
		return nil, err
	}
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}

	rng := rand.New(rand.NewSource(r.seed)) //nolint:gosec // embeddings baseline, not security sensitive
	n := data.NumItems()
	values := make([]float64, k*n)
	for i := range values {
		values[i] = 2*rng.Float64() - 1
	}
	return &recommend.Embeddings{Items: mat.NewDense(k, n, values)}, nil
}
