// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package algorithms

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/seen/internal/recommend"
)

// checkFit validates the common Fit arguments.
func checkFit(name string, data *recommend.Dataset, k int) error {
	if k <= 0 {
		return fmt.Errorf("%s: embedding dimension must be positive, got %d", name, k)
	}
	if data == nil || data.Len() == 0 {
		return fmt.Errorf("%s: no interactions: %w", name, recommend.ErrInsufficientData)
	}
	return nil
}

// utilityMatrix builds the dense (numUsers x numItems) utility matrix.
// Selected interactions are 1, shown-only interactions are shownValue and
// missing pairs are 0.
func utilityMatrix(data *recommend.Dataset, shownValue float64) *mat.Dense {
	m := mat.NewDense(data.NumUsers(), data.NumItems(), nil)
	for i := 0; i < data.Len(); i++ {
		inter := data.At(i)
		v := 1.0
		if inter.Label == recommend.LabelShown {
			v = shownValue
		}
		m.Set(inter.UserID, inter.ItemID, v)
	}
	return m
}

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Ensure all providers implement the interface.
var (
	_ recommend.ParameterizedProvider = (*SVD)(nil)
	_ recommend.ParameterizedProvider = (*RandomEmbedding)(nil)
	_ recommend.ParameterizedProvider = (*ALS)(nil)
	_ recommend.ParameterizedProvider = (*BPR)(nil)
)
