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

// rankTolerance is the singular value below which a component is treated
// as zero.
const rankTolerance = 1e-10

// DefaultZeroReplacement is the utility value of a shown but not selected item.
const DefaultZeroReplacement = -1.0

// SVD embeds items (and optionally users) with a truncated singular value
// decomposition of the user-item utility matrix.
//
// The utility matrix holds 1 for selected items, ZeroReplacement for items
// shown but not selected and 0 for items never shown. Item embeddings are
// the top-k right singular vectors and user embeddings the top-k left
// singular vectors, both unscaled. When the matrix rank is below k the
// remaining embedding rows are zero.
type SVD struct {
	name            string
	zeroReplacement float64
	withUsers       bool
}

// NewItemsSVD creates an SVD provider producing item embeddings only.
func NewItemsSVD(zeroReplacement float64) *SVD {
	return &SVD{
		name:            "items_svd",
		zeroReplacement: zeroReplacement,
	}
}

// NewItemsUsersSVD creates an SVD provider producing item and user embeddings.
func NewItemsUsersSVD(zeroReplacement float64) *SVD {
	return &SVD{
		name:            "items_users_svd",
		zeroReplacement: zeroReplacement,
		withUsers:       true,
	}
}

// Name returns the algorithm identifier.
func (s *SVD) Name() string {
	return s.name
}

// Params identifies the utility value of shown-only items.
func (s *SVD) Params() string {
	return fmt.Sprintf("zero_replacement=%g", s.zeroReplacement)
}

// Fit decomposes the utility matrix of data and returns k-dimensional
// embeddings.
func (s *SVD) Fit(ctx context.Context, data *recommend.Dataset, k int) (*recommend.Embeddings, error) {
	if err := checkFit(s.name, data, k); err != nil {
		return nil, err
	}
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}

	utility := utilityMatrix(data, s.zeroReplacement)

	kind := mat.SVDThinV
	if s.withUsers {
		kind = mat.SVDThin
	}
	var svd mat.SVD
	if ok := svd.Factorize(utility, kind); !ok {
		return nil, fmt.Errorf("%s: factorization did not converge", s.name)
	}

	rank := 0
	for _, v := range svd.Values(nil) {
		if rank == k || v <= rankTolerance {
			break
		}
		rank++
	}

	var v mat.Dense
	svd.VTo(&v)
	emb := &recommend.Embeddings{
		Items: leadingColumnsT(&v, rank, k),
	}

	if s.withUsers {
		var u mat.Dense
		svd.UTo(&u)
		emb.Users = leadingColumnsT(&u, rank, k)
	}
	return emb, nil
}

// leadingColumnsT returns the first rank columns of m as rows of a (k x n)
// matrix; rows rank..k-1 stay zero.
func leadingColumnsT(m *mat.Dense, rank, k int) *mat.Dense {
	n, _ := m.Dims()
	out := mat.NewDense(k, n, nil)
	for f := 0; f < rank; f++ {
		for j := 0; j < n; j++ {
			out.Set(f, j, m.At(j, f))
		}
	}
	return out
}
