// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package similarity

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Cosine computes cosine similarity between embedding vectors.
// Zero vectors have similarity 0 to everything, themselves included.
type Cosine struct {
	k int
}

// NewCosine creates a cosine similarity for embeddings of dimension k.
func NewCosine(k int) *Cosine {
	return &Cosine{k: k}
}

// Name returns the similarity identifier.
func (c *Cosine) Name() string {
	return "cosine"
}

// Pairwise returns the n x n cosine similarity matrix of all entities.
func (c *Cosine) Pairwise(embeddings mat.Matrix) *mat.Dense {
	u := c.unitRows(embeddings)
	n, _ := u.Dims()
	out := mat.NewDense(n, n, nil)
	out.Mul(u, u.T())
	return out
}

// Against returns an (s x n) matrix holding the cosine similarity of each of
// the s subject vectors to each of the n entities.
func (c *Cosine) Against(embeddings, subjects mat.Matrix) *mat.Dense {
	u := c.unitRows(embeddings)
	s := c.unitRows(subjects)
	n, _ := u.Dims()
	rows, _ := s.Dims()
	out := mat.NewDense(rows, n, nil)
	out.Mul(s, u.T())
	return out
}

// unitRows orients m as (entities x k) and scales each row to unit length.
// A matrix with k rows is read as (k x entities), so a square (k x k)
// input is always treated as k entities stored column-wise.
func (c *Cosine) unitRows(m mat.Matrix) *mat.Dense {
	r, _ := m.Dims()
	var oriented mat.Matrix = m
	if c.k > 0 && r == c.k {
		oriented = m.T()
	}

	u := mat.DenseCopyOf(oriented)
	n, _ := u.Dims()
	for i := 0; i < n; i++ {
		row := u.RawRowView(i)
		norm := floats.Norm(row, 2)
		if norm == 0 {
			continue
		}
		floats.Scale(1/norm, row)
	}
	return u
}
