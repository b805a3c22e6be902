// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package similarity

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const eps = 1e-9

func TestCosine_Pairwise(t *testing.T) {
	// Three items in (k x n) layout with k=2.
	emb := mat.NewDense(2, 3, []float64{
		1, 0, 1,
		0, 1, 1,
	})

	sim := NewCosine(2).Pairwise(emb)

	r, c := sim.Dims()
	if r != 3 || c != 3 {
		t.Fatalf("dims = %dx%d, want 3x3", r, c)
	}

	tests := []struct {
		name string
		i, j int
		want float64
	}{
		{"self", 0, 0, 1},
		{"orthogonal", 0, 1, 0},
		{"diagonal", 0, 2, 1 / math.Sqrt2},
		{"symmetric", 2, 0, 1 / math.Sqrt2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sim.At(tt.i, tt.j); math.Abs(got-tt.want) > eps {
				t.Errorf("sim[%d][%d] = %v, want %v", tt.i, tt.j, got, tt.want)
			}
		})
	}
}

func TestCosine_LayoutIndependent(t *testing.T) {
	kn := mat.NewDense(2, 4, []float64{
		1, 2, 0, -1,
		3, 0, 1, 2,
	})
	nk := mat.DenseCopyOf(kn.T())

	c := NewCosine(2)
	a := c.Pairwise(kn)
	b := c.Pairwise(nk)

	if !mat.EqualApprox(a, b, eps) {
		t.Errorf("pairwise similarity differs between (k x n) and (n x k) layouts")
	}
}

func TestCosine_SquareReadAsColumns(t *testing.T) {
	// Two items with k=2: columns (1, 0) and (2, 0) point the same way,
	// while the rows (1, 2) and (0, 0) would not.
	emb := mat.NewDense(2, 2, []float64{
		1, 2,
		0, 0,
	})

	sim := NewCosine(2).Pairwise(emb)
	if got := sim.At(0, 1); math.Abs(got-1) > eps {
		t.Errorf("sim(0, 1) = %f, want 1 for column-wise items", got)
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	emb := mat.NewDense(2, 2, []float64{
		0, 1,
		0, 1,
	})

	sim := NewCosine(2).Pairwise(emb)
	for j := 0; j < 2; j++ {
		if got := sim.At(0, j); got != 0 {
			t.Errorf("zero vector similarity to %d = %v, want 0", j, got)
		}
	}
}

func TestCosine_Against(t *testing.T) {
	emb := mat.NewDense(2, 3, []float64{
		1, 0, 1,
		0, 1, 1,
	})
	// One subject vector as a (k x 1) column.
	subject := mat.NewDense(2, 1, []float64{2, 0})

	got := NewCosine(2).Against(emb, subject)
	r, c := got.Dims()
	if r != 1 || c != 3 {
		t.Fatalf("dims = %dx%d, want 1x3", r, c)
	}

	want := []float64{1, 0, 1 / math.Sqrt2}
	for j, w := range want {
		if math.Abs(got.At(0, j)-w) > eps {
			t.Errorf("sim[0][%d] = %v, want %v", j, got.At(0, j), w)
		}
	}
}

func TestCosine_DoesNotMutateInput(t *testing.T) {
	data := []float64{3, 4, 0, 5}
	emb := mat.NewDense(2, 2, append([]float64(nil), data...))

	_ = NewCosine(2).Pairwise(emb)

	for i, v := range emb.RawMatrix().Data {
		if v != data[i] {
			t.Fatalf("input modified at %d: got %v, want %v", i, v, data[i])
		}
	}
}
