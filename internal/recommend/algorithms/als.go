// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package algorithms

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/seen/internal/recommend"
)

// ALSConfig contains configuration for the ALS algorithm.
type ALSConfig struct {
	// NumIterations is the number of ALS iterations to run.
	// Typical range: 10-50.
	NumIterations int

	// Regularization is the L2 regularization parameter.
	// Higher values prevent overfitting but may underfit.
	// Typical range: 0.01-0.1.
	Regularization float64

	// Alpha scales the confidence of observed pairs: c = 1 + alpha.
	// Typical range: 1-100.
	Alpha float64

	// Seed drives the factor initialization.
	Seed int64

	// NumWorkers is the number of parallel workers for training.
	// If <= 0, defaults to 4.
	NumWorkers int
}

// DefaultALSConfig returns default ALS configuration.
func DefaultALSConfig() ALSConfig {
	return ALSConfig{
		NumIterations:  15,
		Regularization: 0.01,
		Alpha:          40.0,
		Seed:           42,
		NumWorkers:     4,
	}
}

// ALS implements Alternating Least Squares for implicit feedback.
// Reference: "Collaborative Filtering for Implicit Feedback Datasets" (Hu, Koren, Volinsky, 2008)
//
// The objective function minimizes:
// sum_{u,i} c_ui * (p_ui - x_u' * y_i)^2 + lambda * (||x_u||^2 + ||y_i||^2)
//
// where p_ui = 1 if user u selected item i and 0 otherwise. Observed pairs,
// selected or only shown, have confidence c_ui = 1 + alpha; unobserved pairs
// have confidence 1. A shown item is therefore a confident negative.
//
// Both item and user factors are returned, so ALS models can back
// user-based recommenders.
type ALS struct {
	config ALSConfig
}

// observation is one observed (index, preference, confidence) entry of a
// user's or item's row.
type observation struct {
	index int
	pref  float64
	conf  float64
}

// NewALS creates a new ALS provider with the given configuration.
func NewALS(cfg ALSConfig) *ALS {
	if cfg.NumIterations <= 0 {
		cfg.NumIterations = 15
	}
	if cfg.Regularization <= 0 {
		cfg.Regularization = 0.01
	}
	if cfg.Alpha <= 0 {
		cfg.Alpha = 40.0
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 4
	}
	return &ALS{config: cfg}
}

// Name returns the algorithm identifier.
func (a *ALS) Name() string {
	return "als"
}

// Config returns the effective configuration.
func (a *ALS) Config() ALSConfig {
	return a.config
}

// Params identifies the training settings. NumWorkers is left out since
// it does not change the result.
func (a *ALS) Params() string {
	c := a.config
	return fmt.Sprintf("iterations=%d,regularization=%g,alpha=%g,seed=%d",
		c.NumIterations, c.Regularization, c.Alpha, c.Seed)
}

// Fit factorizes the interactions of data into k latent factors.
func (a *ALS) Fit(ctx context.Context, data *recommend.Dataset, k int) (*recommend.Embeddings, error) {
	if err := checkFit(a.Name(), data, k); err != nil {
		return nil, err
	}

	numUsers, numItems := data.NumUsers(), data.NumItems()
	userItems := make([][]observation, numUsers)
	itemUsers := make([][]observation, numItems)
	conf := 1 + a.config.Alpha
	for i := 0; i < data.Len(); i++ {
		inter := data.At(i)
		pref := 0.0
		if inter.Label == recommend.LabelSelected {
			pref = 1
		}
		userItems[inter.UserID] = append(userItems[inter.UserID], observation{index: inter.ItemID, pref: pref, conf: conf})
		itemUsers[inter.ItemID] = append(itemUsers[inter.ItemID], observation{index: inter.UserID, pref: pref, conf: conf})
	}

	// Small random initialization
	rng := rand.New(rand.NewSource(a.config.Seed)) //nolint:gosec // initialization only
	X := mat.NewDense(numUsers, k, nil)
	Y := mat.NewDense(numItems, k, nil)
	for _, m := range []*mat.Dense{X, Y} {
		raw := m.RawMatrix().Data
		for i := range raw {
			raw[i] = 0.1 * (rng.Float64() - 0.5)
		}
	}

	for iter := 0; iter < a.config.NumIterations; iter++ {
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}

		// Update user factors (fix Y, solve for X)
		if err := a.updateFactors(ctx, X, Y, userItems, k); err != nil {
			return nil, err
		}
		// Update item factors (fix X, solve for Y)
		if err := a.updateFactors(ctx, Y, X, itemUsers, k); err != nil {
			return nil, err
		}
	}

	return &recommend.Embeddings{
		Items: mat.DenseCopyOf(Y.T()),
		Users: mat.DenseCopyOf(X.T()),
	}, nil
}

// updateFactors solves every row of dst with fixed held constant.
// Rows are split into contiguous chunks, one per worker.
func (a *ALS) updateFactors(ctx context.Context, dst, fixed *mat.Dense, rows [][]observation, k int) error {
	// Precompute F'F
	var gram mat.SymDense
	gram.SymOuterK(1, fixed.T())

	n := len(rows)
	chunkSize := (n + a.config.NumWorkers - 1) / a.config.NumWorkers

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			for r := start; r < end; r++ {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				x, err := a.solveRow(&gram, fixed, rows[r], k)
				if err != nil {
					return fmt.Errorf("als: row %d: %w", r, err)
				}
				dst.SetRow(r, x)
			}
			return nil
		})
	}
	return g.Wait()
}

// solveRow computes one factor vector:
//
//	A = F' * C * F + lambda * I
//	b = F' * C * p
//	x = A^(-1) * b
func (a *ALS) solveRow(gram *mat.SymDense, fixed *mat.Dense, obs []observation, k int) ([]float64, error) {
	A := mat.NewSymDense(k, nil)
	A.CopySym(gram)
	for f := 0; f < k; f++ {
		A.SetSym(f, f, A.At(f, f)+a.config.Regularization)
	}

	b := make([]float64, k)
	for _, o := range obs {
		y := fixed.RawRowView(o.index)
		// A += (c_ui - 1) * y_i * y_i'
		A.SymRankOne(A, o.conf-1, mat.NewVecDense(k, y))
		// b += c_ui * p_ui * y_i
		floats.AddScaled(b, o.conf*o.pref, y)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(A); !ok {
		return nil, fmt.Errorf("normal equations not positive definite")
	}
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, mat.NewVecDense(k, b)); err != nil {
		// A poorly conditioned system still yields a usable solution.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
	}

	out := make([]float64, k)
	for f := range out {
		out[f] = x.AtVec(f)
	}
	return out, nil
}
