// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package algorithms

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/seen/internal/recommend"
)

// BPRConfig contains configuration for the BPR algorithm.
type BPRConfig struct {
	// LearningRate is the SGD step size.
	// Typical range: 0.001-0.1.
	// Default: 0.05.
	LearningRate float64

	// Regularization is the L2 regularization parameter.
	// Default: 0.01.
	Regularization float64

	// NumIterations is the number of training epochs. Each epoch visits
	// every selected (user, item) pair once.
	// Default: 100.
	NumIterations int

	// NumNegativeSamples is how many negative items are drawn per positive.
	// Default: 5.
	NumNegativeSamples int

	// ShownNegativeRate is the probability of drawing the negative from the
	// items the user was shown but did not select, when there are any.
	// Otherwise negatives are drawn from all unselected items.
	// Default: 0.5.
	ShownNegativeRate float64

	// Seed for reproducible training.
	Seed int64
}

// DefaultBPRConfig returns default BPR configuration.
func DefaultBPRConfig() BPRConfig {
	return BPRConfig{
		LearningRate:       0.05,
		Regularization:     0.01,
		NumIterations:      100,
		NumNegativeSamples: 5,
		ShownNegativeRate:  0.5,
		Seed:               42,
	}
}

// BPR implements Bayesian Personalized Ranking for implicit feedback.
// Reference: "BPR: Bayesian Personalized Ranking from Implicit Feedback"
// (Rendle, Freudenthaler, Gantner, Schmidt-Thieme, 2009)
//
// For each selected (user, item) pair, BPR samples a negative item j and
// takes an SGD step on ln(sigmoid(x_ui - x_uj)) - lambda*||theta||^2 with
// x_ui = user_factors[u] dot item_factors[i].
//
// Items the user was shown but skipped are the most informative negatives,
// so a share of the negatives is drawn from them.
type BPR struct {
	config BPRConfig
}

// NewBPR creates a new BPR provider with the given configuration.
func NewBPR(cfg BPRConfig) *BPR {
	def := DefaultBPRConfig()
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.Regularization <= 0 {
		cfg.Regularization = def.Regularization
	}
	if cfg.NumIterations <= 0 {
		cfg.NumIterations = def.NumIterations
	}
	if cfg.NumNegativeSamples <= 0 {
		cfg.NumNegativeSamples = def.NumNegativeSamples
	}
	if cfg.ShownNegativeRate < 0 || cfg.ShownNegativeRate > 1 {
		cfg.ShownNegativeRate = def.ShownNegativeRate
	}
	return &BPR{config: cfg}
}

// Name returns the algorithm identifier.
func (b *BPR) Name() string {
	return "bpr"
}

// Config returns the effective configuration.
func (b *BPR) Config() BPRConfig {
	return b.config
}

// Params identifies the training settings.
func (b *BPR) Params() string {
	c := b.config
	return fmt.Sprintf("learning_rate=%g,regularization=%g,iterations=%d,negatives=%d,shown_rate=%g,seed=%d",
		c.LearningRate, c.Regularization, c.NumIterations, c.NumNegativeSamples, c.ShownNegativeRate, c.Seed)
}

// Fit trains k latent factors per user and item.
//
//nolint:gocyclo // SGD training loop
func (b *BPR) Fit(ctx context.Context, data *recommend.Dataset, k int) (*recommend.Embeddings, error) {
	if err := checkFit(b.Name(), data, k); err != nil {
		return nil, err
	}

	numUsers, numItems := data.NumUsers(), data.NumItems()
	selected := make([]map[int]struct{}, numUsers)
	shown := make([][]int, numUsers)
	type pair struct{ user, item int }
	var positives []pair
	for i := 0; i < data.Len(); i++ {
		inter := data.At(i)
		if inter.Label != recommend.LabelSelected {
			shown[inter.UserID] = append(shown[inter.UserID], inter.ItemID)
			continue
		}
		if selected[inter.UserID] == nil {
			selected[inter.UserID] = make(map[int]struct{})
		}
		selected[inter.UserID][inter.ItemID] = struct{}{}
		positives = append(positives, pair{inter.UserID, inter.ItemID})
	}

	// Initialize factor matrices with small random values
	//nolint:gosec // G404: math/rand is acceptable for ML initialization (not security)
	rng := rand.New(rand.NewSource(b.config.Seed))
	W := mat.NewDense(numUsers, k, nil)
	H := mat.NewDense(numItems, k, nil)
	for _, m := range []*mat.Dense{W, H} {
		raw := m.RawMatrix().Data
		for i := range raw {
			raw[i] = (rng.Float64() - 0.5) * 0.1
		}
	}

	// negative draws an unselected item for user u, or -1.
	negative := func(u int) int {
		if len(shown[u]) > 0 && rng.Float64() < b.config.ShownNegativeRate {
			return shown[u][rng.Intn(len(shown[u]))]
		}
		for tries := 0; tries < 100; tries++ {
			j := rng.Intn(numItems)
			if _, ok := selected[u][j]; !ok {
				return j
			}
		}
		return -1
	}

	lr := b.config.LearningRate
	reg := b.config.Regularization
	for epoch := 0; epoch < b.config.NumIterations; epoch++ {
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}

		// Shuffle training pairs each epoch
		rng.Shuffle(len(positives), func(i, j int) {
			positives[i], positives[j] = positives[j], positives[i]
		})

		for _, p := range positives {
			wu := W.RawRowView(p.user)
			hi := H.RawRowView(p.item)
			for ns := 0; ns < b.config.NumNegativeSamples; ns++ {
				j := negative(p.user)
				if j < 0 {
					continue
				}
				hj := H.RawRowView(j)

				var xuij float64
				for f := 0; f < k; f++ {
					xuij += wu[f] * (hi[f] - hj[f])
				}
				// d/d_theta ln(sigmoid(x)) = 1 / (1 + exp(x))
				sigmoid := 1.0 / (1.0 + math.Exp(xuij))
				if sigmoid < 1e-10 {
					continue
				}

				for f := 0; f < k; f++ {
					wuf, hif, hjf := wu[f], hi[f], hj[f]
					wu[f] += lr * (sigmoid*(hif-hjf) - reg*wuf)
					hi[f] += lr * (sigmoid*wuf - reg*hif)
					hj[f] += lr * (-sigmoid*wuf - reg*hjf)
				}
			}
		}

		// Learning rate decay
		if epoch > 0 && epoch%10 == 0 {
			lr *= 0.95
		}
	}

	return &recommend.Embeddings{
		Items: mat.DenseCopyOf(H.T()),
		Users: mat.DenseCopyOf(W.T()),
	}, nil
}
