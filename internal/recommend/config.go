// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package recommend

import (
	"fmt"
)

// EvaluationConfig configures an Evaluation.
type EvaluationConfig struct {
	// Seed drives every random choice (padding, random recommendations).
	// Results depend only on the seed and the subject positions, never on
	// the worker count.
	Seed int64

	// Workers bounds the number of subjects processed in parallel.
	// Zero means GOMAXPROCS.
	Workers int
}

// DefaultEvaluationConfig returns the default evaluation configuration.
func DefaultEvaluationConfig() EvaluationConfig {
	return EvaluationConfig{
		Seed:    42, // Default seed for determinism
		Workers: 0,
	}
}

// Validate checks the configuration for errors.
func (c EvaluationConfig) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	return nil
}

// PropagationMode selects how neighbor users contribute item weights.
type PropagationMode string

const (
	// PropagateItems spreads each neighbor's used items, and their nearest
	// items, onto the subject. With zero depth this is classic user-based
	// collaborative filtering.
	PropagateItems PropagationMode = "items"

	// PropagateRecommendations adds each neighbor's own top-depth item-based
	// recommendations, weighted by their scores.
	PropagateRecommendations PropagationMode = "recommendations"
)

// PropagationConfig parameterizes user-based propagation.
type PropagationConfig struct {
	// NNeighbors is the number of nearest users per subject user.
	NNeighbors int

	// DepthNeighbors is the item neighborhood depth for neighbor users.
	DepthNeighbors int

	// DepthUser is the item neighborhood depth for the subject's own items.
	DepthUser int

	// Mode selects the neighbor contribution scheme. Empty means PropagateItems.
	Mode PropagationMode
}

// DefaultPropagationConfig returns the neighborhood sizes used by the
// reference user-based recommender.
func DefaultPropagationConfig() PropagationConfig {
	return PropagationConfig{
		NNeighbors:     10,
		DepthNeighbors: 5,
		DepthUser:      5,
		Mode:           PropagateItems,
	}
}

// Validate checks the configuration for errors.
func (c PropagationConfig) Validate() error {
	if c.NNeighbors < 0 {
		return fmt.Errorf("n_neighbors must be non-negative, got %d", c.NNeighbors)
	}
	if c.DepthNeighbors < 0 {
		return fmt.Errorf("depth_neighbors must be non-negative, got %d", c.DepthNeighbors)
	}
	if c.DepthUser < 0 {
		return fmt.Errorf("depth_user must be non-negative, got %d", c.DepthUser)
	}
	switch c.Mode {
	case "", PropagateItems, PropagateRecommendations:
	default:
		return fmt.Errorf("unknown propagation mode %q", c.Mode)
	}
	return nil
}
