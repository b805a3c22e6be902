// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package config

import (
	"fmt"

	"github.com/tomtom215/seen/internal/validation"
)

// Validate checks struct tags first, then the rules that span fields.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateData(); err != nil {
		return err
	}

	if err := c.validateRecommenders(); err != nil {
		return err
	}

	if c.Evaluation.CategoryMatch && c.Data.Categories == "" {
		return fmt.Errorf("evaluation.category_match requires data.categories")
	}

	if c.Snapshots.Enabled && c.Snapshots.Path == "" {
		return fmt.Errorf("snapshots.path is required when snapshots.enabled=true")
	}

	return nil
}

// validateData requires exactly one interaction source.
func (c *Config) validateData() error {
	switch {
	case c.Data.Interactions == "" && c.Data.Events == "":
		return fmt.Errorf("one of data.interactions or data.events is required")
	case c.Data.Interactions != "" && c.Data.Events != "":
		return fmt.Errorf("data.interactions and data.events are mutually exclusive")
	}

	if len(c.Data.Variants) > 0 && len(c.Data.ExcludeVariants) > 0 {
		return fmt.Errorf("data.variants and data.exclude_variants are mutually exclusive")
	}
	return nil
}

// validateRecommenders checks name uniqueness and the kind/algorithm pairing.
func (c *Config) validateRecommenders() error {
	seen := make(map[string]struct{}, len(c.Recommenders))
	for i := range c.Recommenders {
		r := &c.Recommenders[i]
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("recommenders[%d]: duplicate name %q", i, r.Name)
		}
		seen[r.Name] = struct{}{}

		if !r.NeedsModel() {
			if r.Algorithm != "" {
				return fmt.Errorf("recommenders[%d] (%s): kind %s takes no algorithm", i, r.Name, r.Kind)
			}
			continue
		}

		if r.Algorithm == "" {
			return fmt.Errorf("recommenders[%d] (%s): algorithm is required for kind %s", i, r.Name, r.Kind)
		}
		if r.K <= 0 {
			return fmt.Errorf("recommenders[%d] (%s): k must be positive for kind %s", i, r.Name, r.Kind)
		}
		if r.Kind == KindUser && !ProvidesUsers(r.Algorithm) {
			return fmt.Errorf("recommenders[%d] (%s): algorithm %s has no user embeddings", i, r.Name, r.Algorithm)
		}
	}
	return nil
}

// ProvidesUsers reports whether algorithm fits user embeddings.
func ProvidesUsers(algorithm string) bool {
	switch algorithm {
	case AlgorithmItemsUsersSVD, AlgorithmALS, AlgorithmBPR:
		return true
	default:
		return false
	}
}
