// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps a thread-safe singleton validator with custom rules and
// human-readable error messages. Fields are reported by their koanf names,
// so errors point at the offending configuration key:
//
//	recommenders[1].kind must be one of: item user popularity random
//
// # Custom Validators
//
//   - scoreschart: a map[string]float64 whose keys are interaction labels
//     ("0" shown, "1" selected) and whose weights are finite
//
// # Usage
//
//	type RecommenderConfig struct {
//	    Name        string             `koanf:"name" validate:"required"`
//	    K           int                `koanf:"k" validate:"gte=0"`
//	    ScoresChart map[string]float64 `koanf:"scores_chart" validate:"omitempty,scoreschart"`
//	}
//
//	if verr := validation.ValidateStruct(&cfg); verr != nil {
//	    for _, fe := range verr.Errors() {
//	        fmt.Println(fe.Field(), fe.Tag())
//	    }
//	}
//
// # Thread Safety
//
// GetValidator initializes the validator once; the instance caches struct
// metadata and is safe for concurrent use.
package validation
