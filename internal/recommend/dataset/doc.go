// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

// Package dataset loads and prepares interaction data for the
// recommendation engine.
//
// Raw preview events (user key, item name, selected) pass through Preprocess,
// which deduplicates them, filters sparse users and assigns dense indices.
// Prepared interaction files are read with LoadInteractions, and item names
// and categories with LoadItemNames and LoadCategories. Files ending in .gz
// are decompressed on the fly.
//
// Handler wraps a dataset as a recommend.DataSource and owns the
// leave-one-out split:
//
//	data, err := dataset.LoadInteractionsFile("interactions.csv")
//	if err != nil {
//	    return err
//	}
//	handler := dataset.NewHandler(data, dataset.Config{Seed: 42}, logger)
//	split, err := handler.PrepareLOO()
package dataset
