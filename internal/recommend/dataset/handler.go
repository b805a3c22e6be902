// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package dataset

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/seen/internal/logging"
	"github.com/tomtom215/seen/internal/metrics"
	"github.com/tomtom215/seen/internal/recommend"
)

// Config configures a Handler.
type Config struct {
	// Seed drives the leave-one-out hold-out choice.
	Seed int64

	// ItemNames maps item indices to names. Optional.
	ItemNames []string

	// Categories maps item names to category IDs. Items without names are
	// looked up by their decimal index. Optional.
	Categories map[string][]string
}

// Handler serves a dataset and its leave-one-out split to the engine.
// It implements recommend.DataSource and recommend.ItemNamer and is safe
// for concurrent use.
type Handler struct {
	data       *recommend.Dataset
	itemNames  []string
	categories map[string][]string
	seed       int64
	logger     zerolog.Logger

	mu  sync.RWMutex
	loo *recommend.LOOSplit
}

// NewHandler creates a handler over data.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(data *recommend.Dataset, cfg Config, logger zerolog.Logger) *Handler {
	return &Handler{
		data:       data,
		itemNames:  cfg.ItemNames,
		categories: cfg.Categories,
		seed:       cfg.Seed,
		logger:     logging.WithComponent(logger, "dataset"),
	}
}

// Data returns the dataset of partition p.
func (h *Handler) Data(p recommend.Partition) (*recommend.Dataset, error) {
	switch p {
	case recommend.PartitionAll:
		return h.data, nil
	case recommend.PartitionLOO:
		h.mu.RLock()
		defer h.mu.RUnlock()
		if h.loo == nil {
			return nil, recommend.ErrLOONotPrepared
		}
		return h.loo.Data, nil
	default:
		return nil, fmt.Errorf("partition %q: %w", p, recommend.ErrUnknownPartition)
	}
}

// UserActivity returns the user's interactions in partition p.
func (h *Handler) UserActivity(userID int, p recommend.Partition) ([]recommend.Interaction, error) {
	data, err := h.Data(p)
	if err != nil {
		return nil, err
	}
	return data.UserActivity(userID), nil
}

// UserIDs returns the users of partition p in ascending order.
func (h *Handler) UserIDs(p recommend.Partition) ([]int, error) {
	data, err := h.Data(p)
	if err != nil {
		return nil, err
	}
	return data.UserIDs(), nil
}

// NumItems returns the item count of partition p.
func (h *Handler) NumItems(p recommend.Partition) (int, error) {
	data, err := h.Data(p)
	if err != nil {
		return 0, err
	}
	return data.NumItems(), nil
}

// PrepareLOO builds the leave-one-out split on first use and returns the
// cached split afterwards.
//
// Users are visited in ascending order. For every user with at least two
// selected items one of them, chosen uniformly with the seeded source, is
// removed from the training data and recorded as left out. Users with fewer
// than two selected items are dropped from the split entirely.
func (h *Handler) PrepareLOO() (*recommend.LOOSplit, error) {
	h.mu.RLock()
	if h.loo != nil {
		defer h.mu.RUnlock()
		return h.loo, nil
	}
	h.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loo != nil {
		return h.loo, nil
	}

	rng := rand.New(rand.NewSource(h.seed)) //nolint:gosec // evaluation split, not security sensitive
	users := h.data.UserIDs()
	split := &recommend.LOOSplit{}
	kept := make([]recommend.Interaction, 0, h.data.Len())

	for _, user := range users {
		activity := h.data.UserActivity(user)

		var selected []int
		for j, inter := range activity {
			if inter.Label == recommend.LabelSelected {
				selected = append(selected, j)
			}
		}
		if len(selected) < 2 {
			split.Excluded++
			continue
		}

		pick := selected[rng.Intn(len(selected))]
		for j, inter := range activity {
			if j != pick {
				kept = append(kept, inter)
			}
		}
		split.Users = append(split.Users, user)
		split.LeftOut = append(split.LeftOut, activity[pick].ItemID)
	}

	data, err := recommend.NewDataset(kept)
	if err != nil {
		return nil, fmt.Errorf("build leave-one-out dataset: %w", err)
	}
	split.Data = data

	metrics.SetLOOStats(len(split.Users), split.Excluded)
	h.logger.Info().
		Int("users", len(split.Users)).
		Int("excluded", split.Excluded).
		Int("interactions", data.Len()).
		Msg("leave-one-out split prepared")
	if data.NumItems() < h.data.NumItems() {
		h.logger.Warn().
			Int("items", h.data.NumItems()).
			Int("loo_items", data.NumItems()).
			Msg("some items are missing from the leave-one-out training data")
	}

	h.loo = split
	return split, nil
}

// InvalidateLOO discards the cached split. The next PrepareLOO draws a new
// one from the same seed.
func (h *Handler) InvalidateLOO() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loo = nil
}

// ItemName returns the item's name, or its decimal index when unnamed.
func (h *Handler) ItemName(itemID int) string {
	if itemID >= 0 && itemID < len(h.itemNames) && h.itemNames[itemID] != "" {
		return h.itemNames[itemID]
	}
	return strconv.Itoa(itemID)
}

// ItemCategories returns the item's category IDs, empty when unknown.
func (h *Handler) ItemCategories(itemID int) []string {
	return h.categories[h.ItemName(itemID)]
}

// ItemIndex returns the index of the named item.
func (h *Handler) ItemIndex(name string) (int, bool) {
	for i, n := range h.itemNames {
		if n == name {
			return i, true
		}
	}
	if i, err := strconv.Atoi(name); err == nil && i >= 0 && i < h.data.NumItems() {
		return i, true
	}
	return 0, false
}

var (
	_ recommend.DataSource = (*Handler)(nil)
	_ recommend.ItemNamer  = (*Handler)(nil)
)
