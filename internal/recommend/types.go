// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package recommend

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/mat"
)

// Label classifies a user-item interaction for implicit feedback.
type Label int

const (
	// LabelShown indicates the item was shown to the user but not selected.
	LabelShown Label = 0
	// LabelSelected indicates the user selected the item.
	LabelSelected Label = 1
)

// String returns the label as used for ScoresChart keys ("0", "1").
func (l Label) String() string {
	return strconv.Itoa(int(l))
}

// Interaction is a single (user, item, label) triple with dense indices.
type Interaction struct {
	// UserID is the dense user index (0-based).
	UserID int `json:"user_index"`

	// ItemID is the dense item index (0-based).
	ItemID int `json:"item_index"`

	// Label is the implicit feedback signal.
	Label Label `json:"is_selected"`
}

// Partition names a view of the interaction data held by a DataSource.
type Partition string

const (
	// PartitionAll is the complete interaction dataset.
	PartitionAll Partition = "all"
	// PartitionLOO is the leave-one-out training dataset.
	PartitionLOO Partition = "loo"
)

// Dataset is an immutable, ordered collection of interactions.
//
// The content fingerprint is computed once at construction and used as the
// dataset identity by the Model cache.
type Dataset struct {
	interactions []Interaction
	byUser       map[int][]int
	userIDs      []int
	numUsers     int
	numItems     int
	fingerprint  uint64
}

// NewDataset validates interactions and builds a Dataset.
// (user, item) pairs must be unique and indices non-negative.
func NewDataset(interactions []Interaction) (*Dataset, error) {
	d := &Dataset{
		interactions: make([]Interaction, len(interactions)),
		byUser:       make(map[int][]int),
	}
	copy(d.interactions, interactions)

	type pair struct{ user, item int }
	seen := make(map[pair]struct{}, len(interactions))
	h := xxhash.New()
	buf := make([]byte, 0, 24)

	for i, inter := range d.interactions {
		if inter.UserID < 0 || inter.ItemID < 0 {
			return nil, fmt.Errorf("interaction %d (user %d, item %d): %w", i, inter.UserID, inter.ItemID, ErrInvalidIndex)
		}
		p := pair{inter.UserID, inter.ItemID}
		if _, dup := seen[p]; dup {
			return nil, fmt.Errorf("user %d, item %d: %w", inter.UserID, inter.ItemID, ErrDuplicateInteraction)
		}
		seen[p] = struct{}{}

		if _, ok := d.byUser[inter.UserID]; !ok {
			d.userIDs = append(d.userIDs, inter.UserID)
		}
		d.byUser[inter.UserID] = append(d.byUser[inter.UserID], i)

		if inter.UserID+1 > d.numUsers {
			d.numUsers = inter.UserID + 1
		}
		if inter.ItemID+1 > d.numItems {
			d.numItems = inter.ItemID + 1
		}

		buf = buf[:0]
		buf = binary.LittleEndian.AppendUint64(buf, uint64(inter.UserID))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(inter.ItemID))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(inter.Label))
		_, _ = h.Write(buf)
	}

	sort.Ints(d.userIDs)
	d.fingerprint = h.Sum64()
	return d, nil
}

// MustDataset is like NewDataset but panics on invalid input.
// Intended for tests and static fixtures.
func MustDataset(interactions []Interaction) *Dataset {
	d, err := NewDataset(interactions)
	if err != nil {
		panic(err)
	}
	return d
}

// Len returns the number of interactions.
func (d *Dataset) Len() int { return len(d.interactions) }

// NumUsers returns the highest user index plus one.
func (d *Dataset) NumUsers() int { return d.numUsers }

// NumItems returns the highest item index plus one.
func (d *Dataset) NumItems() int { return d.numItems }

// Fingerprint returns the content hash of the dataset.
// Datasets with equal interactions in equal order share a fingerprint.
func (d *Dataset) Fingerprint() uint64 { return d.fingerprint }

// Interactions returns a copy of the interactions in dataset order.
func (d *Dataset) Interactions() []Interaction {
	out := make([]Interaction, len(d.interactions))
	copy(out, d.interactions)
	return out
}

// At returns the i-th interaction.
func (d *Dataset) At(i int) Interaction { return d.interactions[i] }

// UserIDs returns the distinct user indices in ascending order.
func (d *Dataset) UserIDs() []int {
	out := make([]int, len(d.userIDs))
	copy(out, d.userIDs)
	return out
}

// UserActivity returns the user's interactions in dataset order.
// Unknown users have no activity.
func (d *Dataset) UserActivity(userID int) []Interaction {
	positions := d.byUser[userID]
	out := make([]Interaction, len(positions))
	for i, pos := range positions {
		out[i] = d.interactions[pos]
	}
	return out
}

// ItemCounts returns the number of interactions per item index.
func (d *Dataset) ItemCounts() []int {
	counts := make([]int, d.numItems)
	for _, inter := range d.interactions {
		counts[inter.ItemID]++
	}
	return counts
}

// ScoresChart converts interaction labels into aggregation weights.
// Keys are label strings ("0", "1").
type ScoresChart map[string]float64

// DefaultScoresChart weights shown and selected items equally.
func DefaultScoresChart() ScoresChart {
	return ScoresChart{
		LabelShown.String():    1,
		LabelSelected.String(): 1,
	}
}

// Weight returns the weight for a label.
// Unmapped labels fail fast with ErrUnmappedLabel.
func (c ScoresChart) Weight(l Label) (float64, error) {
	w, ok := c[l.String()]
	if !ok {
		return 0, fmt.Errorf("label %q: %w", l.String(), ErrUnmappedLabel)
	}
	return w, nil
}

// Validate checks that every key parses as an integer label.
func (c ScoresChart) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("scores chart is empty")
	}
	for key := range c {
		if _, err := strconv.Atoi(key); err != nil {
			return fmt.Errorf("scores chart key %q is not an integer label", key)
		}
	}
	return nil
}

// Embeddings holds the low-rank representation produced by an EmbeddingProvider.
type Embeddings struct {
	// Items is the item embedding matrix (k x numItems).
	Items *mat.Dense

	// Users is the user embedding matrix (k x numUsers).
	// Nil for algorithms that only embed items.
	Users *mat.Dense
}

// UserEmbeddings returns the user embedding matrix or ErrUnsupportedOperation.
func (e *Embeddings) UserEmbeddings() (*mat.Dense, error) {
	if e == nil || e.Users == nil {
		return nil, fmt.Errorf("user embeddings: %w", ErrUnsupportedOperation)
	}
	return e.Users, nil
}

// EmbeddingProvider fits low-rank embeddings for a dataset.
type EmbeddingProvider interface {
	// Name returns the algorithm identifier used in logs and reports.
	Name() string

	// Fit computes embeddings of dimension k for the dataset.
	Fit(ctx context.Context, data *Dataset, k int) (*Embeddings, error)
}

// ParameterizedProvider is an EmbeddingProvider whose fit depends on
// settings other than k. Params must differ whenever the settings would
// change the fitted embeddings; it is hashed into the model key.
type ParameterizedProvider interface {
	EmbeddingProvider
	Params() string
}

// SimilarityFunction maps embeddings to similarity scores.
//
// Embeddings may be given as (k x n) or (n x k); implementations transpose
// as needed. A square (k x k) matrix is read as (k x n), the layout of
// Embeddings.
type SimilarityFunction interface {
	// Name returns the similarity identifier used in logs.
	Name() string

	// Pairwise returns the n x n similarity matrix of all entities.
	Pairwise(embeddings mat.Matrix) *mat.Dense

	// Against returns the similarity of each subject vector (rows) to every
	// entity (columns).
	Against(embeddings, subjects mat.Matrix) *mat.Dense
}

// LOOSplit is a leave-one-out evaluation split.
type LOOSplit struct {
	// Data is the training dataset with one selected item removed per user.
	Data *Dataset

	// Users lists the participating users in ascending order.
	Users []int

	// LeftOut holds the removed item for each entry of Users.
	LeftOut []int

	// Excluded counts users dropped for having fewer than two selected items.
	Excluded int
}

// DataSource provides interaction data and item metadata to the engine.
type DataSource interface {
	// Data returns the dataset of the given partition.
	Data(p Partition) (*Dataset, error)

	// UserActivity returns the user's (item, label) interactions.
	UserActivity(userID int, p Partition) ([]Interaction, error)

	// UserIDs returns the distinct users of the partition in ascending order.
	UserIDs(p Partition) ([]int, error)

	// NumItems returns the item count of the partition.
	NumItems(p Partition) (int, error)

	// PrepareLOO builds (once) and returns the leave-one-out split.
	PrepareLOO() (*LOOSplit, error)

	// ItemCategories returns the item's category IDs, empty if unknown.
	ItemCategories(itemID int) []string
}
