// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package recommend

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// mockDataSource is an in-memory DataSource for tests.
type mockDataSource struct {
	all        *Dataset
	loo        *LOOSplit
	categories map[int][]string
	names      map[int]string
}

func (m *mockDataSource) Data(p Partition) (*Dataset, error) {
	switch p {
	case PartitionAll:
		return m.all, nil
	case PartitionLOO:
		if m.loo == nil {
			return nil, ErrLOONotPrepared
		}
		return m.loo.Data, nil
	default:
		return nil, fmt.Errorf("partition %q: %w", p, ErrUnknownPartition)
	}
}

func (m *mockDataSource) UserActivity(userID int, p Partition) ([]Interaction, error) {
	data, err := m.Data(p)
	if err != nil {
		return nil, err
	}
	return data.UserActivity(userID), nil
}

func (m *mockDataSource) UserIDs(p Partition) ([]int, error) {
	data, err := m.Data(p)
	if err != nil {
		return nil, err
	}
	return data.UserIDs(), nil
}

func (m *mockDataSource) NumItems(p Partition) (int, error) {
	data, err := m.Data(p)
	if err != nil {
		return 0, err
	}
	return data.NumItems(), nil
}

func (m *mockDataSource) PrepareLOO() (*LOOSplit, error) {
	if m.loo == nil {
		return nil, ErrLOONotPrepared
	}
	return m.loo, nil
}

func (m *mockDataSource) ItemCategories(itemID int) []string {
	return m.categories[itemID]
}

func (m *mockDataSource) ItemName(itemID int) string {
	if name, ok := m.names[itemID]; ok {
		return name
	}
	return fmt.Sprintf("item-%d", itemID)
}

// staticSource returns a fixed similarity matrix regardless of the dataset.
type staticSource struct {
	key string
	sim *mat.Dense
}

func (s *staticSource) Key() string { return s.key }

func (s *staticSource) Similarities(_ context.Context, _ *Dataset) (*mat.Dense, error) {
	return s.sim, nil
}

// mockProvider returns fixed embeddings and counts Fit calls.
type mockProvider struct {
	name  string
	items *mat.Dense
	users *mat.Dense
	err   error
	fits  atomic.Int32
}

func (p *mockProvider) Name() string { return p.name }

func (p *mockProvider) Fit(_ context.Context, _ *Dataset, _ int) (*Embeddings, error) {
	p.fits.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return &Embeddings{Items: p.items, Users: p.users}, nil
}

// exampleSim is the 4-item similarity matrix used across tests.
func exampleSim() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1.0, 0.9, 0.8, 0.7,
		0.9, 1.0, 0.5, 0.4,
		0.8, 0.5, 1.0, 0.2,
		0.7, 0.4, 0.2, 1.0,
	})
}

// exampleInteractions is a 4-user, 4-item dataset:
//
//	u0: 0(sel) 1(sel)
//	u1: 0(sel) 1(shown) 2(sel)
//	u2: 2(sel) 3(sel)
//	u3: 3(sel) 1(shown)
func exampleInteractions() []Interaction {
	return []Interaction{
		{UserID: 0, ItemID: 0, Label: LabelSelected},
		{UserID: 0, ItemID: 1, Label: LabelSelected},
		{UserID: 1, ItemID: 0, Label: LabelSelected},
		{UserID: 1, ItemID: 1, Label: LabelShown},
		{UserID: 1, ItemID: 2, Label: LabelSelected},
		{UserID: 2, ItemID: 2, Label: LabelSelected},
		{UserID: 2, ItemID: 3, Label: LabelSelected},
		{UserID: 3, ItemID: 3, Label: LabelSelected},
		{UserID: 3, ItemID: 1, Label: LabelShown},
	}
}

// exampleLOO leaves out the last selected item of users 0-2. User 3 has a
// single selected item and is excluded.
func exampleLOO() *LOOSplit {
	return &LOOSplit{
		Data: MustDataset([]Interaction{
			{UserID: 0, ItemID: 0, Label: LabelSelected},
			{UserID: 1, ItemID: 0, Label: LabelSelected},
			{UserID: 1, ItemID: 1, Label: LabelShown},
			{UserID: 2, ItemID: 2, Label: LabelSelected},
			{UserID: 3, ItemID: 3, Label: LabelSelected},
			{UserID: 3, ItemID: 1, Label: LabelShown},
		}),
		Users:    []int{0, 1, 2},
		LeftOut:  []int{1, 2, 3},
		Excluded: 1,
	}
}

func newExampleSource() *mockDataSource {
	return &mockDataSource{
		all: MustDataset(exampleInteractions()),
		loo: exampleLOO(),
		categories: map[int][]string{
			0: {"sport", "news"},
			1: {"sport"},
			2: {"music"},
			3: {"music", "news"},
		},
	}
}

// Item embeddings (k=2): items 0 and 1 point along x, items 2 and 3 along y.
func exampleItemEmbeddings() *mat.Dense {
	return mat.NewDense(2, 4, []float64{
		1.0, 1.0, 0.0, 0.2,
		0.0, 0.2, 1.0, 1.0,
	})
}

// User embeddings (k=2): users 0 and 1 point along x, users 2 and 3 along y.
func exampleUserEmbeddings() *mat.Dense {
	return mat.NewDense(2, 4, []float64{
		1.0, 1.0, 0.0, 0.1,
		0.0, 0.1, 1.0, 1.0,
	})
}

func newTestEvaluation(src DataSource, workers int) *Evaluation {
	return NewEvaluation(src, EvaluationConfig{Seed: 7, Workers: workers}, zerolog.Nop())
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func almostEqualSlices(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !almostEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
