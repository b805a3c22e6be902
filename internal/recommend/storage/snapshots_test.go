// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"gonum.org/v1/gonum/mat"
)

// Helper function to create an in-memory snapshot store
func createTestStore(t *testing.T) *SnapshotStore {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open BadgerDB: %v", err)
	}
	store := NewSnapshotStoreFromDB(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testMatrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0.5, -0.25,
		0.5, 1, 0,
		-0.25, 0, 1,
	})
}

func TestSnapshotStore_SaveLoad(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	want := testMatrix()
	if err := store.SaveSimilarities(ctx, "items_svd_k10", 0xabc, want); err != nil {
		t.Fatalf("SaveSimilarities() error = %v", err)
	}

	got, ok, err := store.LoadSimilarities(ctx, "items_svd_k10", 0xabc)
	if err != nil {
		t.Fatalf("LoadSimilarities() error = %v", err)
	}
	if !ok {
		t.Fatal("LoadSimilarities() ok = false, want true")
	}
	if !mat.Equal(got, want) {
		t.Errorf("loaded matrix differs from saved matrix")
	}
}

func TestSnapshotStore_Miss(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	if err := store.SaveSimilarities(ctx, "items_svd_k10", 1, testMatrix()); err != nil {
		t.Fatalf("SaveSimilarities() error = %v", err)
	}

	tests := []struct {
		name        string
		model       string
		fingerprint uint64
	}{
		{"other fingerprint", "items_svd_k10", 2},
		{"other model", "als_k10", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := store.LoadSimilarities(ctx, tt.model, tt.fingerprint)
			if err != nil {
				t.Fatalf("LoadSimilarities() error = %v", err)
			}
			if ok || got != nil {
				t.Errorf("LoadSimilarities() = (%v, %v), want miss", got, ok)
			}
		})
	}
}

func TestSnapshotStore_LoadLatest(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	first := mat.NewDense(1, 1, []float64{1})
	second := testMatrix()

	if err := store.SaveSimilarities(ctx, "m", 10, first); err != nil {
		t.Fatalf("SaveSimilarities() error = %v", err)
	}
	if err := store.SaveSimilarities(ctx, "m", 20, second); err != nil {
		t.Fatalf("SaveSimilarities() error = %v", err)
	}

	got, meta, err := store.LoadLatest(ctx, "m")
	if err != nil {
		t.Fatalf("LoadLatest() error = %v", err)
	}
	if meta.Fingerprint != 20 {
		t.Errorf("latest fingerprint = %d, want 20", meta.Fingerprint)
	}
	if meta.Rows != 3 || meta.Cols != 3 {
		t.Errorf("metadata dims = %dx%d, want 3x3", meta.Rows, meta.Cols)
	}
	if !mat.Equal(got, second) {
		t.Errorf("latest matrix differs from last save")
	}

	if _, _, err := store.LoadLatest(ctx, "unknown"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("LoadLatest(unknown) error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestSnapshotStore_ListDelete(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	for _, fp := range []uint64{1, 2} {
		if err := store.SaveSimilarities(ctx, "m", fp, testMatrix()); err != nil {
			t.Fatalf("SaveSimilarities() error = %v", err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() returned %d snapshots, want 2", len(list))
	}

	if err := store.Delete(ctx, "m", 2); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, "m", 99); err != nil {
		t.Errorf("Delete(missing) error = %v, want nil", err)
	}

	list, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].Fingerprint != 1 {
		t.Errorf("List() after delete = %+v, want only fingerprint 1", list)
	}

	// The latest pointer referenced the deleted snapshot.
	if _, _, err := store.LoadLatest(ctx, "m"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("LoadLatest() after delete error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestSnapshotStore_Validation(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	if err := store.SaveSimilarities(ctx, "", 1, testMatrix()); err == nil {
		t.Error("SaveSimilarities() with empty model should fail")
	}
	if err := store.SaveSimilarities(ctx, "m", 1, nil); err == nil {
		t.Error("SaveSimilarities() with nil matrix should fail")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := store.SaveSimilarities(cancelled, "m", 1, testMatrix()); !errors.Is(err, context.Canceled) {
		t.Errorf("SaveSimilarities() with cancelled context error = %v, want context.Canceled", err)
	}
}

func TestOpenSnapshotStore(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenSnapshotStore(dir)
	if err != nil {
		t.Fatalf("OpenSnapshotStore() error = %v", err)
	}
	if err := store.SaveSimilarities(ctx, "m", 7, testMatrix()); err != nil {
		t.Fatalf("SaveSimilarities() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenSnapshotStore(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = reopened.Close() }()

	_, ok, err := reopened.LoadSimilarities(ctx, "m", 7)
	if err != nil || !ok {
		t.Errorf("LoadSimilarities() after reopen = (%v, %v), want hit", ok, err)
	}
}
