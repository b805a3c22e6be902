// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"
)

// Key prefixes for BadgerDB storage
const (
	snapshotKeyPrefix = "snapshot:"
	metaKeyPrefix     = "meta:"
	latestKeyPrefix   = "latest:"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a model.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotMetadata contains information about a stored similarity snapshot.
type SnapshotMetadata struct {
	// Model is the model key (e.g., "items_svd_k10_3f2a9c01").
	Model string `json:"model"`

	// Fingerprint is the content hash of the dataset the snapshot was computed on.
	Fingerprint uint64 `json:"fingerprint"`

	// Rows and Cols are the matrix dimensions.
	Rows int `json:"rows"`
	Cols int `json:"cols"`

	// Checksum is the SHA-256 checksum of the uncompressed matrix data.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// SavedAt is when the snapshot was saved.
	SavedAt time.Time `json:"saved_at"`
}

// SnapshotStore implements similarity snapshot persistence using BadgerDB.
type SnapshotStore struct {
	db *badger.DB
}

// OpenSnapshotStore opens (or creates) a snapshot store at path.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB internal logs
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for snapshots: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

// NewSnapshotStoreFromDB creates a snapshot store from an existing BadgerDB connection.
func NewSnapshotStoreFromDB(db *badger.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// SaveSimilarities stores a similarity matrix for (model, fingerprint) and
// marks it as the latest snapshot of the model.
func (s *SnapshotStore) SaveSimilarities(ctx context.Context, model string, fingerprint uint64, sim *mat.Dense) error {
	if model == "" {
		return errors.New("model key cannot be empty")
	}
	if sim == nil {
		return errors.New("similarity matrix cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := sim.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode matrix: %w", err)
	}

	hash := sha256.Sum256(raw)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return fmt.Errorf("compress matrix: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	rows, cols := sim.Dims()
	meta := SnapshotMetadata{
		Model:       model,
		Fingerprint: fingerprint,
		Rows:        rows,
		Cols:        cols,
		Checksum:    hex.EncodeToString(hash[:]),
		SizeBytes:   int64(compressed.Len()),
		SavedAt:     time.Now().UTC(),
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal snapshot metadata: %w", err)
	}

	id := snapshotID(model, fingerprint)
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(snapshotKeyPrefix+id), compressed.Bytes()); err != nil {
			return fmt.Errorf("set snapshot: %w", err)
		}
		if err := txn.Set([]byte(metaKeyPrefix+id), metaData); err != nil {
			return fmt.Errorf("set snapshot metadata: %w", err)
		}
		fp := strconv.FormatUint(fingerprint, 16)
		if err := txn.Set([]byte(latestKeyPrefix+model), []byte(fp)); err != nil {
			return fmt.Errorf("set latest pointer: %w", err)
		}
		return nil
	})
}

// LoadSimilarities loads the snapshot for (model, fingerprint).
// ok is false when no snapshot exists.
func (s *SnapshotStore) LoadSimilarities(ctx context.Context, model string, fingerprint uint64) (*mat.Dense, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	sim, _, err := s.load(snapshotID(model, fingerprint))
	if errors.Is(err, ErrSnapshotNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return sim, true, nil
}

// LoadLatest loads the most recently saved snapshot of a model regardless of
// the dataset it was computed on.
func (s *SnapshotStore) LoadLatest(ctx context.Context, model string) (*mat.Dense, *SnapshotMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var fp string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKeyPrefix + model))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSnapshotNotFound
		}
		if err != nil {
			return fmt.Errorf("get latest pointer: %w", err)
		}
		return item.Value(func(val []byte) error {
			fp = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}

	return s.load(model + ":" + fp)
}

// List returns metadata for all stored snapshots ordered by model and save time.
func (s *SnapshotStore) List(ctx context.Context) ([]SnapshotMetadata, error) {
	var snapshots []SnapshotMetadata

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(metaKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var meta SnapshotMetadata
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			})
			if err != nil {
				return fmt.Errorf("decode snapshot metadata: %w", err)
			}
			snapshots = append(snapshots, meta)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		if snapshots[i].Model != snapshots[j].Model {
			return snapshots[i].Model < snapshots[j].Model
		}
		return snapshots[i].SavedAt.Before(snapshots[j].SavedAt)
	})
	return snapshots, nil
}

// Delete removes the snapshot for (model, fingerprint).
// Deleting a missing snapshot is not an error.
func (s *SnapshotStore) Delete(ctx context.Context, model string, fingerprint uint64) error {
	id := snapshotID(model, fingerprint)
	fp := strconv.FormatUint(fingerprint, 16)

	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range []string{snapshotKeyPrefix + id, metaKeyPrefix + id} {
			if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}

		item, err := txn.Get([]byte(latestKeyPrefix + model))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get latest pointer: %w", err)
		}
		var latest string
		if err := item.Value(func(val []byte) error {
			latest = string(val)
			return nil
		}); err != nil {
			return err
		}
		if latest == fp {
			return txn.Delete([]byte(latestKeyPrefix + model))
		}
		return nil
	})
}

// load reads and verifies a snapshot by its "{model}:{fingerprint}" id.
func (s *SnapshotStore) load(id string) (*mat.Dense, *SnapshotMetadata, error) {
	var (
		meta       SnapshotMetadata
		compressed []byte
	)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSnapshotNotFound
		}
		if err != nil {
			return fmt.Errorf("get snapshot metadata: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		}); err != nil {
			return fmt.Errorf("decode snapshot metadata: %w", err)
		}

		item, err = txn.Get([]byte(snapshotKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSnapshotNotFound
		}
		if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}
		compressed, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, nil, fmt.Errorf("read decompressed snapshot: %w", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != meta.Checksum {
		return nil, nil, fmt.Errorf("checksum mismatch: expected %s, got %s", meta.Checksum, checksum)
	}

	var sim mat.Dense
	if err := sim.UnmarshalBinary(raw); err != nil {
		return nil, nil, fmt.Errorf("decode matrix: %w", err)
	}

	return &sim, &meta, nil
}

// snapshotID builds the "{model}:{fingerprint}" key suffix.
func snapshotID(model string, fingerprint uint64) string {
	return model + ":" + strconv.FormatUint(fingerprint, 16)
}
