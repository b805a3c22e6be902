// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/seen/internal/config"
	"github.com/tomtom215/seen/internal/recommend/storage"
)

// runSnapshots lists the stored similarity snapshots. With -delete, the
// snapshots of one model are removed first.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func runSnapshots(ctx context.Context, cfg *config.Config, args []string, out io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("snapshots", flag.ContinueOnError)
	model := fs.String("delete", "", "delete every snapshot of this model key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !cfg.Snapshots.Enabled {
		return errSnapshotsDisabled
	}

	store, err := storage.OpenSnapshotStore(cfg.Snapshots.Path)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close snapshot store")
		}
	}()

	snapshots, err := store.List(ctx)
	if err != nil {
		return err
	}

	if *model != "" {
		kept := make([]storage.SnapshotMetadata, 0, len(snapshots))
		deleted := 0
		for _, meta := range snapshots {
			if meta.Model != *model {
				kept = append(kept, meta)
				continue
			}
			if err := store.Delete(ctx, meta.Model, meta.Fingerprint); err != nil {
				return fmt.Errorf("delete snapshot %s/%x: %w", meta.Model, meta.Fingerprint, err)
			}
			deleted++
		}
		if deleted == 0 {
			return fmt.Errorf("model %s: %w", *model, storage.ErrSnapshotNotFound)
		}
		logger.Info().Str("model", *model).Int("deleted", deleted).Msg("snapshots deleted")
		snapshots = kept
	}

	if snapshots == nil {
		snapshots = []storage.SnapshotMetadata{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshots)
}
