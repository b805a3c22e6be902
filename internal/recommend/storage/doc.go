// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

// Package storage persists item-item similarity snapshots in BadgerDB.
//
// A snapshot is the similarity matrix a model computed for one dataset. It is
// keyed by the model key (algorithm name and dimension) and the dataset
// fingerprint, so a snapshot is only ever reused for identical data.
//
// # Storage Format
//
//	snapshot:{model}:{fingerprint}  gzip-compressed gonum binary matrix
//	meta:{model}:{fingerprint}      JSON SnapshotMetadata
//	latest:{model}                  fingerprint of the most recent save
//
// Payloads carry a SHA-256 checksum in their metadata which is verified on
// every load.
//
// # Usage Example
//
//	store, err := storage.OpenSnapshotStore("/var/lib/seen/snapshots")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	model := recommend.NewModel(provider, 10, sim, logger, recommend.WithSnapshotStore(store))
//
// # Thread Safety
//
// All operations run in BadgerDB transactions and are safe for concurrent use.
package storage
