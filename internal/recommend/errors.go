// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package recommend

import "errors"

var (
	// ErrUnsupportedOperation is returned when a capability is requested from
	// a component that does not provide it, e.g. user embeddings from an
	// item-only algorithm.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrInsufficientData is returned when there is not enough data to
	// produce a result, e.g. padding a recommendation list for a subject
	// with no activity.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUnmappedLabel is returned when a ScoresChart has no weight for an
	// interaction label present in the data.
	ErrUnmappedLabel = errors.New("label not mapped by scores chart")

	// ErrUnknownPartition is returned for a dataset partition the data
	// source does not know.
	ErrUnknownPartition = errors.New("unknown dataset partition")

	// ErrDuplicateInteraction is returned when a dataset contains the same
	// (user, item) pair twice.
	ErrDuplicateInteraction = errors.New("duplicate interaction")

	// ErrInvalidIndex is returned for negative or out-of-range indices.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrMisaligned is returned when parallel inputs differ in length.
	ErrMisaligned = errors.New("inputs not aligned")

	// ErrLOONotPrepared is returned when the LOO partition is read before
	// PrepareLOO has been called.
	ErrLOONotPrepared = errors.New("leave-one-out dataset not prepared")
)
