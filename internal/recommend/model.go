// Seen - Implicit-Feedback Recommendation Evaluation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seen

package recommend

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/seen/internal/logging"
	"github.com/tomtom215/seen/internal/metrics"
)

// SimilaritySource produces an item-item similarity matrix for a dataset.
// Both Model and PopularityModel implement it.
type SimilaritySource interface {
	// Key identifies the source in logs, reports and snapshot storage.
	Key() string

	// Similarities returns the (nItems x nItems) similarity matrix.
	// The returned matrix is shared and must not be modified.
	Similarities(ctx context.Context, data *Dataset) (*mat.Dense, error)
}

// SnapshotStore persists similarity matrices across runs.
type SnapshotStore interface {
	LoadSimilarities(ctx context.Context, model string, fingerprint uint64) (*mat.Dense, bool, error)
	SaveSimilarities(ctx context.Context, model string, fingerprint uint64, sim *mat.Dense) error
}

// modelState is an immutable cache snapshot for one dataset fingerprint.
type modelState struct {
	fingerprint uint64
	embeddings  *Embeddings
	sim         *mat.Dense
}

// Model pairs an embedding provider with a similarity function and caches
// the results for the most recently seen dataset.
//
// Readers load the cache state atomically. Recomputation is serialized by a
// mutex so concurrent callers for the same dataset fit only once.
type Model struct {
	provider EmbeddingProvider
	k        int
	key      string
	simFunc  SimilarityFunction
	store    SnapshotStore
	logger   zerolog.Logger

	state atomic.Pointer[modelState]
	mu    sync.Mutex
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithSnapshotStore enables the persistent similarity tier.
func WithSnapshotStore(store SnapshotStore) ModelOption {
	return func(m *Model) {
		m.store = store
	}
}

// NewModel creates a model fitting k-dimensional embeddings with provider.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewModel(provider EmbeddingProvider, k int, simFunc SimilarityFunction, logger zerolog.Logger, opts ...ModelOption) *Model {
	m := &Model{
		provider: provider,
		k:        k,
		key:      modelKey(provider, k),
		simFunc:  simFunc,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.WithComponent(logger, "model").With().
		Str("model", m.Key()).
		Logger()
	return m
}

// Key returns the model identifier, e.g. "items_svd_k10_3f2a9c01". The
// suffix is a hash of the provider parameters, so models that differ only
// in those never share a snapshot.
func (m *Model) Key() string {
	return m.key
}

func modelKey(provider EmbeddingProvider, k int) string {
	key := fmt.Sprintf("%s_k%d", provider.Name(), k)
	if pp, ok := provider.(ParameterizedProvider); ok {
		if params := pp.Params(); params != "" {
			key += fmt.Sprintf("_%08x", uint32(xxhash.Sum64String(params))) //nolint:gosec // truncation intended
		}
	}
	return key
}

// SimilarityFunction returns the similarity function of the model.
func (m *Model) SimilarityFunction() SimilarityFunction {
	return m.simFunc
}

// Embeddings returns the embeddings for data, fitting them on a cache miss.
func (m *Model) Embeddings(ctx context.Context, data *Dataset) (*Embeddings, error) {
	fp := data.Fingerprint()
	if st := m.state.Load(); st != nil && st.fingerprint == fp && st.embeddings != nil {
		metrics.RecordCacheLookup("embeddings", true)
		return st.embeddings, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embeddingsLocked(ctx, data)
}

// UserEmbeddings returns the user embedding matrix or ErrUnsupportedOperation
// when the provider only embeds items.
func (m *Model) UserEmbeddings(ctx context.Context, data *Dataset) (*mat.Dense, error) {
	emb, err := m.Embeddings(ctx, data)
	if err != nil {
		return nil, err
	}
	return emb.UserEmbeddings()
}

// Similarities returns the item-item similarity matrix for data.
//
// Lookup order: in-memory cache, snapshot store (when configured), fresh
// computation from the embeddings. Snapshot store failures are logged and
// otherwise ignored.
func (m *Model) Similarities(ctx context.Context, data *Dataset) (*mat.Dense, error) {
	fp := data.Fingerprint()
	if st := m.state.Load(); st != nil && st.fingerprint == fp && st.sim != nil {
		metrics.RecordCacheLookup("similarities", true)
		return st.sim, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have filled the cache while we waited.
	st := m.state.Load()
	if st != nil && st.fingerprint == fp && st.sim != nil {
		metrics.RecordCacheLookup("similarities", true)
		return st.sim, nil
	}
	metrics.RecordCacheLookup("similarities", false)

	if sim := m.loadSnapshot(ctx, fp); sim != nil {
		m.storeState(fp, nil, sim)
		return sim, nil
	}

	emb, err := m.embeddingsLocked(ctx, data)
	if err != nil {
		return nil, err
	}

	sim := m.simFunc.Pairwise(emb.Items)
	m.storeState(fp, emb, sim)
	m.saveSnapshot(ctx, fp, sim)

	return sim, nil
}

// embeddingsLocked fits embeddings on a cache miss. Caller holds m.mu.
func (m *Model) embeddingsLocked(ctx context.Context, data *Dataset) (*Embeddings, error) {
	fp := data.Fingerprint()
	if st := m.state.Load(); st != nil && st.fingerprint == fp && st.embeddings != nil {
		metrics.RecordCacheLookup("embeddings", true)
		return st.embeddings, nil
	}
	metrics.RecordCacheLookup("embeddings", false)

	m.logger.Info().
		Str("algorithm", m.provider.Name()).
		Int("k", m.k).
		Int("interactions", data.Len()).
		Msg("fitting embeddings")

	start := time.Now()
	emb, err := m.provider.Fit(ctx, data, m.k)
	metrics.RecordModelFit(m.provider.Name(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("fit %s: %w", m.Key(), err)
	}

	m.logger.Debug().
		Dur("duration", time.Since(start)).
		Bool("user_embeddings", emb.Users != nil).
		Msg("embeddings fitted")

	m.storeState(fp, emb, nil)
	return emb, nil
}

// storeState publishes a new cache state, keeping cached values of the same
// fingerprint that the caller did not provide. Caller holds m.mu.
func (m *Model) storeState(fp uint64, emb *Embeddings, sim *mat.Dense) {
	next := &modelState{fingerprint: fp, embeddings: emb, sim: sim}
	if prev := m.state.Load(); prev != nil && prev.fingerprint == fp {
		if next.embeddings == nil {
			next.embeddings = prev.embeddings
		}
		if next.sim == nil {
			next.sim = prev.sim
		}
	}
	m.state.Store(next)
}

func (m *Model) loadSnapshot(ctx context.Context, fp uint64) *mat.Dense {
	if m.store == nil {
		return nil
	}

	sim, ok, err := m.store.LoadSimilarities(ctx, m.Key(), fp)
	switch {
	case err != nil:
		metrics.RecordSnapshotOperation("load", "error")
		m.logger.Warn().Err(err).Msg("failed to load similarity snapshot")
		return nil
	case !ok:
		metrics.RecordSnapshotOperation("load", "miss")
		return nil
	}

	metrics.RecordSnapshotOperation("load", "hit")
	m.logger.Debug().Uint64("fingerprint", fp).Msg("loaded similarity snapshot")
	return sim
}

func (m *Model) saveSnapshot(ctx context.Context, fp uint64, sim *mat.Dense) {
	if m.store == nil {
		return
	}

	if err := m.store.SaveSimilarities(ctx, m.Key(), fp, sim); err != nil {
		metrics.RecordSnapshotOperation("save", "error")
		m.logger.Warn().Err(err).Msg("failed to save similarity snapshot")
		return
	}
	metrics.RecordSnapshotOperation("save", "ok")
}

// PopularityModel is a similarity source where every item's similarity row
// is the global popularity rank vector. Neighbor search over it therefore
// returns the most popular items for every subject.
type PopularityModel struct {
	logger zerolog.Logger

	state atomic.Pointer[modelState]
	mu    sync.Mutex
}

// NewPopularityModel creates a popularity similarity source.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPopularityModel(logger zerolog.Logger) *PopularityModel {
	return &PopularityModel{
		logger: logging.WithComponent(logger, "model").With().Str("model", "popularity").Logger(),
	}
}

// Key returns "popularity".
func (p *PopularityModel) Key() string {
	return "popularity"
}

// Embeddings is not supported by the popularity model.
func (p *PopularityModel) Embeddings(_ context.Context, _ *Dataset) (*Embeddings, error) {
	return nil, fmt.Errorf("popularity model embeddings: %w", ErrUnsupportedOperation)
}

// Similarities returns an (nItems x nItems) matrix whose rows all equal the
// popularity rank vector: 0 for the least interacted item up to nItems-1 for
// the most interacted one. Ties keep ascending item order.
func (p *PopularityModel) Similarities(_ context.Context, data *Dataset) (*mat.Dense, error) {
	fp := data.Fingerprint()
	if st := p.state.Load(); st != nil && st.fingerprint == fp {
		metrics.RecordCacheLookup("similarities", true)
		return st.sim, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if st := p.state.Load(); st != nil && st.fingerprint == fp {
		metrics.RecordCacheLookup("similarities", true)
		return st.sim, nil
	}
	metrics.RecordCacheLookup("similarities", false)

	n := data.NumItems()
	if n == 0 {
		return nil, fmt.Errorf("popularity model: %w", ErrInsufficientData)
	}

	ranks := PopularityRanks(data.ItemCounts())
	sim := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		sim.SetRow(i, ranks)
	}

	p.logger.Debug().Int("items", n).Msg("computed popularity ranks")
	p.state.Store(&modelState{fingerprint: fp, sim: sim})
	return sim, nil
}

// PopularityRanks converts per-item counts to ascending popularity ranks.
// The least popular item gets rank 0; ties are ranked by ascending index.
func PopularityRanks(counts []int) []float64 {
	values := make([]float64, len(counts))
	for i, c := range counts {
		values[i] = float64(c)
	}
	order := make([]int, len(values))
	floats.ArgsortStable(values, order)

	ranks := make([]float64, len(counts))
	for rank, item := range order {
		ranks[item] = float64(rank)
	}
	return ranks
}
