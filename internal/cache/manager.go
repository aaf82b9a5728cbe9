package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/biorempp/biorempp/internal/figure"
	"github.com/biorempp/biorempp/internal/metrics"
)

// FigureStore abstracts where serialized figures live so the manager can be
// backed by the in-process LRU tier or by redis without the orchestrator
// noticing.
type FigureStore interface {
	Put(ctx context.Context, key string, fig *figure.Figure, ttl time.Duration) error
	Get(ctx context.Context, key string) (*figure.Figure, bool, error)
	DeletePrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	Close(ctx context.Context) error
}

// memoryFigureStore adapts FigureCache to the FigureStore contract. The
// context is unused; the tier never blocks.
type memoryFigureStore struct {
	cache *FigureCache
}

// NewMemoryFigureStore wraps an in-process figure cache as a FigureStore.
func NewMemoryFigureStore(cache *FigureCache) FigureStore {
	return &memoryFigureStore{cache: cache}
}

func (s *memoryFigureStore) Put(_ context.Context, key string, fig *figure.Figure, ttl time.Duration) error {
	return s.cache.Put(key, fig, ttl)
}

func (s *memoryFigureStore) Get(_ context.Context, key string) (*figure.Figure, bool, error) {
	return s.cache.Get(key)
}

func (s *memoryFigureStore) DeletePrefix(_ context.Context, prefix string) error {
	s.cache.DeletePrefix(prefix)
	return nil
}

func (s *memoryFigureStore) Clear(context.Context) error {
	s.cache.Clear()
	return nil
}

func (s *memoryFigureStore) Stats(context.Context) (Stats, error) {
	return s.cache.Stats(), nil
}

func (s *memoryFigureStore) Close(context.Context) error { return nil }

// Manager is the stable facade the plot service uses for figure caching. It
// owns observability around the store; callers never see which backend is in
// play.
type Manager struct {
	store   FigureStore
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewManager wires a figure store with logging and metrics. The logger must
// not be nil; the recorder may be.
func NewManager(store FigureStore, logger *slog.Logger, recorder *metrics.Recorder) *Manager {
	return &Manager{store: store, logger: logger, metrics: recorder}
}

// CacheGraph stores a figure under key. Metadata is logged for observability
// only; it never affects storage or retrieval.
func (m *Manager) CacheGraph(ctx context.Context, key string, fig *figure.Figure, metadata map[string]any, ttl time.Duration) error {
	if err := m.store.Put(ctx, key, fig, ttl); err != nil {
		m.metrics.ObserveCacheStore(LayerGraph, metrics.CacheStoreError)
		m.logger.Error("graph cache store failed", "key", key, "error", err)
		return err
	}
	m.metrics.ObserveCacheStore(LayerGraph, metrics.CacheStoreStored)
	m.publishSize(ctx)
	m.logger.Debug("graph cached", "key", key, "ttl", ttl, "metadata", metadata)
	return nil
}

// GetCachedGraph retrieves the figure stored under key, if any.
func (m *Manager) GetCachedGraph(ctx context.Context, key string) (*figure.Figure, bool, error) {
	fig, ok, err := m.store.Get(ctx, key)
	switch {
	case err != nil:
		m.metrics.ObserveCacheLookup(LayerGraph, metrics.CacheLookupError)
		m.logger.Error("graph cache lookup failed", "key", key, "error", err)
		return nil, false, err
	case ok:
		m.metrics.ObserveCacheLookup(LayerGraph, metrics.CacheLookupHit)
	default:
		m.metrics.ObserveCacheLookup(LayerGraph, metrics.CacheLookupMiss)
	}
	return fig, ok, nil
}

// Clear drops every cached figure.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.publishSize(ctx)
	m.logger.Info("graph cache cleared")
	return nil
}

// ClearPrefix drops every cached figure whose key starts with prefix.
func (m *Manager) ClearPrefix(ctx context.Context, prefix string) error {
	if err := m.store.DeletePrefix(ctx, prefix); err != nil {
		return err
	}
	m.publishSize(ctx)
	m.logger.Info("graph cache cleared by prefix", "prefix", prefix)
	return nil
}

// Stats snapshots the underlying store.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	return m.store.Stats(ctx)
}

// Close releases backend resources.
func (m *Manager) Close(ctx context.Context) error {
	return m.store.Close(ctx)
}

func (m *Manager) publishSize(ctx context.Context) {
	if m.metrics == nil {
		return
	}
	stats, err := m.store.Stats(ctx)
	if err != nil {
		return
	}
	m.metrics.SetCacheEntries(LayerGraph, float64(stats.CurrentSize))
}
