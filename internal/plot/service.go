package plot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/biorempp/biorempp/internal/cache"
	"github.com/biorempp/biorempp/internal/config"
	"github.com/biorempp/biorempp/internal/dataframe"
	"github.com/biorempp/biorempp/internal/errs"
	"github.com/biorempp/biorempp/internal/figure"
	"github.com/biorempp/biorempp/internal/metrics"
)

// noFiltersSentinel keys requests that carry no filters, so an empty filter
// map and a nil one address the same cache entry.
const noFiltersSentinel = "nofilters"

// Request describes one plot generation call.
type Request struct {
	// UseCase is the "<module>.<case>" id of the analysis to run.
	UseCase string
	// Data is the table the chart is computed from.
	Data *dataframe.Frame
	// Filters constrain the rows participating in the chart and take part in
	// the cache key.
	Filters map[string]any
	// Customizations tweak presentation (e.g. "title") without affecting the
	// cache key.
	Customizations map[string]any
	// ForceRefresh bypasses the cache lookup and overwrites the stored entry.
	ForceRefresh bool
}

// Options configures a Service. Provider and Graphs are required.
type Options struct {
	Provider *config.Provider
	Graphs   *cache.Manager
	Registry *Registry
	Logger   *slog.Logger
	Metrics  *metrics.Recorder
	// DefaultTTL applies to cached figures when the use case does not declare
	// a graph-layer ttl.
	DefaultTTL time.Duration
}

// Service orchestrates plot generation: it loads the use-case document,
// derives the cache key, consults the figure cache, and only invokes the
// rendering strategy on a miss.
type Service struct {
	provider   *config.Provider
	graphs     *cache.Manager
	registry   *Registry
	logger     *slog.Logger
	metrics    *metrics.Recorder
	defaultTTL time.Duration
}

// NewService wires a plot service from its collaborators.
func NewService(opts Options) (*Service, error) {
	if opts.Provider == nil {
		return nil, errors.New("plot: use-case provider required")
	}
	if opts.Graphs == nil {
		return nil, errors.New("plot: graph cache manager required")
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = time.Hour
	}
	return &Service{
		provider:   opts.Provider,
		graphs:     opts.Graphs,
		registry:   opts.Registry,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		defaultTTL: opts.DefaultTTL,
	}, nil
}

// GeneratePlot runs one plot request end to end. Cache hits short-circuit
// before the strategy is resolved; strategy failures are logged and propagated
// unmodified, and nothing is cached for them.
func (s *Service) GeneratePlot(ctx context.Context, req Request) (*figure.Figure, error) {
	start := time.Now()

	id, err := config.ParseUseCaseID(req.UseCase)
	if err != nil {
		return nil, err
	}
	if req.Data == nil {
		return nil, errs.Validationf("plot: use case %s: request data required", id)
	}

	uc, err := s.provider.Load(id, req.ForceRefresh)
	if err != nil {
		return nil, err
	}

	key, err := s.deriveKey(id, uc, req)
	if err != nil {
		return nil, err
	}

	cacheEnabled := uc.Performance.Cache.Enabled
	if cacheEnabled && !req.ForceRefresh {
		fig, ok, err := s.graphs.GetCachedGraph(ctx, key)
		if err != nil {
			// A degraded cache backend must not take plotting down with it.
			s.logger.Warn("graph cache lookup failed, regenerating", "use_case", id.String(), "key", key, "error", err)
		} else if ok {
			s.metrics.ObservePlot(id.String(), "success", true, time.Since(start))
			s.logger.Debug("plot served from cache", "use_case", id.String(), "key", key)
			return fig, nil
		}
	}

	strategy, err := s.registry.New(uc.Visualization.Strategy, uc)
	if err != nil {
		s.metrics.ObservePlot(id.String(), "error", false, time.Since(start))
		return nil, err
	}

	fig, err := strategy.GeneratePlot(ctx, req.Data, req.Filters, req.Customizations)
	if err != nil {
		s.metrics.ObservePlot(id.String(), "error", false, time.Since(start))
		s.logger.Error("plot generation failed",
			"use_case", id.String(),
			"strategy", uc.Visualization.Strategy,
			"error", err,
		)
		return nil, err
	}

	if cacheEnabled {
		ttl := s.defaultTTL
		if layer, ok := uc.Performance.Cache.Layer(cache.LayerGraph); ok && layer.TTLSeconds > 0 {
			ttl = time.Duration(layer.TTLSeconds) * time.Second
		}
		metadata := map[string]any{
			"use_case": id.String(),
			"strategy": uc.Visualization.Strategy,
			"rows":     req.Data.NumRows(),
		}
		if err := s.graphs.CacheGraph(ctx, key, fig, metadata, ttl); err != nil {
			s.logger.Warn("graph cache store failed, serving uncached", "use_case", id.String(), "key", key, "error", err)
		}
	}

	s.metrics.ObservePlot(id.String(), "success", false, time.Since(start))
	s.logger.Debug("plot generated",
		"use_case", id.String(),
		"strategy", uc.Visualization.Strategy,
		"cached", cacheEnabled,
		"duration", time.Since(start),
	)
	return fig, nil
}

// ClearCache drops cached figures. An empty id clears everything; otherwise
// only the entries of that use case are removed.
func (s *Service) ClearCache(ctx context.Context, useCaseID string) error {
	if useCaseID == "" {
		return s.graphs.Clear(ctx)
	}
	id, err := config.ParseUseCaseID(useCaseID)
	if err != nil {
		return err
	}
	return s.graphs.ClearPrefix(ctx, useCasePrefix(id))
}

// CacheStats snapshots the figure cache backend.
func (s *Service) CacheStats(ctx context.Context) (cache.Stats, error) {
	return s.graphs.Stats(ctx)
}

// Close releases the cache backend.
func (s *Service) Close(ctx context.Context) error {
	return s.graphs.Close(ctx)
}

// deriveKey builds the full cache key for a request: the use-case prefix plus
// the rendered key template. The data hash fingerprints the table; the
// filters hash canonicalizes the filter map.
func (s *Service) deriveKey(id config.UseCaseID, uc *config.UseCase, req Request) (string, error) {
	tpl := cache.DefaultGraphKeyTemplate
	if layer, ok := uc.Performance.Cache.Layer(cache.LayerGraph); ok && layer.KeyTemplate != "" {
		tpl = layer.KeyTemplate
	}
	filtersHash, err := hashFilters(req.Filters)
	if err != nil {
		return "", err
	}
	rendered, err := cache.RenderKeyTemplate(tpl, map[string]string{
		"data_hash":    req.Data.Fingerprint(""),
		"filters_hash": filtersHash,
	})
	if err != nil {
		return "", err
	}
	return useCasePrefix(id) + rendered, nil
}

// useCasePrefix scopes cache keys to one use case so per-use-case clearing is
// a prefix delete.
func useCasePrefix(id config.UseCaseID) string {
	return "uc:" + id.String() + ":"
}

func hashFilters(filters map[string]any) (string, error) {
	if len(filters) == 0 {
		return noFiltersSentinel, nil
	}
	// json.Marshal sorts map keys, giving a canonical form.
	payload, err := json.Marshal(filters)
	if err != nil {
		return "", errs.Validationf("plot: filters not serializable: %v", err)
	}
	digest := sha256.Sum256(payload)
	return hex.EncodeToString(digest[:])[:16], nil
}
