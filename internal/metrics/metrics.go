package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CacheOperation identifies the cache method being instrumented.
type CacheOperation string

const (
	// CacheOperationLookup records figure cache lookup calls.
	CacheOperationLookup CacheOperation = "lookup"
	// CacheOperationStore records figure cache store attempts.
	CacheOperationStore CacheOperation = "store"
)

// CacheLookupOutcome captures the result of a cache lookup.
type CacheLookupOutcome string

const (
	// CacheLookupHit indicates the lookup reused a cached figure.
	CacheLookupHit CacheLookupOutcome = "hit"
	// CacheLookupMiss indicates no cached figure was present.
	CacheLookupMiss CacheLookupOutcome = "miss"
	// CacheLookupError indicates the lookup failed due to an error.
	CacheLookupError CacheLookupOutcome = "error"
)

// CacheStoreOutcome captures the result of a cache store attempt.
type CacheStoreOutcome string

const (
	// CacheStoreStored indicates the figure cache entry was persisted.
	CacheStoreStored CacheStoreOutcome = "stored"
	// CacheStoreError indicates the store operation failed.
	CacheStoreError CacheStoreOutcome = "error"
)

// Recorder publishes Prometheus metrics for plot generation and caching.
type Recorder struct {
	gatherer prometheus.Gatherer
	handler  http.Handler

	plotRequests *prometheus.CounterVec
	plotLatency  *prometheus.HistogramVec

	cacheOperations *prometheus.CounterVec
	cacheEntries    *prometheus.GaugeVec
}

// NewRecorder constructs a Prometheus-backed Recorder. When reg is nil a
// dedicated registry is created so multiple recorders can coexist without
// conflicting with the global default registerer.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	plotRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "biorempp",
		Subsystem: "plots",
		Name:      "requests_total",
		Help:      "Total plot generation requests processed by the service.",
	}, []string{"use_case", "outcome", "from_cache"})

	plotLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "biorempp",
		Subsystem: "plots",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for completed plot generation requests.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"use_case", "outcome"})

	cacheOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "biorempp",
		Subsystem: "cache",
		Name:      "operations_total",
		Help:      "Cache operations executed by the plot service.",
	}, []string{"layer", "operation", "result"})

	cacheEntries := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "biorempp",
		Subsystem: "cache",
		Name:      "entries",
		Help:      "Current number of live entries per cache layer.",
	}, []string{"layer"})

	reg.MustRegister(plotRequests, plotLatency, cacheOperations, cacheEntries)

	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	return &Recorder{
		gatherer:        reg,
		handler:         handler,
		plotRequests:    plotRequests,
		plotLatency:     plotLatency,
		cacheOperations: cacheOperations,
		cacheEntries:    cacheEntries,
	}
}

// Handler exposes the Prometheus HTTP handler for the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

// Gatherer returns the underlying Prometheus gatherer for tests and advanced
// integrations.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.gatherer
}

// ObservePlot records the outcome and latency for a completed plot request.
func (r *Recorder) ObservePlot(useCase, outcome string, fromCache bool, duration time.Duration) {
	if r == nil {
		return
	}
	useCaseLabel := normalizeLabel(useCase)
	outcomeLabel := normalizeLabel(outcome)
	cacheLabel := "false"
	if fromCache {
		cacheLabel = "true"
	}
	r.plotRequests.WithLabelValues(useCaseLabel, outcomeLabel, cacheLabel).Inc()
	r.plotLatency.WithLabelValues(useCaseLabel, outcomeLabel).Observe(duration.Seconds())
}

// ObserveCacheLookup records the result of a cache lookup.
func (r *Recorder) ObserveCacheLookup(layer string, result CacheLookupOutcome) {
	if r == nil {
		return
	}
	resultLabel := string(result)
	if resultLabel == "" {
		resultLabel = string(CacheLookupMiss)
	}
	r.cacheOperations.WithLabelValues(normalizeLabel(layer), string(CacheOperationLookup), resultLabel).Inc()
}

// ObserveCacheStore records the result of a cache store attempt.
func (r *Recorder) ObserveCacheStore(layer string, result CacheStoreOutcome) {
	if r == nil {
		return
	}
	resultLabel := string(result)
	if resultLabel == "" {
		resultLabel = string(CacheStoreError)
	}
	r.cacheOperations.WithLabelValues(normalizeLabel(layer), string(CacheOperationStore), resultLabel).Inc()
}

// SetCacheEntries publishes the current entry count for a cache layer.
func (r *Recorder) SetCacheEntries(layer string, count float64) {
	if r == nil {
		return
	}
	r.cacheEntries.WithLabelValues(normalizeLabel(layer)).Set(count)
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
