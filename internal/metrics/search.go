package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search Prometheus metrics.
var (
	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "facetdex",
			Name:      "batch_duration_seconds",
			Help:      "Search batch round trip duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	BatchEntries = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "facetdex",
			Name:      "batch_entries",
			Help:      "Number of queries per search batch",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		},
	)

	BatchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetdex",
			Name:      "batch_errors_total",
			Help:      "Total failed search batches and batch entries",
		},
		[]string{"kind"}, // "batch" / "entry"
	)

	DefinitionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetdex",
			Name:      "definition_cache_total",
			Help:      "Document definition cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ReferenceCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetdex",
			Name:      "reference_cache_total",
			Help:      "Reference code table cache hits and misses",
		},
		[]string{"result"},
	)
)

var searchOnce sync.Once

// RegisterSearchMetrics registers the search metrics with the default
// registry. Safe to call more than once.
func RegisterSearchMetrics() {
	searchOnce.Do(func() {
		prometheus.MustRegister(
			BatchDuration,
			BatchEntries,
			BatchErrorsTotal,
			DefinitionCacheTotal,
			ReferenceCacheTotal,
		)
	})
}

// CacheObserver counts definition cache hits and misses.
type CacheObserver struct{}

// CacheHit records a hit.
func (CacheObserver) CacheHit(string) { DefinitionCacheTotal.WithLabelValues("hit").Inc() }

// CacheMiss records a miss.
func (CacheObserver) CacheMiss(string) { DefinitionCacheTotal.WithLabelValues("miss").Inc() }
