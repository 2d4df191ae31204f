// Package metrics exports Prometheus collectors for the archive caches
// and the search pipeline. Collectors are registered once on the default
// registry; Handler serves them on the HTTP transport.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "zim_mcp"

// Cache names used as the "cache" label.
const (
	CacheArchives = "archives"
	CacheSearch   = "search"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Total cache hits",
	}, []string{"cache"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Total cache misses",
	}, []string{"cache"})

	cacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_evictions_total",
		Help:      "Total entries evicted at capacity",
	}, []string{"cache"})

	archiveOpens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "archive_opens_total",
		Help:      "Archive open attempts by result",
	}, []string{"result"})

	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_duration_seconds",
		Help:      "Time to answer a search request",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"scope"})

	entriesExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_extracted_total",
		Help:      "Entries extracted by content format",
	}, []string{"format"})
)

// CacheObserver forwards cache events to the counters labelled name.
// It satisfies cache.Observer.
type CacheObserver struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
}

// NewCacheObserver returns an observer for the named cache.
func NewCacheObserver(name string) *CacheObserver {
	return &CacheObserver{
		hits:      cacheHits.WithLabelValues(name),
		misses:    cacheMisses.WithLabelValues(name),
		evictions: cacheEvictions.WithLabelValues(name),
	}
}

// Hit records a cache hit.
func (o *CacheObserver) Hit() { o.hits.Inc() }

// Miss records a cache miss.
func (o *CacheObserver) Miss() { o.misses.Inc() }

// Evict records a capacity eviction.
func (o *CacheObserver) Evict() { o.evictions.Inc() }

// ArchiveOpened records the outcome of an archive open.
func ArchiveOpened(err error) {
	if err != nil {
		archiveOpens.WithLabelValues("error").Inc()
		return
	}
	archiveOpens.WithLabelValues("ok").Inc()
}

// ObserveSearch records the duration of a search since start.
// scope is "one" for a single archive and "many" for a fan-out.
func ObserveSearch(scope string, start time.Time) {
	searchDuration.WithLabelValues(scope).Observe(time.Since(start).Seconds())
}

// EntryExtracted counts one extraction in format.
func EntryExtracted(format string) {
	entriesExtracted.WithLabelValues(format).Inc()
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
