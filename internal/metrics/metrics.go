// Package metrics provides Prometheus metrics for price resolution.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the resolver pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Resolver metrics
	Resolutions *prometheus.CounterVec

	// Adapter metrics
	FetchOutcomes *prometheus.CounterVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Upstream HTTP metrics
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
}

// New creates a Metrics instance registered with reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "wealthprice"
	}
	f := promauto.With(reg)

	return &Metrics{
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Total number of price resolutions by asset class and final source",
		}, []string{"asset_class", "source"}),
		FetchOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetch_outcomes_total",
			Help:      "Total number of adapter fetches by provider and outcome",
		}, []string{"provider", "outcome"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of cache lookups by cache name and result",
		}, []string{"cache", "result"}),
		UpstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of upstream HTTP requests by status code and method",
		}, []string{"code", "method"}),
		UpstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Resolved records the final source chosen for one resolution.
func (m *Metrics) Resolved(assetClass, source string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(assetClass, source).Inc()
}

// Fetched records an adapter outcome; outcome is "ok" or a failure kind.
func (m *Metrics) Fetched(provider, outcome string) {
	if m == nil {
		return
	}
	m.FetchOutcomes.WithLabelValues(provider, outcome).Inc()
}

// Cache results.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheStale  = "stale"
	CacheShared = "shared"
)

// CacheLookup records a lookup against the named cache.
func (m *Metrics) CacheLookup(cache, result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}
