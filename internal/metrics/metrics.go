// Package metrics exposes Prometheus gauges/counters/histograms for the
// query pipeline: request counts, cache hit rate, breaker state,
// per-provider latency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
 Name: "openecon_requests_total",
 Help: "Total inbound query requests by route and outcome.",
	}, []string{"route", "outcome"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
 Name: "openecon_request_duration_seconds",
 Help: "Inbound request latency by route.",
 Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	ProviderFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
 Name: "openecon_provider_fetch_duration_seconds",
 Help: "Per-provider adapter fetch latency.",
 Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	ProviderFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
 Name: "openecon_provider_fetch_total",
 Help: "Per-provider adapter fetch outcomes.",
	}, []string{"provider", "outcome"})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
 Name: "openecon_cache_hits_total",
 Help: "Response cache hits.",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
 Name: "openecon_cache_misses_total",
 Help: "Response cache misses.",
	})

	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
 Name: "openecon_breaker_state",
 Help: "Circuit breaker state per provider: 0=closed, 0.5=half_open, 1=open.",
	}, []string{"provider"})

	IndexGeneration = promauto.NewGauge(prometheus.GaugeOpts{
 Name: "openecon_index_generation",
 Help: "Current indicator index generation counter (internal/index.Index.Generation).",
	})
)

// BreakerStateValue converts breaker.Registry.State's string form into the
// gauge's numeric encoding.
func BreakerStateValue(state string) float64 {
	switch state {
	case "open":
 return 1
	case "half_open":
 return 0.5
	default:
 return 0
	}
}
