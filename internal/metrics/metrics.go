// Package metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zap_cache_hits_total",
		Help: "Cache hits by cache name.",
	}, []string{"cache"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zap_cache_misses_total",
		Help: "Cache misses by cache name.",
	}, []string{"cache"})

	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zap_provider_requests_total",
		Help: "Market data provider requests by provider and outcome.",
	}, []string{"provider", "outcome"})

	FeeCalculations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zap_fee_calculations_total",
		Help: "Fee calculations by direction.",
	}, []string{"direction"})

	SpreadFeeFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zap_spread_fee_fallbacks_total",
		Help: "Times the default spread fee substituted for an unavailable volatility estimate.",
	})
)
