package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters are partitioned by chain symbol where the chain is known.

var (
	ChainLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crypverify",
		Subsystem: "chain",
		Name:      "lookups_total",
		Help:      "Total on-chain transaction lookups by outcome",
	}, []string{"chain", "outcome"})

	ChainLookupLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "crypverify",
		Subsystem: "chain",
		Name:      "lookup_duration_seconds",
		Help:      "On-chain transaction lookup duration",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"chain"})

	PriceCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crypverify",
		Subsystem: "pricing",
		Name:      "cache_hits_total",
		Help:      "Price lookups served from the cache",
	}, []string{"chain"})

	PriceCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crypverify",
		Subsystem: "pricing",
		Name:      "cache_misses_total",
		Help:      "Price lookups that required a provider call",
	}, []string{"chain"})

	PriceFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crypverify",
		Subsystem: "pricing",
		Name:      "fallbacks_total",
		Help:      "Price lookups answered with the static fallback",
	}, []string{"chain"})

	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crypverify",
		Subsystem: "verify",
		Name:      "requests_total",
		Help:      "Verification requests by outcome",
	}, []string{"outcome"})

	ThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crypverify",
		Subsystem: "verify",
		Name:      "throttled_total",
		Help:      "Verification requests dropped by the cooldown gate",
	})

	ProviderWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crypverify",
		Subsystem: "provider",
		Name:      "rate_limit_waits_total",
		Help:      "Outbound provider calls delayed by the local rate limiter",
	}, []string{"provider"})

	ReviewTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crypverify",
		Subsystem: "review",
		Name:      "transitions_total",
		Help:      "Persisted review status transitions",
	}, []string{"status"})

	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crypverify",
		Subsystem: "review",
		Name:      "notification_failures_total",
		Help:      "Status notifications that could not be delivered",
	})
)
