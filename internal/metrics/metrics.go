package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderRequests counts dispatcher calls by provider, operation and outcome
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rankboard",
		Name:      "provider_requests_total",
		Help:      "Provider calls made through the dispatcher.",
	}, []string{"provider", "operation", "outcome"})

	// ProviderLatency observes upstream call durations
	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rankboard",
		Name:      "provider_request_duration_seconds",
		Help:      "Duration of provider calls made through the dispatcher.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider", "operation"})

	// CacheHits counts dispatcher results served from the cache
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rankboard",
		Name:      "provider_cache_hits_total",
		Help:      "Dispatcher results served from the result cache.",
	}, []string{"operation"})

	// PushAttempts counts remote push attempts by kind and outcome
	PushAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rankboard",
		Name:      "push_attempts_total",
		Help:      "Attempts to push local list changes to the remote store.",
	}, []string{"kind", "outcome"})

	// PushQueueDepth tracks pending pushes across sessions
	PushQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rankboard",
		Name:      "push_queue_depth",
		Help:      "Pushes waiting in session queues.",
	})

	// Sessions tracks live sessions
	Sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rankboard",
		Name:      "sessions",
		Help:      "Sessions currently held in memory.",
	})

	// SyncRuns counts pull-and-merge runs by outcome
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rankboard",
		Name:      "sync_runs_total",
		Help:      "Pull-and-merge runs.",
	}, []string{"outcome"})
)

// Outcome labels
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeError       = "error"
	OutcomeRateLimited = "rate_limited"
	OutcomeTimeout     = "timeout"
	OutcomeSkipped     = "skipped"
)
