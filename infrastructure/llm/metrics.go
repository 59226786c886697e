package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the inference client. Metrics are
// registered once in the default registry; every client instance shares
// them, labeled by operation and outcome.
var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erreval_llm_requests_total",
			Help: "Total chat-completion requests, labeled by final outcome.",
		},
		[]string{"operation", "outcome"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erreval_llm_retries_total",
			Help: "Transient-failure retries, labeled by error type.",
		},
		[]string{"operation", "error_type"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "erreval_llm_request_duration_seconds",
			Help:    "End-to-end chat-completion request duration, retries included.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
