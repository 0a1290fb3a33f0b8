package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total API requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineitem_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lineitem_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// line-item operations by kind (create/targeting_add/targeting_remove)
	// and outcome (ok/invalid/error)
	OperationCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineitem_operations_total",
			Help: "Total line item operations",
		},
		[]string{"kind", "outcome"},
	)

	// outbound ad platform calls per service/method and status
	RemoteCallCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineitem_remote_calls_total",
			Help: "Total calls to the ad platform API",
		},
		[]string{"service", "method", "status"},
	)

	// outbound ad platform call latency
	RemoteCallLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lineitem_remote_call_duration_seconds",
			Help:    "Histogram of ad platform call latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method"},
	)

	// resolver cache effectiveness
	ResolverCacheCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineitem_resolver_cache_total",
			Help: "Targeting name resolver cache lookups",
		},
		[]string{"result"},
	)

	// journal write failures
	JournalErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lineitem_journal_errors_total",
			Help: "Total operation journal write failures",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		OperationCount,
		RemoteCallCount,
		RemoteCallLatency,
		ResolverCacheCount,
		JournalErrors,
	)
}
