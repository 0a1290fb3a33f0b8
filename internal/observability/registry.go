package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics.
// Components take the registry by injection instead of touching the global
// Prometheus collectors directly.
type MetricsRegistry interface {
	// HTTP request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Line item operation metrics
	IncrementOperation(kind, outcome string)

	// Outbound ad platform call metrics
	IncrementRemoteCalls(service, method, status string)
	RecordRemoteCallLatency(service, method string, duration time.Duration)

	// Resolver cache metrics
	IncrementResolverCache(result string)

	// Journal metrics
	IncrementJournalErrors()
}

// PrometheusRegistry implements MetricsRegistry on the package's Prometheus
// collectors.
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry.
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementOperation(kind, outcome string) {
	OperationCount.WithLabelValues(kind, outcome).Inc()
}

func (r *PrometheusRegistry) IncrementRemoteCalls(service, method, status string) {
	RemoteCallCount.WithLabelValues(service, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRemoteCallLatency(service, method string, duration time.Duration) {
	RemoteCallLatency.WithLabelValues(service, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementResolverCache(result string) {
	ResolverCacheCount.WithLabelValues(result).Inc()
}

func (r *PrometheusRegistry) IncrementJournalErrors() {
	JournalErrors.Inc()
}

// NoOpRegistry implements MetricsRegistry without recording anything. Used
// in tests and wherever metrics are optional.
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry.
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementOperation(kind, outcome string)                              {}
func (r *NoOpRegistry) IncrementRemoteCalls(service, method, status string)                  {}
func (r *NoOpRegistry) RecordRemoteCallLatency(service, method string, d time.Duration)      {}
func (r *NoOpRegistry) IncrementResolverCache(result string)                                 {}
func (r *NoOpRegistry) IncrementJournalErrors()                                              {}
