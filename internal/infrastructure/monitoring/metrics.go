package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Record methods are no-ops on a nil
// receiver so components can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Search-engine call metrics
	CallsTotal    *prometheus.CounterVec
	CallDuration  *prometheus.HistogramVec
	CallFailovers *prometheus.CounterVec

	// Collector metrics
	TracesRecorded prometheus.Counter
	TracesRejected *prometheus.CounterVec

	// Profiler metrics
	ProfilesStored  prometheus.Counter
	ProfilesEvicted prometheus.Counter

	// snapshot mirrors a few counters for the JSON health view
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON API
type Snapshot struct {
	TotalCalls      int64   `json:"total_calls"`
	FailedCalls     int64   `json:"failed_calls"`
	CallSeconds     float64 `json:"call_seconds"`
	RejectedEvents  int64   `json:"rejected_events"`
	ProfilesStored  int64   `json:"profiles_stored"`
	HTTPRequests    int64   `json:"http_requests"`
	HTTPErrorsTotal int64   `json:"http_errors"`
}

// NewMetrics creates a metrics collector on its own registry
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.NewRegistry())
}

// NewMetricsWithRegistry creates a metrics collector registered on reg
func NewMetricsWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elasticbundle_http_requests_total",
				Help: "Total number of HTTP requests served by the host",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "elasticbundle_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elasticbundle_es_calls_total",
				Help: "Total number of search-engine calls",
			},
			[]string{"client", "method", "status"},
		),
		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "elasticbundle_es_call_duration_seconds",
				Help:    "Search-engine call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"client", "method"},
		),
		CallFailovers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elasticbundle_es_failovers_total",
				Help: "Number of calls retried on another host",
			},
			[]string{"client"},
		),

		TracesRecorded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "elasticbundle_collector_traces_total",
				Help: "Number of call traces recorded by data collectors",
			},
		),
		TracesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elasticbundle_collector_rejected_total",
				Help: "Number of malformed call-completion events rejected",
			},
			[]string{"reason"},
		),

		ProfilesStored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "elasticbundle_profiles_stored_total",
				Help: "Number of request profiles stored",
			},
		),
		ProfilesEvicted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "elasticbundle_profiles_evicted_total",
				Help: "Number of request profiles evicted from the store",
			},
		),
	}
}

// Registry returns the registry the metrics live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request served by the host
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.HTTPRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.HTTPErrorsTotal++
	}
	m.mu.Unlock()
}

// RecordCall records one search-engine call attempt
func (m *Metrics) RecordCall(client, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CallsTotal.WithLabelValues(client, method, status).Inc()
	m.CallDuration.WithLabelValues(client, method).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalCalls++
	m.snapshot.CallSeconds += duration.Seconds()
	if status == "error" || (status != "" && (status[0] == '4' || status[0] == '5')) {
		m.snapshot.FailedCalls++
	}
	m.mu.Unlock()
}

// RecordFailover records a call retried on another host
func (m *Metrics) RecordFailover(client string) {
	if m == nil {
		return
	}
	m.CallFailovers.WithLabelValues(client).Inc()
}

// RecordTrace records an accepted call trace
func (m *Metrics) RecordTrace() {
	if m == nil {
		return
	}
	m.TracesRecorded.Inc()
}

// RecordRejectedEvent records a malformed event dropped by a collector
func (m *Metrics) RecordRejectedEvent(reason string) {
	if m == nil {
		return
	}
	m.TracesRejected.WithLabelValues(reason).Inc()

	m.mu.Lock()
	m.snapshot.RejectedEvents++
	m.mu.Unlock()
}

// RecordProfileStored records a stored request profile
func (m *Metrics) RecordProfileStored() {
	if m == nil {
		return
	}
	m.ProfilesStored.Inc()

	m.mu.Lock()
	m.snapshot.ProfilesStored++
	m.mu.Unlock()
}

// RecordProfileEvicted records a profile dropped to make room
func (m *Metrics) RecordProfileEvicted() {
	if m == nil {
		return
	}
	m.ProfilesEvicted.Inc()
}

// Snapshot returns a copy of the tracked values
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
