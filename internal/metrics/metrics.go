// Package metrics provides Prometheus metrics for the taskboard client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the client. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	InvalidationsTotal   prometheus.Counter
	SessionTransitions   *prometheus.CounterVec
	StoreOperationsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboard_requests_total",
				Help: "Total remote calls by method and outcome kind.",
			},
			[]string{"method", "kind"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskboard_request_duration_seconds",
				Help:    "Remote call duration by method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		InvalidationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "taskboard_auth_invalidations_total",
				Help: "Number of 401 responses that invalidated the session.",
			},
		),
		SessionTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboard_session_transitions_total",
				Help: "Session state machine transitions.",
			},
			[]string{"from", "to"},
		),
		StoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboard_store_operations_total",
				Help: "Collection store operations by store, operation and result.",
			},
			[]string{"store", "op", "result"},
		),
		registry: reg,
	}

	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(m.RequestDuration)
	reg.MustRegister(m.InvalidationsTotal)
	reg.MustRegister(m.SessionTransitions)
	reg.MustRegister(m.StoreOperationsTotal)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments the request counter.
func (m *Metrics) RecordRequest(method, kind string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, kind).Inc()
}

// ObserveDuration records request duration.
func (m *Metrics) ObserveDuration(method string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method).Observe(seconds)
}

// RecordInvalidation counts a session invalidation.
func (m *Metrics) RecordInvalidation() {
	if m == nil {
		return
	}
	m.InvalidationsTotal.Inc()
}

// RecordTransition counts a session state change.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.SessionTransitions.WithLabelValues(from, to).Inc()
}

// RecordStoreOp counts a store operation.
func (m *Metrics) RecordStoreOp(store, op, result string) {
	if m == nil {
		return
	}
	m.StoreOperationsTotal.WithLabelValues(store, op, result).Inc()
}
