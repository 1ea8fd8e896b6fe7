// Package metrics exposes Prometheus collectors for the reconciliation engine.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry in tests.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "pingap_provider"

// Compile outcomes.
const (
	CompileConfigured = "configured"
	CompileSkipped    = "skipped"
	CompileFailed     = "error"
)

// Remote operations and their final results.
const (
	OperationApply  = "apply"
	OperationDelete = "delete"

	ResultSuccess = "success"
	ResultError   = "error"
)

type Metrics struct {
	events          *prometheus.CounterVec
	eventStreamErrs prometheus.Counter
	compiles        *prometheus.CounterVec
	operations      *prometheus.CounterVec
	attempts        *prometheus.CounterVec
	tracked         prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Container lifecycle events received, by action.",
		}, []string{"action"}),
		eventStreamErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_stream_errors_total",
			Help:      "Errors reported by the container event stream.",
		}),
		compiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "label_compilations_total",
			Help:      "Label compilations, by outcome.",
		}, []string{"result"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_operations_total",
			Help:      "Apply and delete operations against the proxy, by final result.",
		}, []string{"operation", "result"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_attempts_total",
			Help:      "Individual attempts made while applying or deleting, retries included.",
		}, []string{"operation"}),
		tracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_services",
			Help:      "Services currently believed to be applied to the proxy.",
		}),
	}
	reg.MustRegister(m.events, m.eventStreamErrs, m.compiles, m.operations, m.attempts, m.tracked)
	return m
}

func (m *Metrics) Event(action string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(action).Inc()
}

func (m *Metrics) EventStreamError() {
	if m == nil {
		return
	}
	m.eventStreamErrs.Inc()
}

func (m *Metrics) Compile(result string) {
	if m == nil {
		return
	}
	m.compiles.WithLabelValues(result).Inc()
}

func (m *Metrics) Attempt(operation string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(operation).Inc()
}

func (m *Metrics) Operation(operation string, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) Tracked(n int) {
	if m == nil {
		return
	}
	m.tracked.Set(float64(n))
}
