package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Event("start")
	m.Event("start")
	m.Event("die")
	m.EventStreamError()
	m.Compile(CompileConfigured)
	m.Attempt(OperationApply)
	m.Attempt(OperationApply)
	m.Operation(OperationApply, nil)
	m.Operation(OperationDelete, errors.New("boom"))
	m.Tracked(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("die")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventStreamErrs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compiles.WithLabelValues(CompileConfigured)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues(OperationApply)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues(OperationApply, ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues(OperationDelete, ResultError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.operations.WithLabelValues(OperationDelete, "failure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.tracked))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Event("start")
		m.EventStreamError()
		m.Compile(CompileFailed)
		m.Attempt(OperationDelete)
		m.Operation(OperationDelete, nil)
		m.Tracked(1)
	})
}

func TestMetrics_OperationResultLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Operation(OperationDelete, errors.New("boom"))

	families, err := reg.Gather()
	if !assert.NoError(t, err) {
		return
	}
	var results []string
	for _, mf := range families {
		if mf.GetName() != "pingap_provider_remote_operations_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "result" {
					results = append(results, l.GetValue())
				}
			}
		}
	}
	assert.Equal(t, []string{"error"}, results)
}
