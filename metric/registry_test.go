package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndUnregister(t *testing.T) {
	registry := NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enrich_test_total",
		Help: "test counter",
	})

	require.NoError(t, registry.RegisterCounter("enrich", "enrich_test_total", counter))

	// Same service+name pair is rejected
	dup := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enrich_test_other",
		Help: "other",
	})
	err := registry.RegisterCounter("enrich", "enrich_test_total", dup)
	assert.Error(t, err)

	assert.True(t, registry.Unregister("enrich", "enrich_test_total"))
	assert.False(t, registry.Unregister("enrich", "enrich_test_total"))
}

func TestRegisterGaugeAndVecs(t *testing.T) {
	registry := NewRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "enrich_in_flight",
		Help: "in flight calls",
	})
	require.NoError(t, registry.RegisterGauge("enrich", "enrich_in_flight", gauge))

	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrich_results_total",
		Help: "results by source",
	}, []string{"source"})
	require.NoError(t, registry.RegisterCounterVec("enrich", "enrich_results_total", counterVec))

	histVec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "enrich_call_duration_seconds",
		Help:    "call durations",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
	require.NoError(t, registry.RegisterHistogramVec("enrich", "enrich_call_duration_seconds", histVec))

	counterVec.WithLabelValues("ai").Inc()
	gauge.Set(3)

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["enrich_in_flight"])
	assert.True(t, names["enrich_results_total"])
}

func TestHandler(t *testing.T) {
	registry := NewRegistry()
	assert.NotNil(t, registry.Handler())
}
