// internal/utils/metrics.go
package utils

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector holds the prometheus collectors used by the services
type MetricsCollector struct {
	registry *prometheus.Registry

	oracleCalls    *prometheus.CounterVec
	oracleLatency  *prometheus.HistogramVec
	operations     *prometheus.CounterVec
	activeSessions prometheus.Gauge
	inFlight       *prometheus.GaugeVec
}

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// GetMetricsCollector returns the global metrics collector
func GetMetricsCollector() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsCollector()
	})
	return globalMetrics
}

// NewMetricsCollector builds a collector on its own registry
func NewMetricsCollector() *MetricsCollector {
	m := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		oracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tubescribe",
			Name:      "oracle_calls_total",
			Help:      "Text generation calls by purpose and outcome.",
		}, []string{"purpose", "outcome"}),
		oracleLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tubescribe",
			Name:      "oracle_call_duration_seconds",
			Help:      "Latency of text generation calls.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 90},
		}, []string{"purpose"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tubescribe",
			Name:      "operations_total",
			Help:      "Workspace operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tubescribe",
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tubescribe",
			Name:      "artifacts_in_flight",
			Help:      "Artifacts with an outstanding generation or translation.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.oracleCalls,
		m.oracleLatency,
		m.operations,
		m.activeSessions,
		m.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordOracleCall records one oracle call
func (m *MetricsCollector) RecordOracleCall(purpose, outcome string, duration time.Duration) {
	m.oracleCalls.WithLabelValues(purpose, outcome).Inc()
	m.oracleLatency.WithLabelValues(purpose).Observe(duration.Seconds())
}

// RecordOperation records a finished workspace operation
func (m *MetricsCollector) RecordOperation(operation, outcome string) {
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// SetActiveSessions sets the session gauge
func (m *MetricsCollector) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// AddInFlight adjusts the in-flight gauge for an artifact kind
func (m *MetricsCollector) AddInFlight(kind string, delta float64) {
	m.inFlight.WithLabelValues(kind).Add(delta)
}

// Registry exposes the underlying registry, mainly for tests
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the metrics
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
