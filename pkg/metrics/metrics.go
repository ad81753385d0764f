// Package metrics provides Prometheus and no-op collectors for generation calls
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector provides Prometheus metrics collection for generation calls
type MetricsCollector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	attemptsTotal     *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	placeholdersTotal *prometheus.CounterVec
	registry          *prometheus.Registry
}

// Compile-time interface checks
var (
	_ Collector = (*MetricsCollector)(nil)
	_ Collector = (*NoopCollector)(nil)
)

// NewCollector creates a new Prometheus metrics collector with its own registry
func NewCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	operationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gencall_generations_total",
			Help: "Total number of generation calls by operation and final status",
		},
		[]string{"operation", "status"},
	)

	operationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gencall_generation_duration_seconds",
			Help:    "Duration of generation calls including retries and backoff",
			Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0},
		},
		[]string{"operation"},
	)

	attemptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gencall_provider_attempts_total",
			Help: "Total number of provider calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gencall_errors_total",
			Help: "Total number of terminal generation errors by operation and error type",
		},
		[]string{"operation", "error_type"},
	)

	placeholdersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gencall_batch_placeholders_total",
			Help: "Total number of batch slots filled with the placeholder text",
		},
		[]string{"operation"},
	)

	registry.MustRegister(operationsTotal)
	registry.MustRegister(operationDuration)
	registry.MustRegister(attemptsTotal)
	registry.MustRegister(errorsTotal)
	registry.MustRegister(placeholdersTotal)

	return &MetricsCollector{
		operationsTotal:   operationsTotal,
		operationDuration: operationDuration,
		attemptsTotal:     attemptsTotal,
		errorsTotal:       errorsTotal,
		placeholdersTotal: placeholdersTotal,
		registry:          registry,
	}
}

// RecordOperation records the completion of a generation call
func (m *MetricsCollector) RecordOperation(ctx context.Context, operation string, status string, durationMs int64) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(float64(durationMs) / 1000.0)
}

// RecordAttempt records one provider call
func (m *MetricsCollector) RecordAttempt(ctx context.Context, operation string, outcome string) {
	m.attemptsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordError records an error occurrence
func (m *MetricsCollector) RecordError(ctx context.Context, operation string, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordPlaceholder records a failed batch slot
func (m *MetricsCollector) RecordPlaceholder(ctx context.Context, operation string) {
	m.placeholdersTotal.WithLabelValues(operation).Inc()
}

// Registry returns the Prometheus registry for HTTP exposure
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}
