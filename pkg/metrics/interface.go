package metrics

import "context"

// Collector is the interface for metrics collection.
// Implementations include the Prometheus-backed collector and the no-op collector.
type Collector interface {
	// RecordOperation records a finished generation with its final status and duration
	RecordOperation(ctx context.Context, operation string, status string, durationMs int64)
	// RecordAttempt records a single provider call and its outcome ("success", "error")
	RecordAttempt(ctx context.Context, operation string, outcome string)
	RecordError(ctx context.Context, operation string, errorType string)
	// RecordPlaceholder records a batch slot replaced by the placeholder text
	RecordPlaceholder(ctx context.Context, operation string)
}
