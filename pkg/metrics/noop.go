package metrics

import "context"

// NoopCollector is a no-op implementation used when metrics are disabled.
type NoopCollector struct{}

// NewNoopCollector creates a no-op collector
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

// RecordOperation does nothing when metrics are disabled
func (n *NoopCollector) RecordOperation(ctx context.Context, operation string, status string, durationMs int64) {
}

// RecordAttempt does nothing when metrics are disabled
func (n *NoopCollector) RecordAttempt(ctx context.Context, operation string, outcome string) {
}

// RecordError does nothing when metrics are disabled
func (n *NoopCollector) RecordError(ctx context.Context, operation string, errorType string) {
}

// RecordPlaceholder does nothing when metrics are disabled
func (n *NoopCollector) RecordPlaceholder(ctx context.Context, operation string) {
}
