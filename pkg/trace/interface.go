// Package trace exports sanitized per-call generation traces
package trace

import (
	"context"
	"time"
)

// Exporter defines the interface for exporting generation traces.
// Implementations must be safe for concurrent use.
type Exporter interface {
	// Export writes a trace record to the configured destination.
	// Returns error if export fails.
	Export(ctx context.Context, record *TraceRecord) error

	// Close flushes any buffered records and releases resources.
	// Should be called during graceful shutdown.
	Close() error
}

// Status values of a TraceRecord
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// TraceRecord represents a sanitized generation trace ready for export.
// This structure contains NO sensitive data (no prompts, completions or API keys).
type TraceRecord struct {
	// Timestamp is the generation start time
	Timestamp time.Time `json:"timestamp"`

	// OperationID uniquely identifies this generation (for correlation)
	OperationID string `json:"operationId"`

	// Operation is the caller-supplied label: "generate", "email", "grc_question", ...
	Operation string `json:"operation"`

	// Model is the provider model identifier
	Model string `json:"model,omitempty"`

	// Mode is "raw_text" or "strict_json"
	Mode string `json:"mode,omitempty"`

	// DurationMs is the total duration in milliseconds, backoff included
	DurationMs int64 `json:"durationMs"`

	// Status is "success" or "error"
	Status string `json:"status"`

	// Attempts is the number of provider calls made
	Attempts int `json:"attempts"`

	// Spans contains per-attempt and decode timing and status
	Spans []SpanRecord `json:"spans"`

	// ErrorType classifies the error (if Status == "error")
	// Values: validation, schema, timeout, rate_limit, network, provider, unknown
	ErrorType string `json:"errorType,omitempty"`

	// IDs contains operation-specific identifiers (no content)
	IDs map[string]interface{} `json:"ids,omitempty"`
}

// SpanRecord represents a single stage within a generation.
type SpanRecord struct {
	// Name is the stage name ("attempt", "backoff", "decode")
	Name string `json:"name"`

	// DurationMs is the stage duration in milliseconds
	DurationMs int64 `json:"durationMs"`

	// OK indicates success (true) or failure (false)
	OK bool `json:"ok"`

	// ErrorType classifies the error (if OK == false)
	ErrorType string `json:"errorType,omitempty"`

	// Counters provides stage-specific numbers (e.g., attempt, responseChars)
	Counters map[string]int64 `json:"counters,omitempty"`
}

// FileExporterOption configures a FileExporter.
type FileExporterOption func(*FileExporter)
