package generation

import (
	"time"

	"github.com/google/uuid"

	"github.com/dan-solli/gencall/pkg/trace"
)

// Span names recorded for every generation
const (
	spanAttempt = "attempt"
	spanBackoff = "backoff"
	spanDecode  = "decode"
)

// spanCapacity covers a first attempt, one retry with its backoff and the decode
const spanCapacity = 4

// callTrace collects the spans of a single Generate call
type callTrace struct {
	start  time.Time
	record *trace.TraceRecord
}

func newCallTrace(req GenerationRequest, ids map[string]interface{}) *callTrace {
	now := time.Now()
	return &callTrace{
		start: now,
		record: &trace.TraceRecord{
			Timestamp:   now.UTC(),
			OperationID: uuid.NewString(),
			Operation:   req.operation(),
			Model:       req.Model,
			Mode:        req.Mode.String(),
			Spans:       make([]trace.SpanRecord, 0, spanCapacity),
			IDs:         ids,
		},
	}
}

// spanTimer is a helper for measuring span duration
type spanTimer struct {
	name  string
	start time.Time
	trace *callTrace
}

func (ct *callTrace) startSpan(name string) *spanTimer {
	return &spanTimer{name: name, start: time.Now(), trace: ct}
}

// finish completes the span and records it to the trace
func (st *spanTimer) finish(err error, counters map[string]int64) {
	span := trace.SpanRecord{
		Name:       st.name,
		DurationMs: time.Since(st.start).Milliseconds(),
		OK:         err == nil,
		Counters:   counters,
	}
	if err != nil {
		span.ErrorType = ClassifyError(err)
	}
	st.trace.record.Spans = append(st.trace.record.Spans, span)
}

// finish seals the record with the call outcome
func (ct *callTrace) finish(attempts int, err error) *trace.TraceRecord {
	ct.record.DurationMs = time.Since(ct.start).Milliseconds()
	ct.record.Attempts = attempts
	ct.record.Status = trace.StatusSuccess
	if err != nil {
		ct.record.Status = trace.StatusError
		ct.record.ErrorType = ClassifyError(err)
	}
	return ct.record
}
