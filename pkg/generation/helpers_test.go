package generation

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dan-solli/gencall/pkg/llm"
	"github.com/dan-solli/gencall/pkg/trace"
)

var errTransient = errors.New("connection reset by peer")

// reply is one scripted provider answer
type reply struct {
	text string
	err  error
}

// scriptedProvider answers from a script; the last reply repeats once the script runs out
type scriptedProvider struct {
	mu       sync.Mutex
	script   []reply
	requests []llm.CompletionRequest
}

func newScriptedProvider(script ...reply) *scriptedProvider {
	return &scriptedProvider{script: script}
}

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := len(p.requests)
	p.requests = append(p.requests, req)
	if idx >= len(p.script) {
		idx = len(p.script) - 1
	}
	r := p.script[idx]
	return r.text, r.err
}

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// providerFunc adapts a function to llm.Provider
type providerFunc func(ctx context.Context, req llm.CompletionRequest) (string, error)

func (f providerFunc) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	return f(ctx, req)
}

// captureHandler is a slog.Handler that captures log records for test assertions
type captureHandler struct {
	records []slog.Record
	mu      sync.Mutex
}

func newCaptureHandler() *captureHandler {
	return &captureHandler{records: make([]slog.Record, 0)}
}

func (h *captureHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *captureHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *captureHandler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *captureHandler) byMessage(msg string) []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []slog.Record
	for _, r := range h.records {
		if r.Message == msg {
			out = append(out, r)
		}
	}
	return out
}

func (h *captureHandler) all() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]slog.Record, len(h.records))
	copy(out, h.records)
	return out
}

func attrValue(r slog.Record, key string) (slog.Value, bool) {
	var (
		val   slog.Value
		found bool
	)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			val, found = a.Value, true
			return false
		}
		return true
	})
	return val, found
}

// memoryExporter keeps exported trace records
type memoryExporter struct {
	mu      sync.Mutex
	records []*trace.TraceRecord
	err     error
}

func (e *memoryExporter) Export(ctx context.Context, record *trace.TraceRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = append(e.records, record)
	return e.err
}

func (e *memoryExporter) Close() error {
	return nil
}

func (e *memoryExporter) all() []*trace.TraceRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*trace.TraceRecord, len(e.records))
	copy(out, e.records)
	return out
}

func rawRequest(prompt string, retryLimit int) GenerationRequest {
	return GenerationRequest{
		Prompt:      prompt,
		Model:       "m",
		MaxTokens:   10,
		Temperature: 0,
		RetryLimit:  retryLimit,
		Mode:        RawText,
	}
}

type answer struct {
	Answer string `json:"answer" validate:"required"`
	Score  int    `json:"score" validate:"gte=0,lte=10"`
}

func strictRequest(retryLimit int) GenerationRequest {
	req := rawRequest("give me an answer as JSON", retryLimit)
	req.Mode = StrictJSON
	req.Schema = NewJSONSchema[answer]("answer", "score")
	return req
}

func newTestClient(provider llm.Provider, opts ...Option) *CompletionClient {
	opts = append([]Option{WithBackoff(NoBackoff())}, opts...)
	c, err := NewCompletionClient(provider, opts...)
	if err != nil {
		panic(err)
	}
	return c
}
