// Package generation implements the retrying completion call with optional
// strict JSON decoding, and its batch variant.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dan-solli/gencall/pkg/llm"
	"github.com/dan-solli/gencall/pkg/metrics"
	"github.com/dan-solli/gencall/pkg/trace"
)

// DefaultRequestTimeout bounds a single provider call
const DefaultRequestTimeout = 60 * time.Second

// Attempt outcomes reported to metrics
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// CompletionClient wraps one provider with bounded retry and schema decoding.
// It holds no per-call state and is safe for concurrent use.
type CompletionClient struct {
	provider       llm.Provider
	logger         *slog.Logger
	metrics        metrics.Collector
	exporter       trace.Exporter
	backoff        Backoff
	requestTimeout time.Duration
}

// Option configures a CompletionClient
type Option func(*CompletionClient)

// WithLogger sets the logger. nil discards logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CompletionClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(collector metrics.Collector) Option {
	return func(c *CompletionClient) {
		if collector != nil {
			c.metrics = collector
		}
	}
}

// WithExporter sets the trace exporter
func WithExporter(exporter trace.Exporter) Option {
	return func(c *CompletionClient) {
		if exporter != nil {
			c.exporter = exporter
		}
	}
}

// WithBackoff sets the retry backoff. NoBackoff() retries immediately.
func WithBackoff(b Backoff) Option {
	return func(c *CompletionClient) {
		c.backoff = b
	}
}

// WithRequestTimeout bounds each provider call. Zero leaves attempts bounded only by ctx.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *CompletionClient) {
		c.requestTimeout = d
	}
}

// NewCompletionClient creates a client around provider
func NewCompletionClient(provider llm.Provider, opts ...Option) (*CompletionClient, error) {
	if provider == nil {
		return nil, errors.New("generation: provider is required")
	}

	c := &CompletionClient{
		provider:       provider,
		logger:         slog.New(slog.DiscardHandler),
		metrics:        metrics.NewNoopCollector(),
		exporter:       &trace.NoopExporter{},
		backoff:        DefaultBackoff(),
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Generate runs one generation.
//
// Provider errors are retried up to req.RetryLimit times with backoff, unless
// marked llm.Permanent. Schema failures are never retried. Failures are
// returned as *GenerationError.
func (c *CompletionClient) Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	return c.generate(ctx, req, nil)
}

func (c *CompletionClient) generate(ctx context.Context, req GenerationRequest, ids map[string]interface{}) (GenerationResult, error) {
	ct := newCallTrace(req, ids)

	result, attempts, err := c.run(ctx, req, ct)

	c.observe(ctx, req.operation(), ct.finish(attempts, err), err)
	return result, err
}

func (c *CompletionClient) run(ctx context.Context, req GenerationRequest, ct *callTrace) (GenerationResult, int, error) {
	op := req.operation()

	if err := req.Validate(); err != nil {
		c.logger.Error("invalid generation request", "operation", op, "error", err)
		return GenerationResult{}, 0, err
	}

	c.logger.Debug("generation started",
		"operation", op,
		"model", req.Model,
		"mode", req.Mode.String(),
		"promptChars", len(req.Prompt),
		"retryLimit", req.RetryLimit)

	text, attempts, err := c.complete(ctx, req, ct)
	if err != nil {
		return GenerationResult{}, attempts, err
	}

	if req.Mode == RawText {
		c.logger.Info("generation succeeded", "operation", op, "attempts", attempts, "responseChars", len(text))
		return GenerationResult{Kind: ResultRawText, Text: text, Attempts: attempts}, attempts, nil
	}

	span := ct.startSpan(spanDecode)
	cleaned, value, err := decode(req.Schema, text)
	span.finish(err, nil)
	if err != nil {
		genErr := &GenerationError{Kind: KindSchemaValidation, Attempts: attempts, RawContent: text, Cause: err}
		c.logger.Error("completion failed schema validation",
			"operation", op,
			"attempts", attempts,
			"responseChars", len(text),
			"error", err)
		return GenerationResult{}, attempts, genErr
	}

	c.logger.Info("generation succeeded", "operation", op, "attempts", attempts, "responseChars", len(text))
	return GenerationResult{Kind: ResultDecoded, Text: cleaned, Value: value, Attempts: attempts}, attempts, nil
}

// complete calls the provider until it answers, the error is permanent, ctx ends
// or the retry limit is reached. It returns the trimmed completion text.
func (c *CompletionClient) complete(ctx context.Context, req GenerationRequest, ct *callTrace) (string, int, error) {
	op := req.operation()
	completionReq := llm.UserPrompt(req.Prompt, req.Model, req.MaxTokens, req.Temperature)
	maxAttempts := req.RetryLimit + 1

	var lastErr error
	attempts := 0
	for attempts < maxAttempts {
		if attempts > 0 {
			delay := c.backoff.Delay(attempts)
			span := ct.startSpan(spanBackoff)
			err := sleep(ctx, delay)
			span.finish(err, map[string]int64{"delayMs": delay.Milliseconds()})
			if err != nil {
				return "", attempts, c.aborted(op, attempts, err, lastErr)
			}
		}

		attempts++
		span := ct.startSpan(spanAttempt)
		raw, err := c.attempt(ctx, completionReq)
		if err == nil {
			span.finish(nil, map[string]int64{"attempt": int64(attempts), "responseChars": int64(len(raw))})
			c.metrics.RecordAttempt(ctx, op, outcomeSuccess)
			return strings.TrimSpace(raw), attempts, nil
		}
		span.finish(err, map[string]int64{"attempt": int64(attempts)})
		c.metrics.RecordAttempt(ctx, op, outcomeError)
		lastErr = err

		if ctx.Err() != nil {
			return "", attempts, c.aborted(op, attempts, ctx.Err(), err)
		}

		if llm.IsPermanent(err) {
			c.logger.Error("generation failed with permanent provider error",
				"operation", op,
				"attempt", attempts,
				"errorType", ClassifyError(err),
				"error", err)
			return "", attempts, &GenerationError{Kind: KindTransport, Attempts: attempts, Cause: err}
		}

		c.logger.Warn("generation attempt failed",
			"operation", op,
			"attempt", attempts,
			"maxAttempts", maxAttempts,
			"errorType", ClassifyError(err),
			"error", err)
	}

	c.logger.Error("generation retries exhausted",
		"operation", op,
		"attempts", attempts,
		"errorType", ClassifyError(lastErr),
		"error", lastErr)
	return "", attempts, &GenerationError{Kind: KindRetriesExhausted, Attempts: attempts, Cause: lastErr}
}

// attempt makes one provider call under the per-attempt timeout
func (c *CompletionClient) attempt(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}
	return c.provider.Complete(ctx, req)
}

// aborted builds the failure for a caller-cancelled generation
func (c *CompletionClient) aborted(op string, attempts int, ctxErr, lastErr error) error {
	cause := ctxErr
	if lastErr != nil && !errors.Is(lastErr, ctxErr) {
		cause = fmt.Errorf("%w (last error: %v)", ctxErr, lastErr)
	} else if lastErr != nil {
		cause = lastErr
	}
	c.logger.Warn("generation aborted", "operation", op, "attempts", attempts, "error", cause)
	return &GenerationError{Kind: KindTransport, Attempts: attempts, Cause: cause}
}

func (c *CompletionClient) observe(ctx context.Context, op string, record *trace.TraceRecord, err error) {
	c.metrics.RecordOperation(ctx, op, record.Status, record.DurationMs)
	if err != nil {
		c.metrics.RecordError(ctx, op, record.ErrorType)
	}

	if exportErr := c.exporter.Export(context.WithoutCancel(ctx), record); exportErr != nil {
		c.logger.Warn("trace export failed", "operation", op, "operationId", record.OperationID, "error", exportErr)
	}
}

// decode strips code fences and applies the schema
func decode(schema Schema, text string) (string, any, error) {
	cleaned, err := StripCodeFence(text)
	if err != nil {
		return "", nil, err
	}
	value, err := schema.Decode(cleaned)
	if err != nil {
		return cleaned, nil, err
	}
	return cleaned, value, nil
}
