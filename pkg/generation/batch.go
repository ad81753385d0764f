package generation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultPlaceholder fills failed batch slots when BatchOptions.Placeholder is empty
const DefaultPlaceholder = "An error occurred while generating the content."

// BatchPolicy decides what a failed slot does to the batch
type BatchPolicy int

const (
	// ContinueWithPlaceholder fills the failed slot with the placeholder and keeps going
	ContinueWithPlaceholder BatchPolicy = iota
	// StopOnFailure aborts the batch with a *BatchError for the first failed slot
	StopOnFailure
)

// BatchOptions configures GenerateBatch. The zero value continues with
// DefaultPlaceholder and runs one call at a time.
type BatchOptions struct {
	Policy      BatchPolicy
	Placeholder string
	// MaxInFlight bounds concurrent provider calls (default 1)
	MaxInFlight int
}

// GenerateBatch runs req n times and returns the results in slot order.
//
// The request is validated once up front; an invalid request or n < 1 aborts
// before any call. Cancelling ctx aborts the batch with ctx.Err().
func (c *CompletionClient) GenerateBatch(ctx context.Context, req GenerationRequest, n int, opts BatchOptions) ([]GenerationResult, error) {
	op := req.operation()

	if n < 1 {
		err := invalidRequest("n", fmt.Errorf("%w, got %d", ErrInvalidBatchCount, n))
		c.logger.Error("invalid batch request", "operation", op, "error", err)
		return nil, err
	}
	if err := req.Validate(); err != nil {
		c.logger.Error("invalid batch request", "operation", op, "error", err)
		return nil, err
	}

	placeholder := opts.Placeholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	limit := opts.MaxInFlight
	if limit < 1 {
		limit = 1
	}
	if limit > n {
		limit = n
	}

	batchID := uuid.NewString()
	c.logger.Debug("batch generation started", "operation", op, "batchId", batchID, "size", n, "maxInFlight", limit)

	results := make([]GenerationResult, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			ids := map[string]interface{}{"batchId": batchID, "slot": i, "batchSize": n}
			result, err := c.generate(gctx, req, ids)
			if err == nil {
				results[i] = result
				return nil
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}
			if opts.Policy == StopOnFailure {
				return &BatchError{Index: i, Err: err}
			}

			attempts := 0
			if genErr, ok := AsGenerationError(err); ok {
				attempts = genErr.Attempts
			}
			results[i] = GenerationResult{Kind: ResultPlaceholder, Text: placeholder, Attempts: attempts, Err: err}
			c.metrics.RecordPlaceholder(ctx, op)
			c.logger.Warn("batch slot replaced by placeholder",
				"operation", op,
				"batchId", batchID,
				"slot", i,
				"errorType", ClassifyError(err),
				"error", err)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.logger.Error("batch generation aborted", "operation", op, "batchId", batchID, "error", err)
		return nil, err
	}

	placeholders := 0
	for _, r := range results {
		if r.IsPlaceholder() {
			placeholders++
		}
	}
	c.logger.Info("batch generation finished", "operation", op, "batchId", batchID, "size", n, "placeholders", placeholders)

	return results, nil
}
