// Package content provides the study-content helpers built on the generation client:
// emails, daily email series, GRC exam questions and scenario questions.
package content

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/dan-solli/gencall/pkg/generation"
)

// Defaults used when Config leaves a field empty
const (
	DefaultModel      = "gpt-4o"
	DefaultRetryLimit = 3
)

const contentTemperature = 0.7

// Client is the part of generation.CompletionClient the helpers use
type Client interface {
	Generate(ctx context.Context, req generation.GenerationRequest) (generation.GenerationResult, error)
	GenerateBatch(ctx context.Context, req generation.GenerationRequest, n int, opts generation.BatchOptions) ([]generation.GenerationResult, error)
}

// Config holds the helper settings
type Config struct {
	Model      string
	RetryLimit int
	// Signoff closes every daily email. Empty asks for no signature block.
	Signoff string
	// MaxInFlight bounds concurrent calls of DailyEmails
	MaxInFlight int
}

// Generator builds prompts, calls the client and shapes the results
type Generator struct {
	client Client
	cfg    Config
	logger *slog.Logger
}

var validate = validator.New()

// NewGenerator creates a Generator. A nil logger discards logs.
func NewGenerator(client Client, cfg Config, logger *slog.Logger) *Generator {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.RetryLimit < 0 {
		cfg.RetryLimit = DefaultRetryLimit
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{client: client, cfg: cfg, logger: logger}
}

func (g *Generator) request(operation, prompt string, maxTokens int) generation.GenerationRequest {
	return generation.GenerationRequest{
		Prompt:      prompt,
		Model:       g.cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: contentTemperature,
		RetryLimit:  g.cfg.RetryLimit,
		Mode:        generation.RawText,
		Operation:   operation,
	}
}

func invalidInput(field string, cause error) error {
	return &generation.GenerationError{Kind: generation.KindInvalidRequest, Field: field, Cause: cause}
}
