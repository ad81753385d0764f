package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIModel   = "gpt-4o"
	defaultOpenAITimeout = 60 * time.Second
)

// OpenAIProvider implements Provider for OpenAI's Chat Completions API
type OpenAIProvider struct {
	client *openai.Client
}

// OpenAIOption configures an OpenAIProvider
type OpenAIOption func(*openai.ClientConfig)

// WithOpenAIBaseURL points the client at a compatible endpoint (proxies, Azure, tests)
func WithOpenAIBaseURL(baseURL string) OpenAIOption {
	return func(cfg *openai.ClientConfig) {
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}
	}
}

// WithOpenAIHTTPClient replaces the HTTP client used for requests
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(cfg *openai.ClientConfig) {
		if client != nil {
			cfg.HTTPClient = client
		}
	}
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("openai: API key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: defaultOpenAITimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg)}, nil
}

// Complete sends the request to the Chat Completions API and returns the first choice
func (o *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	// Temperature is omitempty in go-openai; a zero would fall back to the API default of 1.0
	temperature := float32(req.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrNoCompletion)
	}

	return resp.Choices[0].Message.Content, nil
}

// classifyOpenAIError marks client-side API failures as permanent
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && isPermanentStatus(apiErr.HTTPStatusCode) {
		return Permanent(fmt.Errorf("openai: %w", err))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && isPermanentStatus(reqErr.HTTPStatusCode) {
		return Permanent(fmt.Errorf("openai: %w", err))
	}

	return fmt.Errorf("openai: %w", err)
}
