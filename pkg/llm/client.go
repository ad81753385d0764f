// Package llm provides the completion provider contract and its implementations
package llm

import "context"

// Message roles understood by every provider
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role/content pair of a completion request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the minimal request shape a provider has to understand
type CompletionRequest struct {
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature float64
}

// UserPrompt builds a request carrying a single user message
func UserPrompt(prompt, model string, maxTokens int, temperature float64) CompletionRequest {
	return CompletionRequest{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// Provider defines the interface for an external text-completion service
type Provider interface {
	// Complete sends the request and returns the text of the single completion.
	// Errors wrapped with Permanent must not be retried by callers.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
