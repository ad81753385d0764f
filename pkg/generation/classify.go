package generation

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/dan-solli/gencall/pkg/llm"
)

// Error type constants for classification
const (
	ErrTypeValidation = "validation"
	ErrTypeSchema     = "schema"
	ErrTypeTimeout    = "timeout"
	ErrTypeCanceled   = "canceled"
	ErrTypeRateLimit  = "rate_limit"
	ErrTypeNetwork    = "network"
	ErrTypeProvider   = "provider"
	ErrTypeUnknown    = "unknown"
)

// ClassifyError inspects an error and returns its type classification.
// The labels are stable and safe to use in metrics and traces.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return ErrTypeValidation
	case errors.Is(err, ErrSchemaValidation):
		return ErrTypeSchema
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTypeTimeout
	case errors.Is(err, context.Canceled):
		return ErrTypeCanceled
	}

	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusTooManyRequests {
			return ErrTypeRateLimit
		}
		return ErrTypeProvider
	}

	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return ErrTypeNetwork
	}

	errStrLower := strings.ToLower(err.Error())

	if strings.Contains(errStrLower, "timeout") || strings.Contains(errStrLower, "deadline exceeded") {
		return ErrTypeTimeout
	}

	if strings.Contains(errStrLower, "rate limit") ||
		strings.Contains(errStrLower, "too many requests") ||
		strings.Contains(errStrLower, "429") {
		return ErrTypeRateLimit
	}

	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "connection reset") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "network is unreachable") ||
		strings.Contains(errStrLower, "dial tcp") ||
		strings.Contains(errStrLower, "eof") {
		return ErrTypeNetwork
	}

	if llm.IsPermanent(err) ||
		errors.Is(err, llm.ErrNoCompletion) ||
		strings.Contains(errStrLower, "status code") ||
		strings.Contains(errStrLower, "api error") ||
		strings.Contains(errStrLower, "openai") ||
		strings.Contains(errStrLower, "anthropic") ||
		strings.Contains(errStrLower, "gemini") ||
		strings.Contains(errStrLower, "ollama") {
		return ErrTypeProvider
	}

	return ErrTypeUnknown
}
