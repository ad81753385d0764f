package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoCompletion is returned when a provider answers without any completion text
var ErrNoCompletion = errors.New("no completion choices returned")

// permanentError indicates an error that must not be retried
type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent marks err as non-retryable. A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err, or anything it wraps, was marked with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// StatusError carries the HTTP status of a failed provider call
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
}

// statusError wraps a failed HTTP status, marking client errors that a retry cannot fix
func statusError(provider string, code int, msg string) error {
	err := &StatusError{Provider: provider, StatusCode: code, Message: msg}
	if isPermanentStatus(code) {
		return Permanent(err)
	}
	return err
}

// isPermanentStatus lists the client errors a retry cannot fix
func isPermanentStatus(code int) bool {
	switch code {
	case http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusUnprocessableEntity:
		return true
	}
	return false
}
