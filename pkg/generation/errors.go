package generation

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure kind. A *GenerationError matches the sentinel
// of its kind with errors.Is.
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrTransport         = errors.New("transport error")
	ErrSchemaValidation  = errors.New("schema validation failed")
	ErrRetriesExhausted  = errors.New("retries exhausted")
	ErrInvalidBatchCount = errors.New("batch count must be at least 1")
)

// ErrorKind tags a GenerationError
type ErrorKind int

const (
	// KindInvalidRequest is a malformed request; nothing was sent
	KindInvalidRequest ErrorKind = iota
	// KindTransport is a provider failure that was not retried: permanent, or the context ended
	KindTransport
	// KindSchemaValidation means the completion did not decode into the schema
	KindSchemaValidation
	// KindRetriesExhausted means every allowed attempt failed
	KindRetriesExhausted
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindTransport:
		return "transport"
	case KindSchemaValidation:
		return "schema_validation"
	case KindRetriesExhausted:
		return "retries_exhausted"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidRequest:
		return ErrInvalidRequest
	case KindTransport:
		return ErrTransport
	case KindSchemaValidation:
		return ErrSchemaValidation
	case KindRetriesExhausted:
		return ErrRetriesExhausted
	}
	return nil
}

// GenerationError is the typed failure of Generate.
type GenerationError struct {
	Kind ErrorKind

	// Attempts is the number of provider calls made before failing
	Attempts int

	// Field names the offending request field (KindInvalidRequest only)
	Field string

	// RawContent is the completion text that failed to decode (KindSchemaValidation only)
	RawContent string

	// Cause is the underlying error: the last provider error, the decode error, or the validation error
	Cause error
}

func (e *GenerationError) Error() string {
	switch e.Kind {
	case KindInvalidRequest:
		if e.Field != "" {
			return fmt.Sprintf("%v: %s: %v", ErrInvalidRequest, e.Field, e.Cause)
		}
		return fmt.Sprintf("%v: %v", ErrInvalidRequest, e.Cause)
	case KindRetriesExhausted:
		return fmt.Sprintf("%v after %d attempts: %v", ErrRetriesExhausted, e.Attempts, e.Cause)
	default:
		return fmt.Sprintf("%v: %v", e.Kind.sentinel(), e.Cause)
	}
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is / errors.As
func (e *GenerationError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func invalidRequest(field string, cause error) *GenerationError {
	return &GenerationError{Kind: KindInvalidRequest, Field: field, Cause: cause}
}

// BatchError reports the batch slot that stopped a StopOnFailure batch
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch item %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// AsGenerationError extracts the *GenerationError from err, if any
func AsGenerationError(err error) (*GenerationError, bool) {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr, true
	}
	return nil, false
}
