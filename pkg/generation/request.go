package generation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultOperation labels requests that do not name their operation
const DefaultOperation = "generate"

// MaxRetryLimit is the largest accepted GenerationRequest.RetryLimit
const MaxRetryLimit = 10

// SchemaMode selects how the completion text is returned
type SchemaMode int

const (
	// RawText returns the trimmed completion text
	RawText SchemaMode = iota
	// StrictJSON strips code fences and decodes the text with the request Schema
	StrictJSON
)

func (m SchemaMode) String() string {
	switch m {
	case RawText:
		return "raw_text"
	case StrictJSON:
		return "strict_json"
	default:
		return fmt.Sprintf("SchemaMode(%d)", int(m))
	}
}

// GenerationRequest describes one completion call. Treat it as a value:
// GenerateBatch reuses the same request for every slot.
type GenerationRequest struct {
	Prompt      string     `validate:"required"`
	Model       string     `validate:"required"`
	MaxTokens   int        `validate:"gt=0"`
	Temperature float64    `validate:"gte=0,lte=2"`
	RetryLimit  int        `validate:"gte=0,lte=10"`
	Mode        SchemaMode `validate:"oneof=0 1"`

	// Schema decodes the completion when Mode is StrictJSON
	Schema Schema

	// Operation labels logs, metrics and traces (default "generate")
	Operation string
}

var validate = validator.New()

// Validate checks the request invariants and returns a KindInvalidRequest
// *GenerationError naming the first offending field.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return invalidRequest("Prompt", errors.New("must not be empty"))
	}

	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return invalidRequest(fe.Field(), fmt.Errorf("failed %q constraint (value %v)", constraint(fe), fe.Value()))
		}
		return invalidRequest("", err)
	}

	if r.Mode == StrictJSON && r.Schema == nil {
		return invalidRequest("Schema", errors.New("required in strict JSON mode"))
	}

	return nil
}

func (r GenerationRequest) operation() string {
	if r.Operation == "" {
		return DefaultOperation
	}
	return r.Operation
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
