package generation

import "fmt"

// ResultKind tags a GenerationResult
type ResultKind int

const (
	// ResultRawText carries the trimmed completion in Text
	ResultRawText ResultKind = iota
	// ResultDecoded carries the schema-decoded value in Value and the cleaned JSON in Text
	ResultDecoded
	// ResultPlaceholder marks a failed batch slot: Text is the placeholder, Err the failure
	ResultPlaceholder
)

func (k ResultKind) String() string {
	switch k {
	case ResultRawText:
		return "raw_text"
	case ResultDecoded:
		return "decoded"
	case ResultPlaceholder:
		return "placeholder"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// GenerationResult is the outcome of one generation.
type GenerationResult struct {
	Kind     ResultKind
	Text     string
	Value    any
	Attempts int
	Err      error
}

// IsPlaceholder reports whether the result stands in for a failed batch slot
func (r GenerationResult) IsPlaceholder() bool {
	return r.Kind == ResultPlaceholder
}

// Decoded returns the decoded value of a result as T.
func Decoded[T any](r GenerationResult) (T, error) {
	var zero T
	if r.Kind != ResultDecoded {
		return zero, fmt.Errorf("result is %s, not decoded", r.Kind)
	}
	v, ok := r.Value.(T)
	if !ok {
		return zero, fmt.Errorf("decoded value is %T, not %T", r.Value, zero)
	}
	return v, nil
}
