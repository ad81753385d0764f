package generation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ErrMissingKey is returned when a decoded object lacks a required key
var ErrMissingKey = errors.New("missing required key")

// Schema decodes cleaned completion text into a structured value.
// Any error it returns becomes a KindSchemaValidation failure.
type Schema interface {
	Decode(text string) (any, error)
}

// SchemaFunc adapts a plain function to Schema
type SchemaFunc func(text string) (any, error)

// Decode calls f(text)
func (f SchemaFunc) Decode(text string) (any, error) {
	return f(text)
}

// JSONSchema decodes JSON into T.
//
// Decoding happens in three steps:
//  1. the required top-level keys are checked on the object, or on every
//     object of a top-level array;
//  2. the text is unmarshaled into T;
//  3. validator struct tags are checked on T, or on each struct element when T is a slice.
type JSONSchema[T any] struct {
	requiredKeys []string
}

// NewJSONSchema creates a schema decoding into T that requires the given keys
func NewJSONSchema[T any](requiredKeys ...string) *JSONSchema[T] {
	return &JSONSchema[T]{requiredKeys: requiredKeys}
}

// Decode implements Schema. The returned value has dynamic type T.
func (s *JSONSchema[T]) Decode(text string) (any, error) {
	data := []byte(text)

	// json.Unmarshal accepts null for any T and leaves the zero value
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, errors.New("expected JSON value, got null")
	}

	if len(s.requiredKeys) > 0 {
		if err := checkRequiredKeys(data, s.requiredKeys); err != nil {
			return nil, err
		}
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	if err := validateDecoded(v); err != nil {
		return nil, err
	}

	return v, nil
}

func checkRequiredKeys(data []byte, keys []string) error {
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}

	switch v := generic.(type) {
	case map[string]any:
		return hasKeys(v, keys)
	case []any:
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("item %d: expected JSON object, got %s", i, jsonKind(item))
			}
			if err := hasKeys(obj, keys); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("expected JSON object or array, got %s", jsonKind(generic))
	}
}

func hasKeys(obj map[string]any, keys []string) error {
	for _, key := range keys {
		if _, ok := obj[key]; !ok {
			return fmt.Errorf("%w %q", ErrMissingKey, key)
		}
	}
	return nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// validateDecoded runs struct-tag validation on structs, pointers to structs
// and on the struct elements of slices and arrays.
func validateDecoded(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return validate.Struct(rv.Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			for elem.Kind() == reflect.Pointer && !elem.IsNil() {
				elem = elem.Elem()
			}
			if elem.Kind() != reflect.Struct {
				continue
			}
			if err := validate.Struct(elem.Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}
