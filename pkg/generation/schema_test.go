package generation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quizItem struct {
	Question string   `json:"question" validate:"required"`
	Options  []string `json:"options" validate:"len=4,dive,required"`
	Correct  int      `json:"correct" validate:"gte=0,lte=3"`
}

func TestJSONSchema_Object(t *testing.T) {
	schema := NewJSONSchema[quizItem]("question", "options", "correct")

	v, err := schema.Decode(`{"question": "Q?", "options": ["a", "b", "c", "d"], "correct": 2}`)
	require.NoError(t, err)

	item, ok := v.(quizItem)
	require.True(t, ok, "decoded value should have dynamic type quizItem, got %T", v)
	assert.Equal(t, "Q?", item.Question)
	assert.Equal(t, 2, item.Correct)
}

func TestJSONSchema_MissingKey(t *testing.T) {
	schema := NewJSONSchema[quizItem]("question", "options", "correct")

	_, err := schema.Decode(`{"question": "Q?", "options": ["a", "b", "c", "d"]}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingKey)
	assert.Contains(t, err.Error(), `"correct"`)
}

func TestJSONSchema_ValidationTags(t *testing.T) {
	schema := NewJSONSchema[quizItem]()

	tests := map[string]string{
		"three options":   `{"question": "Q?", "options": ["a", "b", "c"], "correct": 0}`,
		"empty option":    `{"question": "Q?", "options": ["a", "", "c", "d"], "correct": 0}`,
		"index too large": `{"question": "Q?", "options": ["a", "b", "c", "d"], "correct": 4}`,
		"empty question":  `{"question": "", "options": ["a", "b", "c", "d"], "correct": 0}`,
	}

	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := schema.Decode(text)
			require.Error(t, err)

			var fieldErrs validator.ValidationErrors
			assert.True(t, errors.As(err, &fieldErrs), "expected validator errors, got %v", err)
		})
	}
}

func TestJSONSchema_Array(t *testing.T) {
	schema := NewJSONSchema[[]quizItem]("question")

	v, err := schema.Decode(`[
		{"question": "Q1", "options": ["a", "b", "c", "d"], "correct": 0},
		{"question": "Q2", "options": ["a", "b", "c", "d"], "correct": 3}
	]`)
	require.NoError(t, err)

	items, ok := v.([]quizItem)
	require.True(t, ok)
	assert.Len(t, items, 2)

	_, err = schema.Decode(`[{"question": "Q1", "options": ["a", "b", "c", "d"], "correct": 0}, {"options": []}]`)
	assert.ErrorIs(t, err, ErrMissingKey)
	assert.Contains(t, err.Error(), "item 1")

	_, err = schema.Decode(`[{"question": "Q1", "options": ["a"], "correct": 0}]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 0")

	_, err = schema.Decode(`["just a string"]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected JSON object, got string")
}

func TestJSONSchema_WrongShape(t *testing.T) {
	schema := NewJSONSchema[quizItem]("question")

	for _, text := range []string{`"text"`, `42`, `null`, `not json at all`} {
		_, err := schema.Decode(text)
		assert.Error(t, err, "input %q", text)
	}
}

func TestJSONSchema_NullWithoutRequiredKeys(t *testing.T) {
	for _, text := range []string{`null`, " null \n"} {
		_, err := NewJSONSchema[[]json.RawMessage]().Decode(text)
		assert.Error(t, err, "slice schema, input %q", text)

		_, err = NewJSONSchema[quizItem]().Decode(text)
		assert.Error(t, err, "struct schema, input %q", text)
	}
}

func TestJSONSchema_RawMessages(t *testing.T) {
	schema := NewJSONSchema[[]json.RawMessage]()

	v, err := schema.Decode(`[{"a": 1}, "loose", 3]`)
	require.NoError(t, err)
	assert.Len(t, v.([]json.RawMessage), 3)
}

func TestSchemaFunc(t *testing.T) {
	schema := SchemaFunc(func(text string) (any, error) {
		if text != "ok" {
			return nil, errors.New("not ok")
		}
		return len(text), nil
	})

	v, err := schema.Decode("ok")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = schema.Decode("nope")
	assert.Error(t, err)
}

func TestDecoded(t *testing.T) {
	result := GenerationResult{Kind: ResultDecoded, Value: quizItem{Question: "Q"}}

	item, err := Decoded[quizItem](result)
	require.NoError(t, err)
	assert.Equal(t, "Q", item.Question)

	_, err = Decoded[[]quizItem](result)
	assert.Error(t, err)

	_, err = Decoded[quizItem](GenerationResult{Kind: ResultRawText, Text: "x"})
	assert.Error(t, err)
}
