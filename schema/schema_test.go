package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectParse(t *testing.T) {
	s := NewObject(
		Required("title", TypeString),
		Field("views", TypeInt),
		Field("published", TypeBool),
		Field("rating", TypeFloat),
		Field("meta", TypeAny),
	)

	tests := []struct {
		name   string
		input  any
		fields []string // fields expected to carry errors; empty means valid
	}{
		{
			name:  "valid full input",
			input: map[string]any{"title": "hi", "views": 3, "published": true, "rating": 4.5},
		},
		{
			name:  "optional fields may be absent",
			input: map[string]any{"title": "hi"},
		},
		{
			name:   "missing required field",
			input:  map[string]any{"views": 1},
			fields: []string{"title"},
		},
		{
			name:   "nil required field",
			input:  map[string]any{"title": nil},
			fields: []string{"title"},
		},
		{
			name:   "wrong types",
			input:  map[string]any{"title": 7, "views": "many", "published": "yes"},
			fields: []string{"title", "views", "published"},
		},
		{
			name:  "json numbers accepted for int fields",
			input: map[string]any{"title": "hi", "views": float64(3)},
		},
		{
			name:   "fractional number rejected for int field",
			input:  map[string]any{"title": "hi", "views": 3.5},
			fields: []string{"views"},
		},
		{
			name:  "unknown keys pass through",
			input: map[string]any{"title": "hi", "extra": "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := s.Parse(tt.input)
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				assert.Equal(t, tt.input, out)
				return
			}

			var ve *ValidationErrors
			require.True(t, errors.As(err, &ve))
			for _, f := range tt.fields {
				assert.Contains(t, ve.Fields, f)
			}
			assert.Equal(t, len(tt.fields), len(ve.Fields))
		})
	}
}

func TestObjectParseRejectsNonObject(t *testing.T) {
	s := NewObject(Required("id", TypeString))

	_, err := s.Parse("not an object")
	require.Error(t, err)

	// nil input is an empty object, so required fields fail field-wise
	_, err = s.Parse(nil)
	var ve *ValidationErrors
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "id")
}

func TestObjectParseDoesNotMutateInput(t *testing.T) {
	s := NewObject(Field("title", TypeString))
	in := map[string]any{"title": "hi"}

	out, err := s.Parse(in)
	require.NoError(t, err)

	parsed := out.(map[string]any)
	parsed["title"] = "changed"
	assert.Equal(t, "hi", in["title"])
}

func TestObjectFields(t *testing.T) {
	s := NewObject(Required("a", TypeString), Field("b", TypeInt))

	fields := s.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "a", fields[0].Name)
	assert.True(t, fields[0].Required)

	// Accessor returns a copy
	fields[0].Name = "mutated"
	assert.Equal(t, "a", s.Fields()[0].Name)
}

func TestValidationErrors(t *testing.T) {
	ve := NewValidationErrors()
	assert.False(t, ve.HasErrors())

	ve.Add("title", "is required")
	ve.Add("title", "must be a string")
	ve.Add("views", "must be a int")

	assert.True(t, ve.HasErrors())
	assert.Equal(t, 3, ve.Count())
	assert.Contains(t, ve.Error(), "title: is required")
	assert.Contains(t, ve.Error(), "views")
}
