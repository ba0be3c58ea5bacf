package schema

import (
	"fmt"
)

// Schema is the validation contract consumed by the procedure layer.
// Parse validates and coerces a raw value, returning the parsed form or an
// error. Implementations backed by an external validator only need to satisfy
// this interface; Fields is the structural introspection hook used for API
// description generation and may return nil for opaque schemas.
type Schema interface {
	Parse(value any) (any, error)
	Fields() []FieldSpec
}

// Type identifies a field's primitive type
type Type string

const (
	// TypeString is a string field
	TypeString Type = "string"
	// TypeInt is an integer field
	TypeInt Type = "int"
	// TypeFloat is a floating-point field
	TypeFloat Type = "float"
	// TypeBool is a boolean field
	TypeBool Type = "bool"
	// TypeAny accepts any value
	TypeAny Type = "any"
)

// FieldSpec describes one field of an object schema
type FieldSpec struct {
	Name     string `json:"name"`
	Type     Type   `json:"type"`
	Required bool   `json:"required"`
}

// Object is a map-shaped schema over named, typed fields.
// It is the concrete Schema implementation used by manifest-declared
// procedures; Go-declared procedures may plug in any Schema.
type Object struct {
	fields []FieldSpec
	byName map[string]FieldSpec
}

// NewObject creates an object schema from the given field specs
func NewObject(fields ...FieldSpec) *Object {
	byName := make(map[string]FieldSpec, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	return &Object{fields: fields, byName: byName}
}

// Field creates an optional field spec
func Field(name string, t Type) FieldSpec {
	return FieldSpec{Name: name, Type: t}
}

// Required creates a required field spec
func Required(name string, t Type) FieldSpec {
	return FieldSpec{Name: name, Type: t, Required: true}
}

// Fields returns the ordered field specs
func (o *Object) Fields() []FieldSpec {
	out := make([]FieldSpec, len(o.fields))
	copy(out, o.fields)
	return out
}

// Parse validates a value against the object shape. The value must be a
// map[string]any; required fields must be present and non-nil, and typed
// fields must hold a value of the declared type. Unknown keys pass through
// untouched. Failures are reported per field via ValidationErrors.
func (o *Object) Parse(value any) (any, error) {
	m, ok := value.(map[string]any)
	if !ok {
		if value == nil {
			m = map[string]any{}
		} else {
			return nil, fmt.Errorf("expected object, got %T", value)
		}
	}

	errs := NewValidationErrors()
	parsed := make(map[string]any, len(m))
	for k, v := range m {
		parsed[k] = v
	}

	for _, f := range o.fields {
		v, present := m[f.Name]
		if !present || v == nil {
			if f.Required {
				errs.Add(f.Name, "is required")
			}
			continue
		}
		if !typeMatches(f.Type, v) {
			errs.Add(f.Name, fmt.Sprintf("must be a %s", f.Type))
		}
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return parsed, nil
}

// typeMatches reports whether a decoded value satisfies the declared type.
// Integers arriving as float64 (the JSON decoding of numbers) are accepted
// for int fields when they have no fractional part.
func typeMatches(t Type, v any) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeInt:
		switch n := v.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == float64(int64(n))
		}
		return false
	case TypeFloat:
		switch v.(type) {
		case float32, float64, int, int64:
			return true
		}
		return false
	case TypeBool:
		_, ok := v.(bool)
		return ok
	case TypeAny, "":
		return true
	}
	return false
}
