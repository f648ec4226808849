// Package schema describes structural contracts for model output as data.
//
// A Schema is a plain value (kinds, fields, min-length constraints) that can
// validate decoded JSON and render itself as JSON Schema for providers that
// support constrained decoding. Every structured generation call shares the
// same validation path regardless of which schema it uses. Length and item
// count constraints are checked with go-playground/validator tags derived
// from the schema.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Kind is the structural type of a schema node
type Kind string

const (
	KindString Kind = "string"
	KindArray  Kind = "array"
	KindObject Kind = "object"
	KindMap    Kind = "map" // object with arbitrary keys and uniform values
)

// Schema is a data-driven structural contract
type Schema struct {
	Name        string
	Description string
	Kind        Kind

	// MinLength is the minimum rune count for KindString
	MinLength int

	// MinItems and Items apply to KindArray
	MinItems int
	Items    *Schema

	// Fields applies to KindObject; order is kept when rendering JSON Schema
	Fields []Field

	// Keys and Values apply to KindMap. Keys must be KindString.
	Keys   *Schema
	Values *Schema
}

// Field is a named member of an object schema
type Field struct {
	Name     string
	Schema   *Schema
	Required bool
}

// String returns a string schema with a minimum length
func String(minLength int) *Schema {
	return &Schema{Kind: KindString, MinLength: minLength}
}

// NonEmptyString returns a string schema requiring at least one character
func NonEmptyString() *Schema {
	return String(1)
}

// Array returns an array schema
func Array(items *Schema, minItems int) *Schema {
	return &Schema{Kind: KindArray, Items: items, MinItems: minItems}
}

// Object returns an object schema with ordered fields
func Object(name string, fields ...Field) *Schema {
	return &Schema{Name: name, Kind: KindObject, Fields: fields}
}

// Map returns a schema for an object with arbitrary string keys
func Map(name string, keys, values *Schema) *Schema {
	return &Schema{Name: name, Kind: KindMap, Keys: keys, Values: values}
}

// Required declares a required object field
func Required(name string, s *Schema) Field {
	return Field{Name: name, Schema: s, Required: true}
}

// Optional declares an optional object field
func Optional(name string, s *Schema) Field {
	return Field{Name: name, Schema: s}
}

// Describe sets a description and returns the schema for chaining
func (s *Schema) Describe(description string) *Schema {
	s.Description = description
	return s
}

// Violation is a single failed constraint at a JSON path
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError lists every constraint the value failed
type ValidationError struct {
	Schema     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Path+": "+v.Message)
	}
	name := e.Schema
	if name == "" {
		name = "value"
	}
	return fmt.Sprintf("%s does not conform to schema: %s", name, strings.Join(parts, "; "))
}

// ValidateJSON decodes data and validates the result
func (s *Schema) ValidateJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return &ValidationError{
			Schema:     s.Name,
			Violations: []Violation{{Path: "$", Message: "invalid JSON: " + err.Error()}},
		}
	}
	if dec.More() {
		return &ValidationError{
			Schema:     s.Name,
			Violations: []Violation{{Path: "$", Message: "trailing data after JSON value"}},
		}
	}
	return s.Validate(value)
}

// Validate checks a decoded JSON value (maps, slices, strings, json.Number)
// against the schema. All violations are collected, not just the first.
func (s *Schema) Validate(value any) error {
	var violations []Violation
	s.validate("$", value, &violations)
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Schema: s.Name, Violations: violations}
}

func (s *Schema) validate(path string, value any, out *[]Violation) {
	add := func(p, format string, args ...any) {
		*out = append(*out, Violation{Path: p, Message: fmt.Sprintf(format, args...)})
	}

	switch s.Kind {
	case KindString:
		str, ok := value.(string)
		if !ok {
			add(path, "expected string, got %s", typeName(value))
			return
		}
		if !s.satisfies(str) {
			add(path, "string shorter than %d characters", s.MinLength)
		}

	case KindArray:
		items, ok := value.([]any)
		if !ok {
			add(path, "expected array, got %s", typeName(value))
			return
		}
		if !s.satisfies(items) {
			add(path, "expected at least %d items, got %d", s.MinItems, len(items))
		}
		if s.Items != nil {
			for i, item := range items {
				s.Items.validate(fmt.Sprintf("%s[%d]", path, i), item, out)
			}
		}

	case KindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			add(path, "expected object, got %s", typeName(value))
			return
		}
		for _, f := range s.Fields {
			fieldPath := path + "." + f.Name
			v, present := obj[f.Name]
			if !present || v == nil {
				if f.Required {
					add(fieldPath, "required field missing")
				}
				continue
			}
			f.Schema.validate(fieldPath, v, out)
		}

	case KindMap:
		obj, ok := value.(map[string]any)
		if !ok {
			add(path, "expected object, got %s", typeName(value))
			return
		}
		// sorted so violation order is stable
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			keyPath := fmt.Sprintf("%s[%q]", path, k)
			if s.Keys != nil {
				s.Keys.validate(keyPath+"<key>", k, out)
			}
			if s.Values != nil {
				s.Values.validate(keyPath, obj[k], out)
			}
		}

	default:
		add(path, "unsupported schema kind %q", s.Kind)
	}
}

// Tag returns the validator tag for the node's own constraints, or "" when
// it has none. Nested items, fields and map entries are walked separately.
func (s *Schema) Tag() string {
	switch s.Kind {
	case KindString:
		if s.MinLength > 0 {
			return fmt.Sprintf("min=%d", s.MinLength)
		}
	case KindArray:
		if s.MinItems > 0 {
			return fmt.Sprintf("min=%d", s.MinItems)
		}
	}
	return ""
}

func (s *Schema) satisfies(value any) bool {
	tag := s.Tag()
	if tag == "" {
		return true
	}
	return validate.Var(value, tag) == nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
