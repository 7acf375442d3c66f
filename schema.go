package shark

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// valueKind is the JSON kind a schema node accepts.
type valueKind int

const (
	kindAny valueKind = iota
	kindString
	kindNumber
	kindInteger
	kindBool
	kindObject
	kindArray
	kindUnion
)

// schema describes the expected shape of a decoded JSON value.
// Objects ignore keys they do not declare.
type schema struct {
	kind     valueKind
	optional bool
	nullable bool
	enum     []string
	fields   []field
	elem     *schema
	variants []schema

	// refine runs only after the structural checks passed.
	refine func(path string, v any) []FieldError
}

type field struct {
	name   string
	schema schema
}

func str() schema { return schema{kind: kindString} }
func number() schema { return schema{kind: kindNumber} }
func integer() schema { return schema{kind: kindInteger} }
func boolean() schema { return schema{kind: kindBool} }
func anyValue() schema { return schema{kind: kindAny} }
func key(name string, s schema) field {
	return field{name: name, schema: s}
}

func enumOf(values ...string) schema {
	return schema{kind: kindString, enum: values}
}

func object(fields ...field) schema {
	return schema{kind: kindObject, fields: fields}
}

func arrayOf(elem schema) schema {
	return schema{kind: kindArray, elem: &elem}
}

func union(variants ...schema) schema {
	return schema{kind: kindUnion, variants: variants}
}

// opt marks the key as allowed to be absent. A present null is still rejected
// unless the node is also nullable.
func (s schema) opt() schema {
	s.optional = true
	return s
}

func (s schema) null() schema {
	s.nullable = true
	return s
}

func (s schema) refined(fn func(path string, v any) []FieldError) schema {
	s.refine = fn
	return s
}

// validate checks v against s and returns every field-level failure.
func (s schema) validate(v any) []FieldError {
	return s.check("", v)
}

func (s schema) check(path string, v any) []FieldError {
	if v == nil {
		if s.nullable || s.kind == kindAny {
			return nil
		}
		return []FieldError{s.mismatch(path, v)}
	}

	var errs []FieldError
	switch s.kind {
	case kindAny:
	case kindString:
		sv, ok := v.(string)
		if !ok {
			return []FieldError{s.mismatch(path, v)}
		}
		if len(s.enum) > 0 && !slices.Contains(s.enum, sv) {
			return []FieldError{{
				Path:   path,
				Reason: fmt.Sprintf("expected one of %s, received %q", strings.Join(s.enum, " | "), sv),
			}}
		}
	case kindNumber:
		if _, ok := v.(json.Number); !ok {
			return []FieldError{s.mismatch(path, v)}
		}
	case kindInteger:
		n, ok := v.(json.Number)
		if !ok {
			return []FieldError{s.mismatch(path, v)}
		}
		if _, err := n.Int64(); err != nil {
			return []FieldError{{Path: path, Reason: "expected integer, received " + n.String()}}
		}
	case kindBool:
		if _, ok := v.(bool); !ok {
			return []FieldError{s.mismatch(path, v)}
		}
	case kindObject:
		m, ok := v.(map[string]any)
		if !ok {
			return []FieldError{s.mismatch(path, v)}
		}
		for _, f := range s.fields {
			p := joinPath(path, f.name)
			fv, present := m[f.name]
			if !present {
				if !f.schema.optional {
					errs = append(errs, FieldError{Path: p, Reason: "required"})
				}
				continue
			}
			errs = append(errs, f.schema.check(p, fv)...)
		}
	case kindArray:
		arr, ok := v.([]any)
		if !ok {
			return []FieldError{s.mismatch(path, v)}
		}
		// The first bad element fails the whole list.
		for i, e := range arr {
			if elemErrs := s.elem.check(fmt.Sprintf("%s[%d]", path, i), e); len(elemErrs) > 0 {
				return elemErrs
			}
		}
	case kindUnion:
		for _, variant := range s.variants {
			if len(variant.check(path, v)) == 0 {
				return nil
			}
		}
		return []FieldError{s.mismatch(path, v)}
	}

	if len(errs) == 0 && s.refine != nil {
		errs = s.refine(path, v)
	}
	return errs
}

func (s schema) mismatch(path string, v any) FieldError {
	return FieldError{
		Path:   path,
		Reason: fmt.Sprintf("expected %s, received %s", s.describe(), jsonTypeName(v)),
	}
}

func (s schema) describe() string {
	switch s.kind {
	case kindString:
		return "string"
	case kindNumber:
		return "number"
	case kindInteger:
		return "integer"
	case kindBool:
		return "boolean"
	case kindObject:
		return "object"
	case kindArray:
		return "array"
	case kindUnion:
		names := make([]string, len(s.variants))
		for i, v := range s.variants {
			names[i] = v.describe()
		}
		return strings.Join(names, " | ")
	default:
		return "any"
	}
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// decodeJSON decodes a single JSON document, keeping numbers as json.Number so
// integers and floats can be told apart.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w (body: %s)", err, truncatePreview(data))
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid JSON body: trailing data (body: %s)", truncatePreview(data))
	}
	return v, nil
}

// truncatePreview returns a truncated string for error messages.
func truncatePreview(data []byte) string {
	s := string(data)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
