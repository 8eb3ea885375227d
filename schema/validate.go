package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
)

// Validate checks v against the schema and returns the converted value.
func (s *Schema) Validate(v any) (any, error) {
	return s.validate(v, "")
}

func (s *Schema) validate(v any, path string) (any, error) {
	if s.missing(v) {
		switch {
		case s.HasDefault:
			return clone(s.Default), nil
		case s.Optional:
			return nil, nil
		}
		return nil, &Invalid{Path: path, Message: "required"}
	}
	switch s.Kind {
	case KindObject:
		return s.validateObject(v, path)
	case KindArray:
		return s.validateArray(v, path)
	}
	out, err := s.fn(v)
	if err != nil {
		return nil, &Invalid{Path: path, Message: err.Error(), Value: v}
	}
	return out, nil
}

// missing treats nil and the empty string as absent: an empty form field
// means "not given".
func (s *Schema) missing(v any) bool {
	return v == nil || v == ""
}

func (s *Schema) validateObject(v any, path string) (any, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, &Invalid{Path: path, Message: "must be an object", Value: v}
	}
	if len(s.Fields) == 0 {
		return m, nil
	}
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		val, err := f.Schema.validate(m[f.Name], join(path, f.Name))
		if err != nil {
			return nil, err
		}
		out[f.Name] = val
	}
	return out, nil
}

func (s *Schema) validateArray(v any, path string) (any, error) {
	items, ok := asSlice(v)
	if !ok {
		return nil, &Invalid{Path: path, Message: "must be an array", Value: v}
	}
	if n, ok := s.Params.Int("minlen"); ok && len(items) < n {
		return nil, &Invalid{Path: path, Message: fmt.Sprintf("must have at least %d items", n)}
	}
	if n, ok := s.Params.Int("maxlen"); ok && len(items) > n {
		return nil, &Invalid{Path: path, Message: fmt.Sprintf("must have at most %d items", n)}
	}
	unique := s.Params.Bool("unique")
	seen := make(map[string]bool)
	out := make([]any, len(items))
	for i, item := range items {
		val, err := s.Items.validate(item, index(path, i))
		if err != nil {
			return nil, err
		}
		if unique {
			key, _ := json.Marshal(val)
			if seen[string(key)] {
				return nil, &Invalid{Path: index(path, i), Message: "duplicate item", Value: item}
			}
			seen[string(key)] = true
		}
		out[i] = val
	}
	return out, nil
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, s := range t {
			m[k] = s
		}
		return m, true
	}
	return nil, false
}

func asSlice(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = clone(val)
		}
		return m
	case []any:
		items := make([]any, len(t))
		for i, val := range t {
			items[i] = clone(val)
		}
		return items
	}
	return v
}

// Normalize converts v into plain JSON values (map[string]any, []any, string,
// bool, int, float64, nil). Structs and typed maps go through encoding/json,
// so their json tags decide the keys.
func Normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, string, int, float64:
		return v, nil
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			n, err := Normalize(val)
			if err != nil {
				return nil, err
			}
			m[k] = n
		}
		return m, nil
	case []any:
		items := make([]any, len(t))
		for i, val := range t {
			n, err := Normalize(val)
			if err != nil {
				return nil, err
			}
			items[i] = n
		}
		return items, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize %T: %w", v, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("normalize %T: %w", v, err)
	}
	return fromJSONNumbers(out), nil
}

// FromForm converts form values into a map shaped by s: array fields keep
// every value, other fields take the first one. Keys unknown to s are kept
// as single values and dropped later by validation.
func FromForm(s *Schema, form url.Values) map[string]any {
	out := make(map[string]any, len(form))
	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		if s != nil && s.Kind == KindObject {
			if f, ok := s.Field(key); ok && f.Kind == KindArray {
				items := make([]any, len(values))
				for i, v := range values {
					items[i] = v
				}
				out[key] = items
				continue
			}
		}
		out[key] = values[0]
	}
	return out
}
