package schema

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var reIdent = regexp.MustCompile(`^\w+$`)

// Params are the &key=value modifiers of an expression.
type Params map[string]any

// Bool reports whether key is set to true.
func (p Params) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Float returns key as a number.
func (p Params) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case int:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// Int returns key as an integer. Fractional numbers are rejected.
func (p Params) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

// String returns key as a string.
func (p Params) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

type expr struct {
	name      string
	validator string
	ref       string
	typed     bool
	params    Params
}

// parseKey parses an object key: name[?validator|@ref](&params).
func parseKey(s string) (expr, error) {
	tokens, err := splitParams(s)
	if err != nil {
		return expr{}, err
	}
	var e expr
	head := strings.TrimSpace(tokens[0])
	if i := strings.IndexAny(head, "?@"); i >= 0 {
		e.name = head[:i]
		e.typed = true
		if head[i] == '?' {
			e.validator = head[i+1:]
		} else {
			e.ref = head[i+1:]
		}
		if e.validator == "" && e.ref == "" {
			return expr{}, schemaErrorf("", "missing validator after %q in %q", head[i:i+1], s)
		}
	} else {
		e.name = head
	}
	if !reIdent.MatchString(e.name) {
		return expr{}, schemaErrorf("", "invalid field name %q", e.name)
	}
	if e.params, err = parseParams(tokens[1:]); err != nil {
		return expr{}, err
	}
	return e, nil
}

// parseValue parses a scalar schema: validator(&params), @ref(&params) or &params.
func parseValue(s string) (expr, error) {
	tokens, err := splitParams(s)
	if err != nil {
		return expr{}, err
	}
	var e expr
	head := strings.TrimSpace(tokens[0])
	if strings.HasPrefix(head, "@") {
		e.ref = head[1:]
		if e.ref == "" {
			return expr{}, schemaErrorf("", "missing shared name in %q", s)
		}
	} else {
		e.validator = head
	}
	if e.params, err = parseParams(tokens[1:]); err != nil {
		return expr{}, err
	}
	return e, nil
}

// splitParams splits s on '&' outside of quotes and brackets.
func splitParams(s string) ([]string, error) {
	var (
		tokens  []string
		start   int
		depth   int
		inQuote bool
		escaped bool
	)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case inQuote && ch == '\\':
			escaped = true
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '[' || ch == '{':
			depth++
		case ch == ']' || ch == '}':
			depth--
		case ch == '&' && depth == 0:
			tokens = append(tokens, s[start:i])
			start = i + 1
		}
	}
	if inQuote {
		return nil, schemaErrorf("", "unterminated string in %q", s)
	}
	if depth != 0 {
		return nil, schemaErrorf("", "unbalanced brackets in %q", s)
	}
	return append(tokens, s[start:]), nil
}

func parseParams(tokens []string) (Params, error) {
	params := Params{}
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		key, raw, hasValue := strings.Cut(tok, "=")
		key = strings.TrimSpace(key)
		if !reIdent.MatchString(key) {
			return nil, schemaErrorf("", "invalid param %q", tok)
		}
		if !hasValue {
			params[key] = true
			continue
		}
		params[key] = decodeLiteral(strings.TrimSpace(raw))
	}
	return params, nil
}

// decodeLiteral decodes raw as JSON, falling back to the raw text.
// Integral numbers become int, others float64.
func decodeLiteral(raw string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return fromJSONNumbers(v)
}

func fromJSONNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = fromJSONNumbers(t[i])
		}
	case map[string]any:
		for k := range t {
			t[k] = fromJSONNumbers(t[k])
		}
	}
	return v
}
