package schema

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const selfKey = "$self"

// Definition is a named shared schema, referenced as @Name.
type Definition struct {
	Name  string
	Value any
}

// Option configures a Parser.
type Option func(*Parser)

// WithValidators adds validator factories. They replace built-ins of the same name.
func WithValidators(factories map[string]Factory) Option {
	return func(p *Parser) {
		for name, f := range factories {
			p.factories[name] = f
		}
	}
}

// WithShared declares shared definitions. A definition may reference any other
// definition regardless of order; cycles are rejected.
func WithShared(defs ...Definition) Option {
	return func(p *Parser) {
		for _, d := range defs {
			if _, ok := p.raw[d.Name]; !ok {
				p.order = append(p.order, d.Name)
			}
			p.raw[d.Name] = d.Value
		}
	}
}

// Parser turns schema values (YAML nodes, decoded YAML or plain Go values) into
// resolved Schemas. Shared definitions are resolved eagerly by NewParser, after
// which a Parser is read-only and safe for concurrent use.
type Parser struct {
	factories map[string]Factory
	raw       map[string]any
	order     []string
	shared    map[string]*Schema
	resolving map[string]bool
}

// NewParser builds a parser and resolves every shared definition.
func NewParser(opts ...Option) (*Parser, error) {
	p := &Parser{
		factories: builtinFactories(),
		raw:       make(map[string]any),
		shared:    make(map[string]*Schema),
		resolving: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, name := range p.order {
		if !reIdent.MatchString(name) {
			return nil, schemaErrorf("@"+name, "invalid shared name")
		}
		if _, err := p.lookup(name, "@"+name); err != nil {
			return nil, err
		}
	}
	p.resolving = nil
	return p, nil
}

// Shared returns the resolved shared definition called name.
func (p *Parser) Shared(name string) (*Schema, bool) {
	s, ok := p.shared[name]
	return s, ok
}

// SharedNames lists shared definitions in declaration order.
func (p *Parser) SharedNames() []string {
	return append([]string(nil), p.order...)
}

// Parse resolves a schema value.
func (p *Parser) Parse(v any) (*Schema, error) {
	return p.parse(v, "")
}

func (p *Parser) lookup(name, path string) (*Schema, error) {
	if s, ok := p.shared[name]; ok {
		return s, nil
	}
	raw, ok := p.raw[name]
	if !ok || p.resolving == nil {
		return nil, schemaErrorf(path, "undefined shared @%s", name)
	}
	if p.resolving[name] {
		return nil, schemaErrorf(path, "circular reference to @%s", name)
	}
	p.resolving[name] = true
	s, err := p.parse(raw, "@"+name)
	delete(p.resolving, name)
	if err != nil {
		return nil, err
	}
	s.Ref = name
	p.shared[name] = s
	return s, nil
}

type entry struct {
	key   string
	value any
}

func (p *Parser) parse(v any, path string) (*Schema, error) {
	switch t := v.(type) {
	case nil:
		return nil, schemaErrorf(path, "empty schema")
	case *yaml.Node:
		return p.parseNode(t, path)
	case string:
		return p.parseString(t, path)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]entry, len(keys))
		for i, k := range keys {
			entries[i] = entry{key: k, value: t[k]}
		}
		return p.parseObject(entries, path)
	case []any:
		return p.parseArray(t, path)
	}
	return nil, schemaErrorf(path, "unsupported schema %T", v)
}

func (p *Parser) parseNode(n *yaml.Node, path string) (*Schema, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, schemaErrorf(path, "empty schema")
		}
		return p.parseNode(n.Content[0], path)
	case yaml.AliasNode:
		return p.parseNode(n.Alias, path)
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return p.parse(nil, path)
		}
		return p.parseString(n.Value, path)
	case yaml.MappingNode:
		entries := make([]entry, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, schemaErrorf(path, "object keys must be scalars (line %d)", k.Line)
			}
			entries = append(entries, entry{key: k.Value, value: n.Content[i+1]})
		}
		return p.parseObject(entries, path)
	case yaml.SequenceNode:
		items := make([]any, len(n.Content))
		for i, c := range n.Content {
			items[i] = c
		}
		return p.parseArray(items, path)
	}
	return nil, schemaErrorf(path, "unsupported YAML node (line %d)", n.Line)
}

func (p *Parser) parseString(s string, path string) (*Schema, error) {
	e, err := parseValue(s)
	if err != nil {
		return nil, Mark(path, err)
	}
	if e.ref != "" {
		return p.ref(e.ref, e.params, path)
	}
	return p.scalar(e.validator, e.params, path)
}

func (p *Parser) ref(name string, params Params, path string) (*Schema, error) {
	s, err := p.lookup(name, path)
	if err != nil {
		return nil, err
	}
	return s.withParams(params), nil
}

func (p *Parser) scalar(name string, params Params, path string) (*Schema, error) {
	switch name {
	case "":
		return nil, schemaErrorf(path, "missing validator")
	case "dict", "list":
		return nil, schemaErrorf(path, "%s needs a mapping or sequence", name)
	}
	factory, ok := p.factories[name]
	if !ok {
		return nil, schemaErrorf(path, "unknown validator %q", name)
	}
	fn, err := factory(params)
	if err != nil {
		return nil, schemaErrorf(path, "%s: %v", name, err)
	}
	s := &Schema{Kind: KindScalar, Validator: name, Params: params, fn: fn}
	s.applyCommon()
	if s.HasDefault && s.Default != nil {
		if _, err := fn(s.Default); err != nil {
			return nil, schemaErrorf(path, "invalid default %v: %v", s.Default, err)
		}
	}
	return s, nil
}

func (p *Parser) parseObject(entries []entry, path string) (*Schema, error) {
	s := &Schema{Kind: KindObject, Validator: "dict", Params: Params{}}
	seen := make(map[string]bool, len(entries))
	for _, en := range entries {
		if en.key == selfKey {
			text, ok := scalarText(en.value)
			if !ok {
				return nil, schemaErrorf(join(path, selfKey), "must be a string")
			}
			e, err := parseValue(text)
			if err != nil {
				return nil, Mark(join(path, selfKey), err)
			}
			if (e.validator != "" && e.validator != "dict") || e.ref != "" {
				return nil, schemaErrorf(join(path, selfKey), "only dict params are allowed")
			}
			s.Params = e.params
			continue
		}

		e, err := parseKey(en.key)
		if err != nil {
			return nil, Mark(join(path, en.key), err)
		}
		fieldPath := join(path, e.name)
		if seen[e.name] {
			return nil, schemaErrorf(fieldPath, "duplicate field")
		}
		seen[e.name] = true

		var field *Schema
		if e.typed {
			desc, ok := scalarText(en.value)
			if !ok && en.value != nil && !isNullNode(en.value) {
				return nil, schemaErrorf(fieldPath, "description must be a string")
			}
			if e.ref != "" {
				field, err = p.ref(e.ref, e.params, fieldPath)
			} else {
				field, err = p.scalar(e.validator, e.params, fieldPath)
			}
			if err != nil {
				return nil, err
			}
			if desc != "" && !e.params.Has("desc") {
				field.Desc = desc
			}
		} else {
			field, err = p.parse(en.value, fieldPath)
			if err != nil {
				return nil, err
			}
			if len(e.params) > 0 {
				field = field.withParams(e.params)
			}
		}
		s.Fields = append(s.Fields, Field{Name: e.name, Schema: field})
	}
	s.applyCommon()
	return s, nil
}

func (p *Parser) parseArray(items []any, path string) (*Schema, error) {
	s := &Schema{Kind: KindArray, Validator: "list", Params: Params{}}
	var item any
	switch len(items) {
	case 1:
		item = items[0]
	case 2:
		text, ok := scalarText(items[0])
		head := strings.TrimSpace(text)
		if !ok || !(strings.HasPrefix(head, "&") || head == "list" || strings.HasPrefix(head, "list&")) {
			return nil, schemaErrorf(path, "the first of two array items must be list params")
		}
		e, err := parseValue(head)
		if err != nil {
			return nil, Mark(path, err)
		}
		s.Params = e.params
		item = items[1]
	default:
		return nil, schemaErrorf(path, "array schema takes one item schema")
	}
	for _, key := range []string{"minlen", "maxlen"} {
		if s.Params.Has(key) {
			if n, ok := s.Params.Int(key); !ok || n < 0 {
				return nil, schemaErrorf(path, "%s must be a non-negative integer", key)
			}
		}
	}
	itemSchema, err := p.parse(item, index(path, 0))
	if err != nil {
		return nil, err
	}
	s.Items = itemSchema
	s.applyCommon()
	return s, nil
}

func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case *yaml.Node:
		if t.Kind == yaml.ScalarNode && t.Tag != "!!null" {
			return t.Value, true
		}
	}
	return "", false
}

func isNullNode(v any) bool {
	n, ok := v.(*yaml.Node)
	return ok && n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}
