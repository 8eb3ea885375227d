package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func node(t *testing.T, text string) *yaml.Node {
	t.Helper()
	var n yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(text), &n))
	return &n
}

func TestParseKey(t *testing.T) {
	e, err := parseKey(`name?str&default="world"&maxlen=10`)
	require.NoError(t, err)
	assert.Equal(t, "name", e.name)
	assert.Equal(t, "str", e.validator)
	assert.True(t, e.typed)
	assert.Equal(t, Params{"default": "world", "maxlen": 10}, e.params)

	e, err = parseKey("user@user&optional")
	require.NoError(t, err)
	assert.Equal(t, "user", e.ref)
	assert.True(t, e.params.Bool("optional"))

	e, err = parseKey("tags")
	require.NoError(t, err)
	assert.False(t, e.typed)

	_, err = parseKey("bad name?str")
	assert.Error(t, err)
	_, err = parseKey("name?")
	assert.Error(t, err)
}

func TestSplitParamsRespectsQuotes(t *testing.T) {
	tokens, err := splitParams(`str&default="a&b"&match="^[a-z&]+$"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"str", `default="a&b"`, `match="^[a-z&]+$"`}, tokens)

	_, err = splitParams(`str&default="open`)
	assert.Error(t, err)
}

func TestDecodeLiteral(t *testing.T) {
	assert.Equal(t, 5, decodeLiteral("5"))
	assert.Equal(t, 2.5, decodeLiteral("2.5"))
	assert.Equal(t, "world", decodeLiteral(`"world"`))
	assert.Equal(t, "world", decodeLiteral("world"))
	assert.Equal(t, true, decodeLiteral("true"))
	assert.Equal(t, []any{"a", 1}, decodeLiteral(`["a",1]`))
	assert.Equal(t, "two words", decodeLiteral("two words"))
}

func TestParseObjectKeepsOrder(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)

	s, err := p.Parse(node(t, `
name?str&default="world": your name
age?int&min=0&optional: age
tags:
    - "&minlen=1&unique"
    - str
`))
	require.NoError(t, err)
	require.Equal(t, KindObject, s.Kind)
	require.Len(t, s.Fields, 3)
	assert.Equal(t, "name", s.Fields[0].Name)
	assert.Equal(t, "your name", s.Fields[0].Schema.Desc)
	assert.Equal(t, "world", s.Fields[0].Schema.Default)
	assert.True(t, s.Fields[1].Schema.Optional)
	assert.Equal(t, KindArray, s.Fields[2].Schema.Kind)
	assert.Equal(t, "str", s.Fields[2].Schema.Items.Validator)
}

func TestSharedDefinitions(t *testing.T) {
	p, err := NewParser(WithShared(
		Definition{Name: "message", Value: node(t, "hello?str: greeting")},
		Definition{Name: "reply", Value: node(t, "message@message: the message\nfrom?str: sender")},
	))
	require.NoError(t, err)

	s, err := p.Parse("@message")
	require.NoError(t, err)
	assert.Equal(t, "message", s.Ref)
	assert.Equal(t, KindObject, s.Kind)

	reply, ok := p.Shared("reply")
	require.True(t, ok)
	field, ok := reply.Field("message")
	require.True(t, ok)
	assert.Equal(t, "message", field.Ref)
	assert.Equal(t, "the message", field.Desc)

	assert.Equal(t, []string{"message", "reply"}, p.SharedNames())
}

func TestSharedForwardReference(t *testing.T) {
	_, err := NewParser(WithShared(
		Definition{Name: "page", Value: node(t, "items:\n    - \"@item\"")},
		Definition{Name: "item", Value: "str"},
	))
	assert.NoError(t, err)
}

func TestUndefinedSharedFails(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)

	_, err = p.Parse(node(t, "user@user: who"))
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "user", se.Path)
	assert.Contains(t, se.Message, "undefined shared @user")

	_, err = p.Parse("@missing")
	assert.Error(t, err)

	_, err = NewParser(WithShared(Definition{Name: "a", Value: "@b"}))
	assert.Error(t, err)
}

func TestSharedCycleFails(t *testing.T) {
	_, err := NewParser(WithShared(
		Definition{Name: "a", Value: "@b"},
		Definition{Name: "b", Value: "@a"},
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular reference")
}

func TestParseErrors(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)

	cases := map[string]any{
		"unknown validator": "nope",
		"bad default":       `int&default="abc"`,
		"empty":             nil,
		"long array":        []any{"str", "int", "bool"},
		"bad array head":    []any{"int", "str"},
		"typed with object": node(t, "name?str:\n    inner?int: x"),
		"bad minlen":        []any{"&minlen=-1", "str"},
		"self with ref":     node(t, "$self: \"@x\"\nname?str: n"),
		"bad regexp":        `str&match="("`,
		"enum no values":    "enum",
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := p.Parse(v)
			var se *SchemaError
			assert.True(t, errors.As(err, &se), "got %v", err)
		})
	}
}

func TestCustomValidator(t *testing.T) {
	upper := func(params Params) (Validator, error) {
		return func(v any) (any, error) {
			s, ok := v.(string)
			if !ok || s == "" || s[0] < 'A' || s[0] > 'Z' {
				return nil, errors.New("must start with an upper case letter")
			}
			return s, nil
		}, nil
	}
	p, err := NewParser(WithValidators(map[string]Factory{"capital": upper}))
	require.NoError(t, err)

	s, err := p.Parse(node(t, "city?capital: a city"))
	require.NoError(t, err)

	out, err := s.Validate(map[string]any{"city": "Paris"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Paris"}, out)

	_, err = s.Validate(map[string]any{"city": "paris"})
	assert.EqualError(t, err, "city: must start with an upper case letter")
}

func TestMark(t *testing.T) {
	err := Mark("user.login.$input", &SchemaError{Path: "name", Message: "unknown validator"})
	assert.EqualError(t, err, "user.login.$input.name: unknown validator")

	err = Mark("$output", &Invalid{Path: "[0]", Message: "required"})
	assert.EqualError(t, err, "$output[0]: required")

	plain := errors.New("plain")
	assert.Equal(t, plain, Mark("x", plain))
}
