package schema

// Kind tells scalar, object and array schemas apart.
type Kind int

const (
	KindScalar Kind = iota
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	}
	return "scalar"
}

// Schema is a resolved schema tree. Schemas are immutable once returned by a
// Parser and safe for concurrent use.
type Schema struct {
	Kind Kind
	// Validator names the scalar validator, "dict" or "list".
	Validator string
	// Ref is the shared definition this schema was resolved from, if any.
	Ref        string
	Params     Params
	Optional   bool
	Default    any
	HasDefault bool
	Desc       string

	Fields []Field
	Items  *Schema

	fn Validator
}

// Field is a named member of an object schema.
type Field struct {
	Name   string
	Schema *Schema
}

// Field returns the member called name.
func (s *Schema) Field(name string) (*Schema, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Schema, true
		}
	}
	return nil, false
}

// Required reports whether a missing value fails validation.
func (s *Schema) Required() bool {
	return !s.Optional && !s.HasDefault
}

// withParams copies s and applies the common params of a reference site.
func (s *Schema) withParams(params Params) *Schema {
	c := *s
	c.Params = Params{}
	for k, v := range s.Params {
		c.Params[k] = v
	}
	for k, v := range params {
		c.Params[k] = v
	}
	c.applyCommon()
	return &c
}

func (s *Schema) applyCommon() {
	s.Optional = s.Params.Bool("optional")
	if v, ok := s.Params["default"]; ok {
		s.Default, s.HasDefault = v, true
	}
	if d, ok := s.Params.String("desc"); ok {
		s.Desc = d
	}
}
