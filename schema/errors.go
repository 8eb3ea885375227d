package schema

import (
	"errors"
	"fmt"
	"strconv"
)

// SchemaError reports a schema that cannot be parsed or resolved.
// It is raised while building schemas, never while validating data.
type SchemaError struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Invalid reports data that does not match a schema.
type Invalid struct {
	Path    string
	Message string
	Value   any
}

func (e *Invalid) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func schemaErrorf(path, format string, args ...any) *SchemaError {
	return &SchemaError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// Mark prefixes the path of a *SchemaError or *Invalid with prefix, so errors
// raised deep inside a schema name the route or directive they belong to.
// Other errors are returned unchanged.
func Mark(prefix string, err error) error {
	if err == nil || prefix == "" {
		return err
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return &SchemaError{Path: join(prefix, se.Path), Message: se.Message}
	}
	var iv *Invalid
	if errors.As(err, &iv) {
		return &Invalid{Path: join(prefix, iv.Path), Message: iv.Message, Value: iv.Value}
	}
	return err
}

func join(path, key string) string {
	switch {
	case path == "":
		return key
	case key == "":
		return path
	case key[0] == '[':
		return path + key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
