package docstring

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Entries is an ordered list of entries. It marshals to a JSON object whose
// keys keep the documentation order.
type Entries []Entry

// Get returns the node of the entry called key.
func (es Entries) Get(key string) (*yaml.Node, bool) {
	for _, e := range es {
		if e.Key == key {
			return e.Node, true
		}
	}
	return nil, false
}

// Keys lists the entry keys in order.
func (es Entries) Keys() []string {
	keys := make([]string, len(es))
	for i, e := range es {
		keys[i] = e.Key
	}
	return keys
}

func (es Entries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range es {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, e.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeNode(&buf, e.Node); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Key, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NodeJSON encodes a YAML node as JSON, keeping mapping key order.
func NodeJSON(n *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNode(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, n *yaml.Node) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeNode(buf, n.Content[0])
	case yaml.AliasNode:
		return writeNode(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, n.Content[i].Value); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeNode(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNode(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return err
	}
	return writeValue(buf, v)
}

func writeString(buf *bytes.Buffer, s string) error {
	return writeValue(buf, s)
}

func writeValue(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode appends a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
