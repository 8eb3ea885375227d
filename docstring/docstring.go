// Package docstring extracts YAML directive blocks from documentation text.
//
// A documentation text is free form prose followed by a YAML mapping whose
// keys carry a marker: "$name" for handler directives, "@name" for shared
// schema definitions. The prose becomes the description:
//
//	Greets someone.
//
//	$input:
//	    name?str&default="world": your name
//	$output: @message
package docstring

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/buildwithgo/fighting/schema"
	"gopkg.in/yaml.v3"
)

const (
	// DirectiveMarker starts handler directive keys.
	DirectiveMarker = '$'
	// SharedMarker starts shared definition keys.
	SharedMarker = '@'
)

const titleLen = 20

var (
	reDirective = regexp.MustCompile(`^[\t ]*\$\w+:`)
	reShared    = regexp.MustCompile(`^[\t ]*@\w+:`)
	reName      = regexp.MustCompile(`^\w+$`)
)

// Entry is one marked key of a documentation text, without its marker.
// Node keeps the YAML value with its key order.
type Entry struct {
	Key  string
	Node *yaml.Node
}

// Value decodes the entry into plain Go values.
func (e Entry) Value() (any, error) {
	var v any
	if e.Node == nil {
		return nil, nil
	}
	if err := e.Node.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// ParseDirectives splits doc into its description and "$name" entries.
func ParseDirectives(doc string) (string, Entries, error) {
	return Parse(doc, DirectiveMarker)
}

// ParseShared splits doc into its description and "@name" entries.
func ParseShared(doc string) (string, Entries, error) {
	return Parse(doc, SharedMarker)
}

// Parse splits doc at the first line starting with marker followed by a
// name and a colon. A doc without such a line is all description. Every
// top-level key of the YAML block must carry the marker.
func Parse(doc string, marker byte) (string, Entries, error) {
	re := reDirective
	if marker == SharedMarker {
		re = reShared
	}

	lines := strings.Split(doc, "\n")
	start := -1
	for i, line := range lines {
		if re.MatchString(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return strings.TrimSpace(Dedent(doc)), nil, nil
	}

	desc := strings.TrimSpace(Dedent(strings.Join(lines[:start], "\n")))
	block := Dedent(strings.Join(lines[start:], "\n"))

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(quoteRefs(block)), &root); err != nil {
		return "", nil, &schema.SchemaError{Message: err.Error()}
	}
	if len(root.Content) == 0 {
		return desc, nil, nil
	}
	m := root.Content[0]
	if m.Kind != yaml.MappingNode {
		return "", nil, &schema.SchemaError{Message: "documentation block must be a mapping"}
	}

	entries := make(Entries, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		k := m.Content[i]
		name, ok := strings.CutPrefix(k.Value, string(marker))
		if k.Kind != yaml.ScalarNode || !ok || !reName.MatchString(name) {
			return "", nil, &schema.SchemaError{
				Message: "invalid " + kindOf(marker) + " " + k.Value,
			}
		}
		entries = append(entries, Entry{Key: name, Node: m.Content[i+1]})
	}
	return desc, entries, nil
}

func kindOf(marker byte) string {
	if marker == SharedMarker {
		return "shared"
	}
	return "directive"
}

// Title returns the first line of doc, cut to 20 characters.
func Title(doc string) string {
	doc = strings.Trim(doc, "\n")
	first, _, _ := strings.Cut(doc, "\n")
	first = strings.TrimSpace(first)
	if utf8.RuneCountInString(first) > titleLen {
		runes := []rune(first)
		first = string(runes[:titleLen]) + "..."
	}
	return first
}

// Dedent removes the whitespace prefix shared by every non-blank line.
// Blank lines are emptied.
func Dedent(s string) string {
	lines := strings.Split(s, "\n")
	prefix := ""
	first := true
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		switch {
		case first:
			prefix, first = indent, false
		case strings.HasPrefix(indent, prefix):
		case strings.HasPrefix(prefix, indent):
			prefix = indent
		default:
			prefix = commonPrefix(prefix, indent)
		}
	}
	if prefix == "" {
		return strings.Join(lines, "\n")
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n]
}
