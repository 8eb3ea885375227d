package docstring

import "strings"

// quoteRefs single-quotes keys, values and sequence items that start with
// '@'. YAML reserves the character, so "$output: @message" would not parse.
func quoteRefs(block string) string {
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		lines[i] = quoteLine(line)
	}
	return strings.Join(lines, "\n")
}

func quoteLine(line string) string {
	body := strings.TrimLeft(line, " \t")
	prefix := line[:len(line)-len(body)]
	for body == "-" || strings.HasPrefix(body, "- ") {
		rest := strings.TrimLeft(body[1:], " ")
		prefix += body[:len(body)-len(rest)]
		body = rest
	}
	if body == "" || body[0] == '#' {
		return line
	}

	i := mappingColon(body)
	if i < 0 {
		return prefix + quoteValue(body)
	}
	key, rest := body[:i], body[i+1:]
	if key[0] == '@' {
		key = quote(key)
	}
	if value := strings.TrimSpace(rest); value != "" {
		rest = " " + quoteValue(value)
	}
	return prefix + key + ":" + rest
}

// quoteValue quotes a plain "@ref" value or the refs inside a flow
// collection, keeping a trailing comment.
func quoteValue(value string) string {
	value, comment := splitComment(value)
	switch {
	case value == "":
	case value[0] == '@':
		value = quote(value)
	case value[0] == '[' || value[0] == '{':
		value = quoteFlow(value)
	}
	return value + comment
}

// splitComment cuts a " #" comment outside double quotes off s.
func splitComment(s string) (string, string) {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case '#':
			if !inQuote && i > 0 && (s[i-1] == ' ' || s[i-1] == '\t') {
				value := strings.TrimRight(s[:i], " \t")
				return value, s[len(value):]
			}
		}
	}
	return strings.TrimRight(s, " \t"), ""
}

// quoteFlow quotes the "@ref" items and values of a flow sequence or
// mapping such as "[@tag, @label]".
func quoteFlow(s string) string {
	var b strings.Builder
	inQuote, start := false, true
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case inQuote:
			if ch == '\\' && i+1 < len(s) {
				b.WriteByte(ch)
				i++
				ch = s[i]
			} else if ch == '"' {
				inQuote = false
			}
		case ch == '"':
			inQuote, start = true, false
		case ch == '[' || ch == '{' || ch == ',':
			start = true
		case ch == ':' && i+1 < len(s) && s[i+1] == ' ':
			start = true
		case ch == ' ' || ch == '\t':
		case ch == '@' && start:
			end := i
			for end < len(s) && !strings.ContainsRune(",]}", rune(s[end])) {
				end++
			}
			ref := strings.TrimRight(s[i:end], " \t")
			b.WriteString(quote(ref))
			i += len(ref) - 1
			start = false
			continue
		default:
			start = false
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// mappingColon finds the colon ending a plain mapping key, skipping double
// quoted parts of schema expressions. It returns -1 when body is not a
// "key: value" or "key:" line.
func mappingColon(body string) int {
	if body[0] == '\'' || body[0] == '"' || body[0] == '{' || body[0] == '[' {
		return -1
	}
	inQuote := false
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case ':':
			if !inQuote && (i+1 == len(body) || body[i+1] == ' ' || body[i+1] == '\t') {
				return i
			}
		}
	}
	return -1
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
