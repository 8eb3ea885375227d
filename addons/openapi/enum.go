package openapi

import (
	"fmt"
	"strings"
)

func enumValues(v any) []any {
	var out []any
	switch t := v.(type) {
	case string:
		for _, f := range strings.Fields(t) {
			out = append(out, f)
		}
	case []any:
		for _, e := range t {
			out = append(out, fmt.Sprint(e))
		}
	}
	return out
}
