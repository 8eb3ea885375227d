// Package jsonvalue parses JSON documents into plain Go values.
package jsonvalue

import (
	"github.com/valyala/fastjson"
)

var parsers fastjson.ParserPool

// Parse decodes b into map[string]any, []any, string, int, float64, bool
// or nil. Numbers that fit in an int64 become int.
func Parse(b []byte) (any, error) {
	p := parsers.Get()
	defer parsers.Put(p)
	v, err := p.ParseBytes(b)
	if err != nil {
		return nil, err
	}
	// the result must not reference p after it returns to the pool
	return convert(v), nil
}

func convert(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeObject:
		o, _ := v.Object()
		m := make(map[string]any, o.Len())
		o.Visit(func(key []byte, val *fastjson.Value) {
			m[string(key)] = convert(val)
		})
		return m
	case fastjson.TypeArray:
		vs, _ := v.Array()
		items := make([]any, len(vs))
		for i, val := range vs {
			items[i] = convert(val)
		}
		return items
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		f, _ := v.Float64()
		return f
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	}
	return nil
}
