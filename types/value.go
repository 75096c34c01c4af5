package types

import (
	"reflect"
	"strconv"
	"strings"
)

// Number converts a value of any Go integer or float kind to float64.
// Numbers compare by value regardless of their Go type, so 1 and 1.0 are
// the same parameter value.
func Number(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// NumberSeq converts a slice or array whose elements are numbers to a
// []float64.
func NumberSeq(v any) ([]float64, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]float64, rv.Len())
	for i := range rv.Len() {
		n, ok := Number(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

// FormatValue renders an allowed parameter value in the canonical query form.
func FormatValue(v any) string {
	if v == nil {
		return "undefined"
	}
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	}
	if n, ok := Number(v); ok {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	if seq, ok := NumberSeq(v); ok {
		parts := make([]string, len(seq))
		for i, n := range seq {
			parts[i] = strconv.FormatFloat(n, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return "<invalid>"
}

// CaseID identifies one case of a test: the test name plus the public
// projection of its parameters, or nil for an unparameterized test.
type CaseID struct {
	Test   string
	Params Params
}

// String renders the id as "test" or "test:a=1;b=\"x\"" with keys sorted.
// Keys with undefined values are omitted.
func (id CaseID) String() string {
	if id.Params == nil {
		return id.Test
	}
	parts := make([]string, 0, len(id.Params))
	for _, k := range id.Params.Keys() {
		v := id.Params[k]
		if v == nil {
			continue
		}
		parts = append(parts, k+"="+FormatValue(v))
	}
	return id.Test + ":" + strings.Join(parts, ";")
}
