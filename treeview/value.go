package treeview

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

// Classify maps a runtime value to its semantic type. It is total: every
// input classifies, nothing errors. Untyped nil is null; the decoded forms
// (Doc, Arr, string, json.Number, bool) and the generic forms produced by
// encoding/json (map[string]any, []any, float64) are matched directly;
// anything else is inspected reflectively, with unrecognized kinds falling
// back to object.
func Classify(v any) ValueType {
	if v == nil {
		return TypeNull
	}

	switch v.(type) {
	case Doc, map[string]any:
		return TypeObject
	case Arr, []any:
		return TypeArray
	case string:
		return TypeString
	case bool:
		return TypeBool
	case json.Number,
		float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return TypeNumber
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return TypeNull
		}
		return Classify(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		return TypeArray
	case reflect.String:
		return TypeString
	case reflect.Bool:
		return TypeBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return TypeNumber
	default:
		return TypeObject
	}
}

// DisplayValue renders a leaf value for display: strings quoted, numbers in
// their natural textual form, booleans as true/false, null as the literal
// null. Containers return the empty string.
func DisplayValue(v any) string {
	switch Classify(v) {
	case TypeString:
		return strconv.Quote(asString(v))
	case TypeNumber:
		return formatNumber(v)
	case TypeBool:
		return strconv.FormatBool(asBool(v))
	case TypeNull:
		return "null"
	default:
		return ""
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return reflect.ValueOf(v).String()
}

func asBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return reflect.ValueOf(v).Bool()
}

// formatNumber renders a numeric value the way the source document carried
// it where possible. json.Number passes its text through untouched; floats
// drop a zero fractional part so decoded integers do not grow a ".0".
func formatNumber(v any) string {
	switch n := v.(type) {
	case json.Number:
		return n.String()
	case float64:
		return formatFloat(n)
	case float32:
		return formatFloat(float64(n))
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatFloat(rv.Float())
	default:
		return "0"
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
