package desc

import (
	"fmt"
	"slices"
	"unicode/utf16"
)

// Object is a descriptor mapping.
type Object map[string]any

// SortedKeys returns keys in canonical order (UTF-16 code units, as in
// RFC 8785). Go's byte-wise string order differs for astral characters.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

func compareKeys(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// Clone returns a shallow copy.
func (o Object) Clone() Object {
	if o == nil {
		return nil
	}
	out := make(Object, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Without returns a shallow copy without the given keys.
func (o Object) Without(keys ...string) Object {
	out := o.Clone()
	if out == nil {
		out = Object{}
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// String returns the string at key.
func (o Object) String(key string) (string, bool) {
	s, ok := o[key].(string)
	return s, ok
}

// StringOr returns the string at key or def.
func (o Object) StringOr(key, def string) string {
	if s, ok := o.String(key); ok {
		return s
	}
	return def
}

// Float returns the number at key.
func (o Object) Float(key string) (float64, bool) {
	v, ok := o[key]
	if !ok {
		return 0, false
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Bool returns the boolean at key.
func (o Object) Bool(key string) (bool, bool) {
	b, ok := o[key].(bool)
	return b, ok
}

// Object returns the nested object at key.
func (o Object) Object(key string) (Object, bool) {
	switch v := o[key].(type) {
	case Object:
		return v, true
	case map[string]any:
		return Object(v), true
	}
	return nil, false
}

// Normalize converts decoded document values into descriptor form:
// mappings become Object, integers become float64, slices are normalized
// element-wise. Values of other types (listeners, pixel buffers) pass
// through unchanged.
func Normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, float64:
		return val, nil
	case int:
		return float64(val), nil
	case int8:
		return float64(val), nil
	case int16:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint:
		return float64(val), nil
	case uint8:
		return float64(val), nil
	case uint16:
		return float64(val), nil
	case uint32:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case float32:
		return float64(val), nil
	case Object:
		return normalizeMap(val)
	case map[string]any:
		return normalizeMap(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, elem := range val {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v (%T)", k, k)
			}
			m[ks] = elem
		}
		return normalizeMap(m)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := Normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case []float64:
		out := make([]any, len(val))
		for i, f := range val {
			out[i] = f
		}
		return out, nil
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, nil
	default:
		return val, nil
	}
}

func normalizeMap(m map[string]any) (Object, error) {
	out := make(Object, len(m))
	for k, elem := range m {
		n, err := Normalize(elem)
		if err != nil {
			return nil, fmt.Errorf("[%q]: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

// NormalizeObject is Normalize for mappings.
func NormalizeObject(m map[string]any) (Object, error) {
	if m == nil {
		return Object{}, nil
	}
	return normalizeMap(m)
}

func toFloat(v any) (float64, error) {
	n, err := Normalize(v)
	if err != nil {
		return 0, err
	}
	f, ok := n.(float64)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", v)
	}
	return f, nil
}
