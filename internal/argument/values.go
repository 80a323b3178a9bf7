package argument

import (
	"fmt"
	"strconv"
)

// Values holds collected argument values in declaration order.
type Values struct {
	keys []string
	m    map[string]any
}

func newValues(n int) *Values {
	return &Values{keys: make([]string, 0, n), m: make(map[string]any, n)}
}

// NewValues builds Values from alternating key, value pairs.
func NewValues(pairs ...any) *Values {
	v := newValues(len(pairs) / 2)
	for i := 0; i+1 < len(pairs); i += 2 {
		v.set(fmt.Sprint(pairs[i]), pairs[i+1])
	}
	return v
}

func (v *Values) set(key string, value any) {
	if _, ok := v.m[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.m[key] = value
}

// Keys returns keys in declaration order.
func (v *Values) Keys() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.keys...)
}

func (v *Values) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

func (v *Values) Get(key string) (any, bool) {
	if v == nil {
		return nil, false
	}
	val, ok := v.m[key]
	return val, ok
}

// Map returns a copy of the values.
func (v *Values) Map() map[string]any {
	out := make(map[string]any, v.Len())
	if v == nil {
		return out
	}
	for k, val := range v.m {
		out[k] = val
	}
	return out
}

// String returns the value formatted as text, or "" when absent.
func (v *Values) String(key string) string {
	val, ok := v.Get(key)
	if !ok || val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return fmt.Sprint(val)
}

// Int returns an integer value, converting from strings and floats.
func (v *Values) Int(key string) int {
	val, _ := v.Get(key)
	switch n := val.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

func (v *Values) Float(key string) float64 {
	val, _ := v.Get(key)
	switch n := val.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}

func (v *Values) Bool(key string) bool {
	val, _ := v.Get(key)
	b, _ := val.(bool)
	return b
}

// List returns the values of an infinite argument.
func (v *Values) List(key string) []any {
	val, _ := v.Get(key)
	switch l := val.(type) {
	case []any:
		return l
	case nil:
		return nil
	}
	return []any{val}
}
