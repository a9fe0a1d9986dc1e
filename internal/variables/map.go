// Package variables models the ordered variable maps injected into SASS
// sources and serializes them into SASS variable declarations.
package variables

// Value is a variable value. It is either a Scalar or a nested *Map.
type Value interface {
	isValue()
}

// Scalar is a raw value emitted verbatim, without quoting or escaping.
// Callers are responsible for supplying valid SASS syntax.
type Scalar string

func (Scalar) isValue() {}

// Map is an insertion-ordered mapping from names to values.
// The zero value is an empty map ready to use.
type Map struct {
	keys   []string
	values map[string]Value
}

func (*Map) isValue() {}

// NewMap creates an empty Map
func NewMap() *Map {
	return &Map{}
}

// Set stores v under key. An existing key keeps its position.
func (m *Map) Set(key string, v Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value stored under key
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Len returns the number of keys. A nil map has length zero.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// IsEmpty reports whether m carries no variables at all
func IsEmpty(m *Map) bool {
	return m.Len() == 0
}

// Merge sets every top-level entry of src onto dst and returns dst.
// A nil dst is allocated.
func Merge(dst, src *Map) *Map {
	if dst == nil {
		dst = NewMap()
	}
	for _, k := range src.Keys() {
		v, _ := src.Get(k)
		dst.Set(k, v)
	}
	return dst
}
