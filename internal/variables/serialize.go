package variables

import "strings"

// Serialize renders m as SASS variable declarations, one `$name: value;`
// statement per top-level key joined by newlines. Nested maps render as SASS
// map literals. An empty or nil map yields the empty string.
func Serialize(m *Map) string {
	if IsEmpty(m) {
		return ""
	}

	lines := make([]string, 0, m.Len())
	for _, name := range m.keys {
		lines = append(lines, declaration(name, m.values[name]))
	}
	return strings.Join(lines, "\n")
}

func declaration(name string, v Value) string {
	return "$" + name + ": " + render(v) + ";"
}

func render(v Value) string {
	switch val := v.(type) {
	case Scalar:
		return string(val)
	case *Map:
		return renderMap(val)
	default:
		return ""
	}
}

// renderMap emits `(`, one `key: value,` line per entry and `)`.
// Nesting depth does not add indentation.
func renderMap(m *Map) string {
	parts := make([]string, 0, m.Len()+2)
	parts = append(parts, "(")
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		parts = append(parts, k+": "+render(v)+",")
	}
	parts = append(parts, ")")
	return strings.Join(parts, "\n")
}
