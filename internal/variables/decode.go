package variables

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Error types for variable decoding
var (
	ErrInvalidVariables  = fmt.Errorf("invalid variables")
	ErrInvalidAssignment = fmt.Errorf("invalid variable assignment")
)

// Parse decodes a YAML or JSON document into a Map, keeping the document
// order of every mapping. Scalars keep their source text. A document whose
// root is not a mapping decodes to an empty Map.
func Parse(data []byte) (*Map, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVariables, err)
	}
	return FromNode(&doc), nil
}

// Load reads and parses the variables file at path
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read variables file: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// FromNode converts a YAML node into a Map. Non-mapping nodes yield an empty Map.
func FromNode(n *yaml.Node) *Map {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return NewMap()
	}
	return decodeMapping(n)
}

// UnmarshalYAML implements yaml.Unmarshaler
func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	*m = *FromNode(node)
	return nil
}

// MarshalYAML implements yaml.Marshaler, preserving key order.
func (m *Map) MarshalYAML() (interface{}, error) {
	return encodeNode(m), nil
}

// ParseAssignments builds a Map from `name=value` pairs, in order.
func ParseAssignments(pairs []string) (*Map, error) {
	m := NewMap()
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q (expected name=value)", ErrInvalidAssignment, pair)
		}
		m.Set(strings.TrimPrefix(name, "$"), Scalar(value))
	}
	return m, nil
}

// resolve unwraps document and alias nodes
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

func decodeMapping(n *yaml.Node) *Map {
	m := NewMap()
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if key.Tag == "!!merge" {
			mergeInto(m, val)
			continue
		}
		m.Set(key.Value, decodeValue(val))
	}
	return m
}

// mergeInto applies a `<<` merge key. Merged values never replace keys
// already in m; explicit keys set afterwards still win. In a sequence of
// sources the first one to define a key wins.
func mergeInto(m *Map, val *yaml.Node) {
	val = resolve(val)
	if val == nil {
		return
	}
	sources := []*yaml.Node{val}
	if val.Kind == yaml.SequenceNode {
		sources = val.Content
	}
	for _, src := range sources {
		src = resolve(src)
		if src == nil || src.Kind != yaml.MappingNode {
			continue
		}
		merged := decodeMapping(src)
		for _, k := range merged.Keys() {
			if _, ok := m.Get(k); ok {
				continue
			}
			v, _ := merged.Get(k)
			m.Set(k, v)
		}
	}
}

func decodeValue(n *yaml.Node) Value {
	n = resolve(n)
	if n == nil {
		return Scalar("")
	}
	switch n.Kind {
	case yaml.MappingNode:
		return decodeMapping(n)
	case yaml.SequenceNode:
		// sequences render like maps keyed by element index
		m := NewMap()
		for i, item := range n.Content {
			m.Set(strconv.Itoa(i), decodeValue(item))
		}
		return m
	default:
		return Scalar(n.Value)
	}
}

func encodeNode(v Value) *yaml.Node {
	switch val := v.(type) {
	case *Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range val.Keys() {
			child, _ := val.Get(k)
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				encodeNode(child),
			)
		}
		return n
	case Scalar:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: string(val)}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
