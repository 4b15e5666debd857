package spec

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DecodeYAML parses a YAML document into a spec tree. yaml.Node keeps
// mapping keys in document order, so the tree has the same ordering
// guarantees as DecodeJSON.
func DecodeYAML(data []byte) (*Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 {
		return nil, fmt.Errorf("expected a single YAML document")
	}
	return fromYAMLNode(root.Content[0])
}

func fromYAMLNode(n *yaml.Node) (*Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return fromYAMLScalar(n)
	case yaml.SequenceNode:
		v := &Value{Kind: Array}
		for _, elem := range n.Content {
			ev, err := fromYAMLNode(elem)
			if err != nil {
				return nil, err
			}
			v.Elems = append(v.Elems, ev)
		}
		return v, nil
	case yaml.MappingNode:
		v := &Value{Kind: Object}
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key is not a scalar", keyNode.Line)
			}
			mv, err := fromYAMLNode(valNode)
			if err != nil {
				return nil, err
			}
			v.Members = append(v.Members, Member{Key: keyNode.Value, Value: mv})
		}
		return v, nil
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}

func fromYAMLScalar(n *yaml.Node) (*Value, error) {
	switch n.Tag {
	case "!!null":
		return &Value{Kind: Null}, nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid bool %q", n.Line, n.Value)
		}
		return &Value{Kind: Bool, BoolVal: b}, nil
	case "!!int", "!!float":
		return &Value{Kind: Number, NumVal: json.Number(n.Value)}, nil
	default:
		return &Value{Kind: String, StrVal: n.Value}, nil
	}
}
