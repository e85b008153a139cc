package infer

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// PatternTag marks a YAML scalar as a regular expression example, e.g.
//
//	serial: !pattern "^[A-Z]{2}[0-9]{6}$"
const PatternTag = "!pattern"

// DecodeExample decodes YAML or JSON example text into the Go values the
// rule table understands. Scalars tagged !pattern become *regexp.Regexp.
func DecodeExample(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("infer: example document is empty")
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("infer: decode example: %w", err)
	}
	return convertNode(&root)
}

func convertNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return convertNode(node.Content[0])
	case yaml.AliasNode:
		return convertNode(node.Alias)
	case yaml.MappingNode:
		out := make(map[string]any, len(node.Content)/2)
		for idx := 0; idx+1 < len(node.Content); idx += 2 {
			keyNode := node.Content[idx]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("infer: line %d: example keys must be scalars", keyNode.Line)
			}
			value, err := convertNode(node.Content[idx+1])
			if err != nil {
				return nil, err
			}
			out[keyNode.Value] = value
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			value, err := convertNode(child)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	case yaml.ScalarNode:
		if node.Tag == PatternTag {
			re, err := regexp.Compile(node.Value)
			if err != nil {
				return nil, fmt.Errorf("infer: line %d: invalid pattern: %w", node.Line, err)
			}
			return re, nil
		}
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, fmt.Errorf("infer: line %d: %w", node.Line, err)
		}
		return value, nil
	default:
		return nil, fmt.Errorf("infer: line %d: unsupported yaml node", node.Line)
	}
}
