package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mohae/deepcopy"
	"gopkg.in/yaml.v3"
)

// Schema type identifiers produced by inference and understood by the
// projection helpers.
const (
	TypeNull    = "null"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeString  = "string"
	TypeArray   = "array"
	TypeObject  = "object"
)

// FormatText is the format slave projection forces onto non-variant leaves.
const FormatText = "text"

// Attribute keys used on the wire. Anything else is carried in Extra.
const (
	keyType       = "type"
	keyFormat     = "format"
	keyPattern    = "pattern"
	keyReadOnly   = "readonly"
	keyIsVariant  = "isVariant"
	keyProperties = "properties"
	keyItems      = "items"
)

// Schema is the recursive shape description attached to a command node. The
// attributes the fields package reasons about are typed; every other
// attribute found in a decoded document is preserved in Extra so it survives
// projection and re-encoding untouched.
type Schema struct {
	Type     string
	Format   string
	Pattern  string
	ReadOnly bool
	// IsVariant marks a leaf whose displayed value may legitimately diverge
	// from the master and is reconciled from prior data on assignment.
	IsVariant bool
	// Properties is only meaningful for object schemas. A non-nil empty map
	// encodes as "properties": {}.
	Properties map[string]*Schema
	Items      *Schema
	Extra      map[string]any
}

// IsObject reports whether the schema describes an object.
func (s *Schema) IsObject() bool {
	return s != nil && s.Type == TypeObject
}

// Property returns the child schema for key, or nil.
func (s *Schema) Property(key string) *Schema {
	if s == nil || s.Properties == nil {
		return nil
	}
	return s.Properties[key]
}

// Clone returns a deep copy. Mutating the copy never affects the receiver.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := &Schema{
		Type:      s.Type,
		Format:    s.Format,
		Pattern:   s.Pattern,
		ReadOnly:  s.ReadOnly,
		IsVariant: s.IsVariant,
		Items:     s.Items.Clone(),
		Extra:     cloneExtra(s.Extra),
	}
	if s.Properties != nil {
		out.Properties = make(map[string]*Schema, len(s.Properties))
		for key, child := range s.Properties {
			out.Properties[key] = child.Clone()
		}
	}
	return out
}

// Map converts the schema into its generic JSON-like representation.
func (s *Schema) Map() map[string]any {
	if s == nil {
		return nil
	}
	out := make(map[string]any, len(s.Extra)+6)
	for key, value := range s.Extra {
		out[key] = deepcopy.Copy(value)
	}
	if s.Type != "" {
		out[keyType] = s.Type
	}
	if s.Format != "" {
		out[keyFormat] = s.Format
	}
	if s.Pattern != "" {
		out[keyPattern] = s.Pattern
	}
	if s.ReadOnly {
		out[keyReadOnly] = true
	}
	if s.IsVariant {
		out[keyIsVariant] = true
	}
	if s.Properties != nil {
		props := make(map[string]any, len(s.Properties))
		for key, child := range s.Properties {
			props[key] = child.Map()
		}
		out[keyProperties] = props
	}
	if s.Items != nil {
		out[keyItems] = s.Items.Map()
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (s *Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal(s.Map())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("schema: decode schema: %w", err)
	}

	out := Schema{}
	for key, value := range raw {
		var err error
		switch key {
		case keyType:
			err = json.Unmarshal(value, &out.Type)
		case keyFormat:
			err = json.Unmarshal(value, &out.Format)
		case keyPattern:
			err = json.Unmarshal(value, &out.Pattern)
		case keyReadOnly:
			err = json.Unmarshal(value, &out.ReadOnly)
		case keyIsVariant:
			err = json.Unmarshal(value, &out.IsVariant)
		case keyProperties:
			err = json.Unmarshal(value, &out.Properties)
		case keyItems:
			if !isJSONNull(value) {
				out.Items = &Schema{}
				err = json.Unmarshal(value, out.Items)
			}
		default:
			var extra any
			err = json.Unmarshal(value, &extra)
			if err == nil {
				if out.Extra == nil {
					out.Extra = make(map[string]any)
				}
				out.Extra[key] = extra
			}
		}
		if err != nil {
			return fmt.Errorf("schema: attribute %q: %w", key, err)
		}
	}

	*s = out
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s *Schema) MarshalYAML() (any, error) {
	return s.Map(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler by routing through the JSON
// decoder so both encodings share one attribute mapping.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	data, err := yamlNodeToJSON(node)
	if err != nil {
		return fmt.Errorf("schema: decode yaml schema: %w", err)
	}
	return s.UnmarshalJSON(data)
}

// ParseSchema decodes a JSON (or YAML) schema document.
func ParseSchema(data []byte) (*Schema, error) {
	out := &Schema{}
	if err := decodeDocument(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeDocument(data []byte, target any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("schema: empty document")
	}
	if trimmed[0] == '{' {
		return json.Unmarshal(trimmed, target)
	}
	return yaml.Unmarshal(trimmed, target)
}

func yamlNodeToJSON(node *yaml.Node) ([]byte, error) {
	var generic any
	if err := node.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func cloneExtra(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	copied, ok := deepcopy.Copy(src).(map[string]any)
	if !ok {
		return nil
	}
	return copied
}
