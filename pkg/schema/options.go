package schema

import (
	"encoding/json"
	"fmt"

	"github.com/mohae/deepcopy"
	"gopkg.in/yaml.v3"
)

// Presentation types the projection rewrites.
const (
	OptionTypeSelect = "select"
	OptionTypeText   = "text"
)

const keyFields = "fields"

// Options is the presentation tree that runs parallel to a Schema. A node is
// a container exactly when Fields is non-nil; leaves carry a presentation
// Type. Remaining attributes (labels, helpers, data sources) live in Extra.
type Options struct {
	Type   string
	Fields map[string]*Options
	Extra  map[string]any
}

// IsContainer reports whether the node exposes child fields.
func (o *Options) IsContainer() bool {
	return o != nil && o.Fields != nil
}

// Field returns the child options for key, or nil.
func (o *Options) Field(key string) *Options {
	if o == nil || o.Fields == nil {
		return nil
	}
	return o.Fields[key]
}

// Clone returns a deep copy.
func (o *Options) Clone() *Options {
	if o == nil {
		return nil
	}
	out := &Options{
		Type:  o.Type,
		Extra: cloneExtra(o.Extra),
	}
	if o.Fields != nil {
		out.Fields = make(map[string]*Options, len(o.Fields))
		for key, child := range o.Fields {
			out.Fields[key] = child.Clone()
		}
	}
	return out
}

// Get returns an extra attribute.
func (o *Options) Get(key string) (any, bool) {
	if o == nil || o.Extra == nil {
		return nil, false
	}
	value, ok := o.Extra[key]
	return value, ok
}

// Set stores an extra attribute.
func (o *Options) Set(key string, value any) {
	if o.Extra == nil {
		o.Extra = make(map[string]any)
	}
	o.Extra[key] = value
}

// Map converts the options into their generic JSON-like representation.
func (o *Options) Map() map[string]any {
	if o == nil {
		return nil
	}
	out := make(map[string]any, len(o.Extra)+2)
	for key, value := range o.Extra {
		out[key] = deepcopy.Copy(value)
	}
	if o.Type != "" {
		out[keyType] = o.Type
	}
	if o.Fields != nil {
		fields := make(map[string]any, len(o.Fields))
		for key, child := range o.Fields {
			fields[key] = child.Map()
		}
		out[keyFields] = fields
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (o *Options) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Map())
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Options) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("schema: decode options: %w", err)
	}

	out := Options{}
	for key, value := range raw {
		var err error
		switch key {
		case keyType:
			err = json.Unmarshal(value, &out.Type)
		case keyFields:
			err = json.Unmarshal(value, &out.Fields)
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
			return fmt.Errorf("schema: options attribute %q: %w", key, err)
		}
	}

	*o = out
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (o *Options) MarshalYAML() (any, error) {
	return o.Map(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *Options) UnmarshalYAML(node *yaml.Node) error {
	data, err := yamlNodeToJSON(node)
	if err != nil {
		return fmt.Errorf("schema: decode yaml options: %w", err)
	}
	return o.UnmarshalJSON(data)
}

// ParseOptions decodes a JSON (or YAML) options document.
func ParseOptions(data []byte) (*Options, error) {
	out := &Options{}
	if err := decodeDocument(data, out); err != nil {
		return nil, err
	}
	return out, nil
}
