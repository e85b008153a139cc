package fields

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formfields/pkg/schema"
)

// ValidateValue checks value against s. Presentation attributes (format,
// isVariant) are ignored; type, pattern, enum and required are enforced.
func ValidateValue(s *schema.Schema, value any) error {
	return toOpenAPI(s).VisitJSON(value, openapi3.MultiErrors())
}

func toOpenAPI(s *schema.Schema) *openapi3.Schema {
	if s == nil {
		return openapi3.NewSchema()
	}
	out := openapi3.NewSchema()
	if s.Type != "" {
		out.Type = &openapi3.Types{s.Type}
	}
	out.Pattern = s.Pattern
	out.ReadOnly = s.ReadOnly
	if enum, ok := s.Extra["enum"].([]any); ok {
		out.Enum = enum
	}
	if required, ok := s.Extra["required"].([]any); ok {
		for _, item := range required {
			if name, ok := item.(string); ok {
				out.Required = append(out.Required, name)
			}
		}
	}
	if s.Items != nil {
		out.Items = openapi3.NewSchemaRef("", toOpenAPI(s.Items))
	}
	if s.Properties != nil {
		out.Properties = make(openapi3.Schemas, len(s.Properties))
		for key, child := range s.Properties {
			out.Properties[key] = openapi3.NewSchemaRef("", toOpenAPI(child))
		}
	}
	return out
}
