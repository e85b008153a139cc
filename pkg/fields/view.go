package fields

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/goliatone/go-formfields/pkg/schema"
)

// Rows flattens a derived schema into one template row per leaf, in key
// order. Nested objects contribute their leaves under dotted paths.
func Rows(s *schema.Schema, opts *schema.Options, value any) []map[string]any {
	if s == nil {
		return nil
	}
	var rows []map[string]any
	appendRows(&rows, s, opts, value, "")
	return rows
}

func appendRows(rows *[]map[string]any, s *schema.Schema, opts *schema.Options, value any, path string) {
	if s.IsObject() {
		values, _ := value.(map[string]any)
		keys := make([]string, 0, len(s.Properties))
		for key := range s.Properties {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			child := s.Properties[key]
			if child == nil {
				continue
			}
			appendRows(rows, child, opts.Field(key), values[key], joinPath(path, key))
		}
		return
	}
	if path == "" {
		path = "value"
	}
	*rows = append(*rows, leafRow(s, opts, value, path))
}

func leafRow(s *schema.Schema, opts *schema.Options, value any, path string) map[string]any {
	row := map[string]any{
		"id":       strings.ReplaceAll(path, ".", "-"),
		"path":     path,
		"label":    leafLabel(s, opts, path),
		"input":    inputType(s),
		"readonly": s.ReadOnly,
		"variant":  s.IsVariant,
		"value":    displayValue(value),
	}
	if s.Pattern != "" {
		row["pattern"] = s.Pattern
	}
	if s.Type == schema.TypeBoolean {
		checked, _ := value.(bool)
		row["checked"] = checked
	}
	if choices := leafChoices(s, opts); len(choices) > 0 {
		row["choices"] = choices
	}
	return row
}

func leafLabel(s *schema.Schema, opts *schema.Options, path string) string {
	if label, ok := opts.Get("label"); ok {
		if text, ok := label.(string); ok && text != "" {
			return text
		}
	}
	if title, ok := s.Extra["title"].(string); ok && title != "" {
		return title
	}
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func inputType(s *schema.Schema) string {
	switch {
	case s.Type == schema.TypeBoolean:
		return "checkbox"
	case s.Type == schema.TypeNumber && s.Format != schema.FormatText:
		return "number"
	default:
		return "text"
	}
}

// leafChoices only applies to select presentations; the slave projection
// rewrites those to text so slaves never get a dropdown.
func leafChoices(s *schema.Schema, opts *schema.Options) []string {
	if opts == nil || opts.Type != schema.OptionTypeSelect {
		return nil
	}
	enum, _ := s.Extra["enum"].([]any)
	out := make([]string, 0, len(enum))
	for _, item := range enum {
		out = append(out, displayValue(item))
	}
	return out
}

func displayValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v)
	case json.Number:
		return v.String()
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(raw)
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
