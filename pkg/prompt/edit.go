package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goliatone/go-formfields/pkg/schema"
)

// EditValue walks s and asks for every editable leaf. Read-only leaves are
// shown and kept. The result is a new value; value is not modified.
func EditValue(ctx context.Context, d Driver, s *schema.Schema, opts *schema.Options, value any) (any, error) {
	if d == nil {
		return nil, fmt.Errorf("prompt: driver is nil")
	}
	if s == nil {
		return value, nil
	}
	return edit(ctx, d, s, opts, value, "")
}

func edit(ctx context.Context, d Driver, s *schema.Schema, opts *schema.Options, value any, path string) (any, error) {
	if s.IsObject() {
		current, _ := value.(map[string]any)
		out := make(map[string]any, len(current)+len(s.Properties))
		for key, v := range current {
			out[key] = v
		}
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
			next, err := edit(ctx, d, child, opts.Field(key), current[key], joinPath(path, key))
			if err != nil {
				return nil, err
			}
			if next == nil {
				if _, had := current[key]; !had {
					continue
				}
			}
			out[key] = next
		}
		return out, nil
	}

	label := leafLabel(opts, path)
	if s.ReadOnly {
		if err := d.Info(ctx, fmt.Sprintf("%s: %s (read-only)", label, formatValue(value))); err != nil {
			return nil, err
		}
		return value, nil
	}

	switch s.Type {
	case schema.TypeNull:
		return nil, nil
	case schema.TypeBoolean:
		current, _ := value.(bool)
		return d.Confirm(ctx, ConfirmConfig{Message: label, Default: current})
	case schema.TypeNumber:
		answer, err := d.Input(ctx, InputConfig{
			Message:   label,
			Default:   formatValue(value),
			Validator: validateNumber,
		})
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(answer) == "" {
			return value, nil
		}
		return strconv.ParseFloat(strings.TrimSpace(answer), 64)
	case schema.TypeArray:
		answer, err := d.Input(ctx, InputConfig{
			Message:   label + " (JSON list)",
			Default:   formatValue(value),
			Validator: validateJSONList,
		})
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(answer) == "" {
			return value, nil
		}
		var out []any
		if err := json.Unmarshal([]byte(answer), &out); err != nil {
			return nil, fmt.Errorf("prompt: %s: %w", path, err)
		}
		return out, nil
	}

	if choices := enumChoices(s, opts); len(choices) > 0 {
		idx, err := d.Select(ctx, SelectConfig{
			Message:      label,
			Options:      choices,
			DefaultIndex: slices.Index(choices, formatValue(value)),
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(choices) {
			return nil, fmt.Errorf("prompt: %s: choice %d out of range", path, idx)
		}
		enum, _ := s.Extra["enum"].([]any)
		return enum[idx], nil
	}

	cfg := InputConfig{Message: label, Default: formatValue(value)}
	if s.Pattern != "" {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("prompt: %s: pattern: %w", path, err)
		}
		cfg.Validator = func(answer string) error {
			if !re.MatchString(answer) {
				return fmt.Errorf("must match %s", s.Pattern)
			}
			return nil
		}
		cfg.Help = "pattern " + s.Pattern
	}
	return d.Input(ctx, cfg)
}

func enumChoices(s *schema.Schema, opts *schema.Options) []string {
	if opts == nil || opts.Type != schema.OptionTypeSelect {
		return nil
	}
	enum, _ := s.Extra["enum"].([]any)
	out := make([]string, 0, len(enum))
	for _, item := range enum {
		out = append(out, formatValue(item))
	}
	return out
}

func leafLabel(opts *schema.Options, path string) string {
	if label, ok := opts.Get("label"); ok {
		if text, ok := label.(string); ok && text != "" {
			return text
		}
	}
	if path == "" {
		return "value"
	}
	return path
}

func validateNumber(answer string) error {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
		return fmt.Errorf("%q is not a number", answer)
	}
	return nil
}

func validateJSONList(answer string) error {
	if strings.TrimSpace(answer) == "" {
		return nil
	}
	var out []any
	if err := json.Unmarshal([]byte(answer), &out); err != nil {
		return fmt.Errorf("expected a JSON list: %w", err)
	}
	return nil
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
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
