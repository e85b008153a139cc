package fields

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formfields/pkg/render"
	"github.com/goliatone/go-formfields/pkg/schema"
)

// SummernoteConfig is the editor configuration installed by Setup.
func SummernoteConfig() map[string]any {
	return map[string]any{
		"toolbar": []any{
			[]any{"style", []any{"bold", "italic", "underline", "clear"}},
			[]any{"font", []any{"strikethrough", "superscript", "subscript"}},
			[]any{"fontsize", []any{"fontsize"}},
			[]any{"color", []any{"color"}},
			[]any{"para", []any{"ul", "ol", "paragraph"}},
			[]any{"height", []any{"height"}},
		},
		"height":    nil,
		"minHeight": nil,
		"maxHeight": nil,
		"focus":     true,
	}
}

// RichTextField binds a summernote editor. Stored values are sanitised down
// to the markup the toolbar can produce.
type RichTextField struct {
	mu      sync.RWMutex
	name    string
	label   string
	options *schema.Options
	value   string
}

var _ Field = (*RichTextField)(nil)

// NewRichTextField builds the field; call Setup (or SetupField) before
// rendering.
func NewRichTextField(cfg Config) *RichTextField {
	opts := &schema.Options{}
	for key, value := range cfg.Options {
		opts.Set(key, value)
	}
	return &RichTextField{
		name:    cfg.Name,
		label:   cfg.Label,
		options: opts,
	}
}

func (f *RichTextField) Name() string { return f.name }

func (f *RichTextField) Type() string { return TypeRichText }

// Setup installs the toolbar configuration, replacing any caller value.
func (f *RichTextField) Setup() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.options.Set(OptionSummernote, SummernoteConfig())
}

// SetupField runs Setup and reports completion.
func (f *RichTextField) SetupField(_ context.Context, done func(error)) {
	f.Setup()
	if done != nil {
		done(nil)
	}
}

// Options returns a copy of the field options.
func (f *RichTextField) Options() *schema.Options {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.options.Clone()
}

// SetValue stores the sanitised markup. nil clears the value.
func (f *RichTextField) SetValue(value any) error {
	var raw string
	switch v := value.(type) {
	case nil:
	case string:
		raw = v
	default:
		return fmt.Errorf("fields: %s expects a string, got %T", TypeRichText, value)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = SanitizeRichText(raw)
	return nil
}

func (f *RichTextField) Value() any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value
}

// Validate always succeeds; SetValue already normalises input.
func (f *RichTextField) Validate(context.Context) error { return nil }

// Render emits the editor markup through the "richtext" template.
func (f *RichTextField) Render(r render.Renderer) (string, error) {
	if r == nil {
		return "", fmt.Errorf("fields: renderer is nil")
	}
	f.mu.RLock()
	config, _ := f.options.Get(OptionSummernote)
	data := map[string]any{
		"name":   f.name,
		"label":  f.label,
		"value":  f.value,
		"config": config,
	}
	f.mu.RUnlock()
	return r.RenderTemplate("richtext", data)
}

var (
	richTextPolicyOnce sync.Once
	richTextPolicy     *bluemonday.Policy
)

// SanitizeRichText strips everything the editor toolbar cannot produce.
func SanitizeRichText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(richTextSanitizer().Sanitize(trimmed))
}

func richTextSanitizer() *bluemonday.Policy {
	richTextPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements(
			"p", "br", "div", "span",
			"b", "strong", "i", "em", "u", "s", "strike",
			"sup", "sub", "ul", "ol", "li", "font",
		)
		policy.AllowAttrs("color", "size", "face").OnElements("font")
		policy.AllowStyles("color", "background-color", "font-size").OnElements("span", "font")
		policy.AllowStyles("text-align", "line-height", "margin-left").OnElements("p", "div", "li")
		richTextPolicy = policy
	})
	return richTextPolicy
}
