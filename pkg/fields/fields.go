// Package fields implements the custom form field types: a rich-text editor
// binding and a command field whose schema and options come from a remote
// node's attachments.
//
// Fields do not own their lifecycle. The hosting form calls SetupField,
// SetValue and Render; fields call back into the host through Host.
package fields

import (
	"context"

	"github.com/goliatone/go-formfields/internal/logging"
	"github.com/goliatone/go-formfields/pkg/render"
	"github.com/goliatone/go-formfields/pkg/resolver"
)

// Control is another field on the same form.
type Control interface {
	Path() string
	Value() any
}

// Host is the form a field is mounted in.
type Host interface {
	// ControlByPath finds a sibling control, e.g. a command's master field.
	ControlByPath(path string) (Control, bool)
	// Subscribe calls fn with the new value every time source changes.
	Subscribe(source Control, fn func(value any))
	// OnReady runs fn once the whole form has been built.
	OnReady(fn func())
	// Initializing reports whether the form is still being built.
	Initializing() bool
	// Refresh re-renders field.
	Refresh(field Field)
}

// Field is the surface the host drives.
type Field interface {
	Name() string
	Type() string
	SetupField(ctx context.Context, done func(error))
	SetValue(value any) error
	Value() any
	Validate(ctx context.Context) error
	Render(r render.Renderer) (string, error)
}

// NodeResolver resolves a node into schema and options. *resolver.Resolver
// satisfies it.
type NodeResolver interface {
	Resolve(ctx context.Context, nodeID string, mode resolver.Mode, done func(resolver.Result, error))
}

// Option keys read from Config.Options.
const (
	OptionDependentField = "dependentField"
	OptionIsSlave        = "isSlave"
	OptionSummernote     = "summernote"
)

// Config carries what a factory needs to build a field.
type Config struct {
	Name     string
	Label    string
	Host     Host
	Resolver NodeResolver
	Logger   logging.Logger
	// Options holds the host's field options (dependentField, isSlave, ...).
	Options map[string]any
	// GateKey, when set, limits variant reconciliation to values that carry
	// this key on both sides.
	GateKey string
}

func (c Config) logger() logging.Logger {
	if c.Logger == nil {
		return logging.NewNop()
	}
	return c.Logger
}

func (c Config) stringOption(key string) string {
	value, _ := c.Options[key].(string)
	return value
}

func (c Config) boolOption(key string) bool {
	value, _ := c.Options[key].(bool)
	return value
}
