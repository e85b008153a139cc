package fields

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registered field type names.
const (
	TypeRichText = "adb-summernote"
	TypeCommand  = "appliance-command"
)

// DefaultGateKey gates reconciliation for appliance commands.
const DefaultGateKey = "deviceCommandCode"

// Factory builds a field from its configuration.
type Factory func(cfg Config) (Field, error)

// Registry maps field type names to factories. Callers can register new
// types or override the defaults.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// NewRegistry returns a registry with the built-in field types.
func NewRegistry() *Registry {
	r := New()
	r.MustRegister(TypeRichText, func(cfg Config) (Field, error) {
		return NewRichTextField(cfg), nil
	})
	r.MustRegister(TypeCommand, func(cfg Config) (Field, error) {
		if cfg.GateKey == "" {
			cfg.GateKey = DefaultGateKey
		}
		return NewCommandField(cfg)
	})
	return r
}

// Clone returns an independent copy.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cloned := New()
	for name, factory := range r.factories {
		cloned.factories[name] = factory
	}
	return cloned
}

// Register associates factory with name, replacing any existing entry.
func (r *Registry) Register(name string, factory Factory) error {
	if name = normalize(name); name == "" {
		return fmt.Errorf("fields: field type name is required")
	}
	if factory == nil {
		return fmt.Errorf("fields: factory for %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	return nil
}

// MustRegister panics when Register fails.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[normalize(name)]
	return ok
}

// Create builds a field of the named type.
func (r *Registry) Create(name string, cfg Config) (Field, error) {
	r.mu.RLock()
	factory, ok := r.factories[normalize(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("fields: unknown field type %q", name)
	}
	return factory(cfg)
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
