package fields

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"github.com/goliatone/go-formfields/internal/logging"
	"github.com/goliatone/go-formfields/pkg/reconcile"
	"github.com/goliatone/go-formfields/pkg/render"
	"github.com/goliatone/go-formfields/pkg/resolver"
	"github.com/goliatone/go-formfields/pkg/schema"
)

// ErrNoResolver is returned when a command field must load a node but was
// built without a resolver.
var ErrNoResolver = errors.New("fields: command field has no resolver")

// CommandField is an object field whose schema and options are taken from
// the node selected in a master field. A slave field shows the read-only
// projection of that node.
type CommandField struct {
	name           string
	label          string
	host           Host
	resolver       NodeResolver
	logger         logging.Logger
	dependentField string
	slave          bool
	gateKey        string

	mu           sync.RWMutex
	schema       *schema.Schema
	options      *schema.Options
	value        any
	nodeID       string
	requested    string
	subscribed   bool
	initializing bool
}

var _ Field = (*CommandField)(nil)

// NewCommandField builds a command field. A dependentField option requires
// both a host and a resolver.
func NewCommandField(cfg Config) (*CommandField, error) {
	f := &CommandField{
		name:           cfg.Name,
		label:          cfg.Label,
		host:           cfg.Host,
		resolver:       cfg.Resolver,
		dependentField: cfg.stringOption(OptionDependentField),
		slave:          cfg.boolOption(OptionIsSlave),
		gateKey:        cfg.GateKey,
		initializing:   true,
	}
	if f.dependentField != "" {
		if f.host == nil {
			return nil, fmt.Errorf("fields: %s depends on %q but has no host", f.name, f.dependentField)
		}
		if f.resolver == nil {
			return nil, ErrNoResolver
		}
	}
	f.logger = cfg.logger().With(map[string]any{"field": f.name})
	return f, nil
}

func (f *CommandField) Name() string { return f.name }

func (f *CommandField) Type() string { return TypeCommand }

// IsSlave reports whether the field shows the read-only projection.
func (f *CommandField) IsSlave() bool { return f.slave }

// Mode is the resolver mode matching IsSlave.
func (f *CommandField) Mode() resolver.Mode {
	if f.slave {
		return resolver.Slave
	}
	return resolver.Master
}

// SetupField wires the field to its master control. When the master already
// holds a value the node is loaded before done runs; later changes of the
// master reload the node and refresh the field.
func (f *CommandField) SetupField(ctx context.Context, done func(error)) {
	finish := func(err error) {
		f.setInitializing(false)
		if done != nil {
			done(err)
		}
	}
	if f.dependentField == "" {
		finish(nil)
		return
	}

	f.host.OnReady(func() {
		dep, ok := f.host.ControlByPath(f.dependentField)
		if !ok {
			f.logger.Warn("dependent field not found", map[string]any{"dependentField": f.dependentField})
			return
		}
		f.subscribe(ctx, dep)
		if id := NodeIDFromValue(dep.Value()); id != "" {
			f.UpdateSchemaOptions(ctx, id, f.refreshAfterUpdate)
		}
	})

	dep, ok := f.host.ControlByPath(f.dependentField)
	if !ok || isEmpty(dep.Value()) {
		finish(nil)
		return
	}
	f.subscribe(ctx, dep)
	id := NodeIDFromValue(dep.Value())
	if id == "" {
		finish(nil)
		return
	}
	f.UpdateSchemaOptions(ctx, id, finish)
}

func (f *CommandField) subscribe(ctx context.Context, dep Control) {
	f.mu.Lock()
	if f.subscribed {
		f.mu.Unlock()
		return
	}
	f.subscribed = true
	f.mu.Unlock()

	f.host.Subscribe(dep, func(value any) {
		if id := NodeIDFromValue(value); id != "" {
			f.UpdateSchemaOptions(ctx, id, f.refreshAfterUpdate)
		}
	})
}

func (f *CommandField) refreshAfterUpdate(err error) {
	if err != nil {
		return
	}
	if f.Initializing() || f.host.Initializing() {
		return
	}
	f.host.Refresh(f)
}

// UpdateSchemaOptions loads nodeID in the field's mode and swaps in the
// derived schema and options in one step. done receives the load error, if
// any; the previous schema and options are kept on failure. A result for a
// node that is no longer the latest request is dropped.
func (f *CommandField) UpdateSchemaOptions(ctx context.Context, nodeID string, done func(error)) {
	if done == nil {
		done = func(error) {}
	}
	if f.resolver == nil {
		done(ErrNoResolver)
		return
	}
	f.mu.Lock()
	f.requested = nodeID
	f.mu.Unlock()

	f.resolver.Resolve(ctx, nodeID, f.Mode(), func(res resolver.Result, err error) {
		f.mu.Lock()
		if f.requested != nodeID {
			latest := f.requested
			f.mu.Unlock()
			f.logger.Debug("stale command node dropped", map[string]any{"node": nodeID, "latest": latest})
			done(nil)
			return
		}
		if err != nil {
			f.mu.Unlock()
			f.logger.WithError(err).Warn("command node load failed", map[string]any{"node": nodeID})
			done(err)
			return
		}
		f.schema = res.Schema
		f.options = res.Options
		f.nodeID = nodeID
		f.mu.Unlock()
		f.logger.Debug("command schema updated", map[string]any{"node": nodeID, "mode": res.Mode.String()})
		done(nil)
	})
}

// SetValue stores value. When both the new and the current value carry the
// gate key, variant leaves keep their current value.
func (f *CommandField) SetValue(value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !isEmpty(value) && f.schema != nil && f.gated(value, f.value) {
		value = reconcile.Variants(value, f.value, f.schema)
	}
	f.value = value
	return nil
}

// SetLocalValue stores a value entered on this field itself. Variant leaves
// are not reconciled: the entry is the newest local value.
func (f *CommandField) SetLocalValue(value any) {
	f.mu.Lock()
	f.value = value
	f.mu.Unlock()
}

func (f *CommandField) gated(incoming, previous any) bool {
	if f.gateKey == "" {
		return true
	}
	return hasKey(incoming, f.gateKey) && hasKey(previous, f.gateKey)
}

func (f *CommandField) Value() any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value
}

// Schema returns the current schema. Callers must not mutate it.
func (f *CommandField) Schema() *schema.Schema {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.schema
}

// Options returns the current options. Callers must not mutate them.
func (f *CommandField) Options() *schema.Options {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.options
}

// NodeID is the node the current schema was loaded from.
func (f *CommandField) NodeID() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.nodeID
}

// Initializing reports whether SetupField has not completed yet.
func (f *CommandField) Initializing() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.initializing
}

func (f *CommandField) setInitializing(v bool) {
	f.mu.Lock()
	f.initializing = v
	f.mu.Unlock()
}

// Validate checks the current value against the derived schema. A field
// without a schema accepts anything.
func (f *CommandField) Validate(_ context.Context) error {
	f.mu.RLock()
	s, value := f.schema, f.value
	f.mu.RUnlock()
	if s == nil {
		return nil
	}
	if err := ValidateValue(s, value); err != nil {
		return fmt.Errorf("fields: %s: %w", f.name, err)
	}
	return nil
}

// Render emits the field through the "command" template.
func (f *CommandField) Render(r render.Renderer) (string, error) {
	if r == nil {
		return "", fmt.Errorf("fields: renderer is nil")
	}
	f.mu.RLock()
	data := map[string]any{
		"name":  f.name,
		"label": f.label,
		"node":  f.nodeID,
		"slave": f.slave,
		"rows":  Rows(f.schema, f.options, f.value),
	}
	f.mu.RUnlock()
	return r.RenderTemplate("command", data)
}

// NodeIDFromValue extracts the node id from a master value: value.id, or
// value[0].id when the master holds a list.
func NodeIDFromValue(value any) string {
	if isEmpty(value) {
		return ""
	}
	if list, ok := value.([]any); ok {
		return NodeIDFromValue(list[0])
	}
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Slice {
		return NodeIDFromValue(rv.Index(0).Interface())
	}
	m, ok := value.(map[string]any)
	if !ok {
		return ""
	}
	switch id := m["id"].(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(id), 'f', -1, 32)
	default:
		return fmt.Sprint(id)
	}
}

func hasKey(value any, key string) bool {
	m, ok := value.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m[key]
	return ok
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
