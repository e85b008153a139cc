package infer

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-formfields/pkg/schema"
)

// ErrTypeMismatch is matched by every TypeMismatchError.
var ErrTypeMismatch = errors.New("infer: no rule matches example")

// TypeMismatchError reports an example shape the rule table does not know.
// It signals a missing rule, so callers should surface it rather than
// swallow it.
type TypeMismatchError struct {
	Example any
	Key     string
}

func (e *TypeMismatchError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("infer: no rule matches example %#v at key %q", e.Example, e.Key)
	}
	return fmt.Sprintf("infer: no rule matches example %#v", e.Example)
}

// Is lets errors.Is match ErrTypeMismatch.
func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// Engine evaluates an ordered rule table, first match wins. Rules can only
// be appended so existing priorities never shift.
type Engine struct {
	mu    sync.RWMutex
	rules []Rule
}

// New constructs an engine over the supplied rules, in order. Rules missing
// a matcher or builder are skipped.
func New(rules ...Rule) *Engine {
	engine := &Engine{}
	for _, rule := range rules {
		engine.Append(rule)
	}
	return engine
}

// Default constructs an engine with DefaultRules.
func Default() *Engine {
	return New(DefaultRules()...)
}

// Append adds a rule with the lowest priority.
func (e *Engine) Append(rule Rule) {
	if e == nil || rule.Match == nil || rule.Build == nil {
		return
	}
	rule.Name = strings.TrimSpace(rule.Name)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, rule)
}

// Rules returns the rule names in evaluation order.
func (e *Engine) Rules() []string {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, len(e.rules))
	for idx, rule := range e.rules {
		names[idx] = rule.Name
	}
	return names
}

// Match returns the name of the first rule matching example.
func (e *Engine) Match(example any) (string, bool) {
	rule, ok := e.match(example)
	if !ok {
		return "", false
	}
	return rule.Name, true
}

// SchemaByExample infers a schema from a single representative value. key
// is the property name the example sits under, empty at the root and for
// array items.
func (e *Engine) SchemaByExample(example any, key string) (*schema.Schema, error) {
	rule, ok := e.match(example)
	if !ok {
		return nil, &TypeMismatchError{Example: example, Key: key}
	}
	return rule.Build(example, key, e.SchemaByExample)
}

func (e *Engine) match(example any) (Rule, bool) {
	if e == nil {
		return Rule{}, false
	}
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()
	for _, rule := range rules {
		if rule.Match(example) {
			return rule, true
		}
	}
	return Rule{}, false
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// SchemaByExample runs the default rule table.
func SchemaByExample(example any) (*schema.Schema, error) {
	defaultOnce.Do(func() {
		defaultEngine = Default()
	})
	return defaultEngine.SchemaByExample(example, "")
}
