// Package reconcile keeps variant-marked leaves sticky when a new value is
// pushed into a command field. A variant leaf that already holds a value is
// never overwritten by an external update; every other leaf takes the
// incoming value.
package reconcile

import (
	"math"
	"reflect"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formfields/pkg/schema"
)

// Variants returns incoming with every variant leaf reverted to its
// previous value where both sides carry the key and the values differ.
// Recursion follows object properties; arrays are compared as whole values.
// incoming is never mutated: changed levels are copied.
func Variants(incoming, previous any, s *schema.Schema) any {
	src, ok := incoming.(map[string]any)
	if !ok {
		return incoming
	}
	data, ok := previous.(map[string]any)
	if !ok || s == nil || s.Properties == nil {
		return incoming
	}

	var out map[string]any
	set := func(key string, value any) {
		if out == nil {
			out = make(map[string]any, len(src))
			for k, v := range src {
				out[k] = v
			}
		}
		out[key] = value
	}

	for key, next := range src {
		prev, exists := data[key]
		if !exists {
			continue
		}
		child := s.Properties[key]
		if child == nil {
			continue
		}
		if _, nested := next.(map[string]any); nested {
			reconciled := Variants(next, prev, child)
			if !sameMap(reconciled, next) {
				set(key, reconciled)
			}
			continue
		}
		if child.IsVariant && truthy(prev) && !cmp.Equal(next, prev) {
			set(key, prev)
		}
	}

	if out == nil {
		return incoming
	}
	return out
}

// Changed lists the dotted paths Variants would revert. It is used for
// logging and for prompting users about kept values.
func Changed(incoming, previous any, s *schema.Schema) []string {
	var paths []string
	collectChanged(incoming, previous, s, "", &paths)
	return paths
}

func collectChanged(incoming, previous any, s *schema.Schema, prefix string, paths *[]string) {
	src, ok := incoming.(map[string]any)
	if !ok {
		return
	}
	data, ok := previous.(map[string]any)
	if !ok || s == nil || s.Properties == nil {
		return
	}
	for key, next := range src {
		prev, exists := data[key]
		child := s.Properties[key]
		if !exists || child == nil {
			continue
		}
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if _, nested := next.(map[string]any); nested {
			collectChanged(next, prev, child, path, paths)
			continue
		}
		if child.IsVariant && truthy(prev) && !cmp.Equal(next, prev) {
			*paths = append(*paths, path)
		}
	}
}

// truthy mirrors the "has a value" check applied to previous leaves: nil,
// false, zero numbers and empty strings never stick.
func truthy(value any) bool {
	if value == nil {
		return false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

func sameMap(a, b any) bool {
	am, aok := a.(map[string]any)
	bm, bok := b.(map[string]any)
	if !aok || !bok {
		return false
	}
	return reflect.ValueOf(am).UnsafePointer() == reflect.ValueOf(bm).UnsafePointer()
}
