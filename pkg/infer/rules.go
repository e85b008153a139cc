package infer

import (
	"encoding/json"
	"errors"
	"reflect"
	"regexp"

	"github.com/goliatone/go-formfields/pkg/schema"
)

// FormatIndependentSlaveField is stamped on inferred number leaves.
const FormatIndependentSlaveField = "independent-slave-field"

// Matcher decides whether a rule handles the example.
type Matcher func(example any) bool

// Builder produces the schema for a matched example. infer recurses into
// child examples using the same engine.
type Builder func(example any, key string, infer InferFunc) (*schema.Schema, error)

// InferFunc is the recursive entry point handed to builders.
type InferFunc func(example any, key string) (*schema.Schema, error)

// Rule pairs a predicate with the schema builder used when it matches.
type Rule struct {
	Name  string
	Match Matcher
	Build Builder
}

// DefaultRules returns the built-in rule table in priority order. Narrow
// cases come before the broader predicates that would shadow them: the
// empty array rule must stay ahead of the non-empty one.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:  "null",
			Match: IsNull,
			Build: func(any, string, InferFunc) (*schema.Schema, error) {
				return &schema.Schema{Type: schema.TypeNull}, nil
			},
		},
		{
			Name:  "number",
			Match: IsNumber,
			Build: func(any, string, InferFunc) (*schema.Schema, error) {
				return &schema.Schema{Type: schema.TypeNumber, Format: FormatIndependentSlaveField}, nil
			},
		},
		{
			Name:  "boolean",
			Match: IsBoolean,
			Build: func(any, string, InferFunc) (*schema.Schema, error) {
				return &schema.Schema{Type: schema.TypeBoolean}, nil
			},
		},
		{
			Name:  "string",
			Match: IsString,
			Build: func(any, string, InferFunc) (*schema.Schema, error) {
				return &schema.Schema{Type: schema.TypeString, ReadOnly: true}, nil
			},
		},
		{
			Name:  "pattern",
			Match: IsPattern,
			Build: func(example any, _ string, _ InferFunc) (*schema.Schema, error) {
				return &schema.Schema{Type: schema.TypeString, Pattern: example.(*regexp.Regexp).String()}, nil
			},
		},
		{
			Name:  "empty-array",
			Match: IsEmptyArray,
			// No element to learn from: the item schema is left out on purpose.
			Build: func(any, string, InferFunc) (*schema.Schema, error) {
				return &schema.Schema{Type: schema.TypeArray}, nil
			},
		},
		{
			Name:  "array",
			Match: IsArray,
			Build: func(example any, _ string, infer InferFunc) (*schema.Schema, error) {
				value := reflect.ValueOf(example)
				if value.Len() == 0 {
					return nil, errors.New("infer: array rule needs a first element")
				}
				first := value.Index(0).Interface()
				items, err := infer(first, "")
				if err != nil {
					return nil, err
				}
				return &schema.Schema{Type: schema.TypeArray, Items: items}, nil
			},
		},
		{
			Name:  "object",
			Match: IsPlainObject,
			Build: func(example any, _ string, infer InferFunc) (*schema.Schema, error) {
				value := reflect.ValueOf(example)
				properties := make(map[string]*schema.Schema, value.Len())
				iter := value.MapRange()
				for iter.Next() {
					key := iter.Key().String()
					child, err := infer(iter.Value().Interface(), key)
					if err != nil {
						return nil, err
					}
					properties[key] = child
				}
				return &schema.Schema{Type: schema.TypeObject, Properties: properties}, nil
			},
		},
	}
}

// IsNull matches an untyped nil.
func IsNull(example any) bool {
	return example == nil
}

// IsNumber matches every Go numeric kind plus json.Number.
func IsNumber(example any) bool {
	if _, ok := example.(json.Number); ok {
		return true
	}
	if example == nil {
		return false
	}
	switch reflect.TypeOf(example).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// IsBoolean matches bool values.
func IsBoolean(example any) bool {
	return example != nil && reflect.TypeOf(example).Kind() == reflect.Bool
}

// IsString matches string values. json.Number is claimed by IsNumber first.
func IsString(example any) bool {
	return example != nil && reflect.TypeOf(example).Kind() == reflect.String
}

// IsPattern matches compiled regular expressions.
func IsPattern(example any) bool {
	re, ok := example.(*regexp.Regexp)
	return ok && re != nil
}

// IsArray matches slices and arrays, including typed nil slices.
func IsArray(example any) bool {
	if example == nil {
		return false
	}
	kind := reflect.TypeOf(example).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

// IsEmptyArray matches slices and arrays without elements.
func IsEmptyArray(example any) bool {
	return IsArray(example) && reflect.ValueOf(example).Len() == 0
}

// IsPlainObject matches maps keyed by strings.
func IsPlainObject(example any) bool {
	if example == nil {
		return false
	}
	typ := reflect.TypeOf(example)
	return typ.Kind() == reflect.Map && typ.Key().Kind() == reflect.String
}
