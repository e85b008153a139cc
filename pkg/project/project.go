// Package project derives the read-only "slave" variant of a master command
// schema and its presentation options. Both projections are pure: the input
// trees are never touched and a fresh tree is always returned.
package project

import "github.com/goliatone/go-formfields/pkg/schema"

// SlaveSchema recurses through object properties. An object without
// properties projects to one with an empty properties map. Every other node is a
// leaf: its attributes are copied and, unless the leaf is marked isVariant,
// it is forced to readonly with a plain text format. Variant leaves stay
// editable and keep their format so locally entered values can diverge from
// the master.
func SlaveSchema(master *schema.Schema) *schema.Schema {
	if master == nil {
		return nil
	}
	if master.Type == schema.TypeObject {
		stripped := *master
		stripped.Properties = nil
		out := stripped.Clone()
		out.Properties = make(map[string]*schema.Schema, len(master.Properties))
		for key, child := range master.Properties {
			out.Properties[key] = SlaveSchema(child)
		}
		return out
	}

	out := master.Clone()
	if !master.IsVariant {
		out.ReadOnly = true
		out.Format = schema.FormatText
	}
	return out
}

// SlaveOptions recurses through container nodes. Leaves are copied and
// select controls are downgraded to text: the choices were computed for the
// master's context and must not be offered on the slave.
func SlaveOptions(master *schema.Options) *schema.Options {
	if master == nil {
		return nil
	}
	if master.IsContainer() {
		stripped := *master
		stripped.Fields = nil
		out := stripped.Clone()
		out.Fields = make(map[string]*schema.Options, len(master.Fields))
		for key, child := range master.Fields {
			out.Fields[key] = SlaveOptions(child)
		}
		return out
	}

	out := master.Clone()
	if out.Type == schema.OptionTypeSelect {
		out.Type = schema.OptionTypeText
	}
	return out
}
