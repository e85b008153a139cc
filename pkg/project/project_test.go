package project

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formfields/internal/testsupport"
	"github.com/goliatone/go-formfields/pkg/schema"
)

func masterSchema() *schema.Schema {
	return &schema.Schema{
		Type:  "object",
		Extra: map[string]any{"title": "Command"},
		Properties: map[string]*schema.Schema{
			"deviceCommandCode": {Type: "string", Format: "uppercase", Extra: map[string]any{"enum": []any{"ON", "OFF"}}},
			"target":            {Type: "number", Format: "independent-slave-field"},
			"note":              {Type: "string", Format: "textarea", IsVariant: true},
			"params": {
				Type: "object",
				Properties: map[string]*schema.Schema{
					"level": {Type: "number"},
					"label": {Type: "string", IsVariant: true},
				},
			},
			"steps": {Type: "array", Items: &schema.Schema{Type: "string"}},
		},
	}
}

func TestSlaveSchema(t *testing.T) {
	master := masterSchema()
	got := SlaveSchema(master)

	want := &schema.Schema{
		Type:  "object",
		Extra: map[string]any{"title": "Command"},
		Properties: map[string]*schema.Schema{
			"deviceCommandCode": {Type: "string", Format: "text", ReadOnly: true, Extra: map[string]any{"enum": []any{"ON", "OFF"}}},
			"target":            {Type: "number", Format: "text", ReadOnly: true},
			"note":              {Type: "string", Format: "textarea", IsVariant: true},
			"params": {
				Type: "object",
				Properties: map[string]*schema.Schema{
					"level": {Type: "number", Format: "text", ReadOnly: true},
					"label": {Type: "string", IsVariant: true},
				},
			},
			"steps": {Type: "array", Format: "text", ReadOnly: true, Items: &schema.Schema{Type: "string"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("slave schema mismatch (-want +got):\n%s", diff)
	}
}

func TestSlaveSchema_DoesNotMutateMaster(t *testing.T) {
	master := masterSchema()
	before := master.Clone()

	slave := SlaveSchema(master)
	slave.Properties["note"].Format = "changed"
	slave.Properties["deviceCommandCode"].Extra["enum"] = []any{"X"}
	slave.Extra["title"] = "Other"

	if diff := cmp.Diff(before, master); diff != "" {
		t.Fatalf("master mutated (-before +after):\n%s", diff)
	}
}

func TestSlaveSchema_Idempotent(t *testing.T) {
	once := SlaveSchema(masterSchema())
	twice := SlaveSchema(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("re-projection changed schema (-once +twice):\n%s", diff)
	}
}

func TestSlaveSchema_VariantLeafUntouched(t *testing.T) {
	leaf := &schema.Schema{Type: "number", IsVariant: true}
	got := SlaveSchema(leaf)
	if got.ReadOnly || got.Format != "" {
		t.Fatalf("variant leaf must keep readonly/format unset, got %+v", got)
	}
	if got == leaf {
		t.Fatalf("expected a new schema instance")
	}
}

func TestSlaveSchema_Nil(t *testing.T) {
	if SlaveSchema(nil) != nil {
		t.Fatalf("expected nil projection for nil schema")
	}
	if SlaveOptions(nil) != nil {
		t.Fatalf("expected nil projection for nil options")
	}
}

func TestSlaveSchema_ObjectWithoutProperties(t *testing.T) {
	got := SlaveSchema(&schema.Schema{Type: "object", Extra: map[string]any{"title": "Bare"}})

	want := &schema.Schema{Type: "object", Extra: map[string]any{"title": "Bare"}, Properties: map[string]*schema.Schema{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("slave schema mismatch (-want +got):\n%s", diff)
	}
	raw, err := got.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"properties":{}`) {
		t.Fatalf("expected empty properties in %s", raw)
	}
}

func TestSlaveOptions(t *testing.T) {
	master := &schema.Options{
		Fields: map[string]*schema.Options{
			"deviceCommandCode": {Type: "select", Extra: map[string]any{"dataSource": "/codes"}},
			"note":              {Type: "textarea"},
			"params": {
				Type:  "object",
				Extra: map[string]any{"collapsible": true},
				Fields: map[string]*schema.Options{
					"mode": {Type: "select"},
					"deep": {Fields: map[string]*schema.Options{
						"choice": {Type: "select"},
						"flag":   {Type: "checkbox"},
					}},
				},
			},
			"empty": {Fields: map[string]*schema.Options{}},
		},
	}
	before := master.Clone()

	got := SlaveOptions(master)
	want := &schema.Options{
		Fields: map[string]*schema.Options{
			"deviceCommandCode": {Type: "text", Extra: map[string]any{"dataSource": "/codes"}},
			"note":              {Type: "textarea"},
			"params": {
				Type:  "object",
				Extra: map[string]any{"collapsible": true},
				Fields: map[string]*schema.Options{
					"mode": {Type: "text"},
					"deep": {Fields: map[string]*schema.Options{
						"choice": {Type: "text"},
						"flag":   {Type: "checkbox"},
					}},
				},
			},
			"empty": {Fields: map[string]*schema.Options{}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("slave options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, master); diff != "" {
		t.Fatalf("master options mutated (-before +after):\n%s", diff)
	}
}

func TestSlaveSchema_Golden(t *testing.T) {
	master, err := schema.ParseSchema(testsupport.MustReadFile(t, "testdata/washer.schema.json"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	testsupport.AssertJSONGolden(t, "testdata/washer.slave.golden.json", SlaveSchema(master))
}
