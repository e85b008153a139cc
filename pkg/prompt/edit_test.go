package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formfields/pkg/project"
	"github.com/goliatone/go-formfields/pkg/schema"
)

// fakeDriver answers prompts from queues and records what it was asked.
type fakeDriver struct {
	inputs   []string
	confirms []bool
	selects  []int
	asked    []string
	infos    []string
	defaults []string
	err      error
}

func (d *fakeDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	d.asked = append(d.asked, "input:"+cfg.Message)
	d.defaults = append(d.defaults, cfg.Default)
	if d.err != nil {
		return "", d.err
	}
	answer := d.inputs[0]
	d.inputs = d.inputs[1:]
	if cfg.Validator != nil {
		if err := cfg.Validator(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

func (d *fakeDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	d.asked = append(d.asked, "confirm:"+cfg.Message)
	answer := d.confirms[0]
	d.confirms = d.confirms[1:]
	return answer, nil
}

func (d *fakeDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	d.asked = append(d.asked, "select:"+cfg.Message)
	answer := d.selects[0]
	d.selects = d.selects[1:]
	return answer, nil
}

func (d *fakeDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func fixture(t *testing.T) (*schema.Schema, *schema.Options) {
	t.Helper()
	s, err := schema.ParseSchema([]byte(`{
	  "type": "object",
	  "properties": {
	    "code": {"type": "string", "isVariant": true, "enum": ["A", "B"]},
	    "level": {"type": "number"},
	    "on": {"type": "boolean"},
	    "serial": {"type": "string", "pattern": "^[0-9]+$"},
	    "tags": {"type": "array"},
	    "meta": {"type": "object", "properties": {"note": {"type": "string", "readonly": true}}}
	  }
	}`))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	o, err := schema.ParseOptions([]byte(`{"fields": {"code": {"type": "select", "label": "Code"}}}`))
	if err != nil {
		t.Fatalf("parse options: %v", err)
	}
	return s, o
}

func TestEditValue_Master(t *testing.T) {
	s, o := fixture(t)
	d := &fakeDriver{
		inputs:   []string{"4.5", "1234", `["x"]`},
		confirms: []bool{true},
		selects:  []int{1},
	}
	previous := map[string]any{
		"code":  "A",
		"level": 2.0,
		"meta":  map[string]any{"note": "kept"},
		"extra": "untouched",
	}

	got, err := EditValue(context.Background(), d, s, o, previous)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	want := map[string]any{
		"code":   "B",
		"level":  4.5,
		"on":     true,
		"serial": "1234",
		"tags":   []any{"x"},
		"meta":   map[string]any{"note": "kept"},
		"extra":  "untouched",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
	wantAsked := []string{"select:Code", "input:level", "confirm:on", "input:serial", "input:tags (JSON list)"}
	if diff := cmp.Diff(wantAsked, d.asked); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}
	if d.defaults[0] != "2" {
		t.Fatalf("expected numeric default 2, got %q", d.defaults[0])
	}
	if diff := cmp.Diff([]string{"meta.note: kept (read-only)"}, d.infos); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if previous["code"] != "A" {
		t.Fatalf("input value must not be modified")
	}
}

func TestEditValue_SlaveOnlyAsksVariants(t *testing.T) {
	s, o := fixture(t)
	d := &fakeDriver{inputs: []string{"B"}}

	got, err := EditValue(context.Background(), d, project.SlaveSchema(s), project.SlaveOptions(o), map[string]any{"code": "A", "level": 3.0})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if diff := cmp.Diff([]string{"input:Code"}, d.asked); diff != "" {
		t.Fatalf("expected only the variant leaf to be asked (-want +got):\n%s", diff)
	}
	m := got.(map[string]any)
	if m["code"] != "B" || m["level"] != 3.0 {
		t.Fatalf("unexpected result %v", m)
	}
	if len(d.infos) != 5 {
		t.Fatalf("expected read-only leaves to be shown, got %v", d.infos)
	}
}

func TestEditValue_Errors(t *testing.T) {
	s, o := fixture(t)

	if _, err := EditValue(context.Background(), nil, s, o, nil); err == nil {
		t.Fatalf("expected nil driver error")
	}

	d := &fakeDriver{selects: []int{0}, err: ErrAborted}
	if _, err := EditValue(context.Background(), d, s, o, nil); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}

	bad := &fakeDriver{selects: []int{0}, inputs: []string{"abc"}}
	if _, err := EditValue(context.Background(), bad, s, o, nil); err == nil {
		t.Fatalf("expected number validation error")
	}

	if got, err := EditValue(context.Background(), &fakeDriver{}, nil, nil, "same"); err != nil || got != "same" {
		t.Fatalf("nil schema should pass the value through")
	}
}
