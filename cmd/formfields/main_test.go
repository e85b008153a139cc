package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formfields/internal/config"
	"github.com/goliatone/go-formfields/pkg/prompt"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(strings.NewReader(stdin), &out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestInferCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, `
code: A
level: 3
serial: !pattern '^[0-9]+$'
tags: []
`, "infer", "-")
	require.NoError(t, err)

	got := decode(t, out)
	props := got["properties"].(map[string]any)
	assert.Equal(t, "object", got["type"])
	assert.Equal(t, map[string]any{"type": "string", "readonly": true}, props["code"])
	assert.Equal(t, map[string]any{"type": "number", "format": "independent-slave-field"}, props["level"])
	assert.Equal(t, map[string]any{"type": "string", "pattern": "^[0-9]+$"}, props["serial"])
	assert.Equal(t, map[string]any{"type": "array"}, props["tags"])
}

func TestSlaveCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	schemaPath := filepath.Join(dir, "schema.json")
	optionsPath := filepath.Join(dir, "options.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`{"type":"object","properties":{"a":{"type":"number"},"b":{"type":"string","isVariant":true}}}`), 0o600))
	require.NoError(t, os.WriteFile(optionsPath, []byte(`{"fields":{"a":{"type":"select"}}}`), 0o600))

	out, err := run(t, "", "slave", "--schema", schemaPath, "--options", optionsPath)
	require.NoError(t, err)

	got := decode(t, out)
	props := got["schema"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "number", "readonly": true, "format": "text"}, props["a"])
	assert.Equal(t, map[string]any{"type": "string", "isVariant": true}, props["b"])
	fields := got["options"].(map[string]any)["fields"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "text"}, fields["a"])

	_, err = run(t, "", "slave")
	assert.Error(t, err)
}

func TestResolveCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	node := filepath.Join(dir, "nodes", "cmd-1")
	require.NoError(t, os.MkdirAll(node, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(node, "schema.json"), []byte(`{"byExample": {"code": "A", "level": 1}}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(node, "options.json"), []byte(`{"fields": {"code": {"type": "select"}}}`), 0o600))

	out, err := run(t, "", "resolve", "cmd-1", "--slave", "--store-root", filepath.Join(dir, "nodes"))
	require.NoError(t, err)

	got := decode(t, out)
	props := got["schema"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, true, props["level"].(map[string]any)["readonly"])
	assert.Equal(t, "text", got["options"].(map[string]any)["fields"].(map[string]any)["code"].(map[string]any)["type"])

	_, err = run(t, "", "resolve", "missing", "--store-root", filepath.Join(dir, "nodes"))
	assert.Error(t, err)
}

func TestRootCommand_BadConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "", "--config", "nope.yaml", "infer", "-")
	assert.Error(t, err)
}

type scriptedDriver struct {
	inputs []string
	asked  []string
	shown  []string
}

func (d *scriptedDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	if len(d.inputs) == 0 {
		return cfg.Default, nil
	}
	answer := d.inputs[0]
	d.inputs = d.inputs[1:]
	return answer, nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg prompt.ConfirmConfig) (bool, error) {
	d.asked = append(d.asked, cfg.Message)
	return cfg.Default, nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg prompt.SelectConfig) (int, error) {
	d.asked = append(d.asked, cfg.Message)
	return cfg.DefaultIndex, nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.shown = append(d.shown, msg)
	return nil
}

func TestEditCommand_SlaveStoresTypedVariant(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	node := filepath.Join(dir, "nodes", "cmd-1")
	require.NoError(t, os.MkdirAll(node, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(node, "schema.json"), []byte(`{
		"type": "object",
		"properties": {
			"deviceCommandCode": {"type": "string", "readonly": true},
			"level": {"type": "number"},
			"note": {"type": "string", "isVariant": true}
		}
	}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(node, "options.json"), []byte(`{}`), 0o600))
	valuePath := filepath.Join(dir, "value.json")
	require.NoError(t, os.WriteFile(valuePath, []byte(`{"deviceCommandCode": "ON", "level": 3, "note": "kept"}`), 0o600))

	driver := &scriptedDriver{inputs: []string{"typed"}}
	var out bytes.Buffer
	root := newAppCmd(&app{v: config.New(), in: strings.NewReader(""), out: &out, prompts: driver})
	root.SetArgs([]string{"edit", "cmd-1", "--slave", "--value", valuePath, "--store-root", filepath.Join(dir, "nodes")})
	require.NoError(t, root.Execute())

	assert.Equal(t, []string{"note"}, driver.asked)
	assert.Equal(t, []string{"deviceCommandCode: ON (read-only)", "level: 3 (read-only)"}, driver.shown)
	assert.Equal(t, map[string]any{"deviceCommandCode": "ON", "level": float64(3), "note": "typed"}, decode(t, out.String()))
}

func TestEditCommand_MasterWithoutPrevious(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	node := filepath.Join(dir, "nodes", "cmd-2")
	require.NoError(t, os.MkdirAll(node, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(node, "schema.json"), []byte(`{
		"type": "object",
		"properties": {
			"deviceCommandCode": {"type": "string", "enum": ["ON", "OFF"]},
			"level": {"type": "number"}
		}
	}`), 0o600))

	require.NoError(t, os.WriteFile(filepath.Join(node, "options.json"), []byte(`{}`), 0o600))

	driver := &scriptedDriver{inputs: []string{"ON", "7"}}
	var out bytes.Buffer
	root := newAppCmd(&app{v: config.New(), in: strings.NewReader(""), out: &out, prompts: driver})
	root.SetArgs([]string{"edit", "cmd-2", "--store-root", filepath.Join(dir, "nodes")})
	require.NoError(t, root.Execute())

	assert.Equal(t, map[string]any{"deviceCommandCode": "ON", "level": float64(7)}, decode(t, out.String()))

	driver = &scriptedDriver{inputs: []string{"MAYBE", "7"}}
	out.Reset()
	root = newAppCmd(&app{v: config.New(), in: strings.NewReader(""), out: &out, prompts: driver})
	root.SetArgs([]string{"edit", "cmd-2", "--store-root", filepath.Join(dir, "nodes")})
	assert.Error(t, root.Execute())
}
