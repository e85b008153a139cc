package infer

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formfields/internal/testsupport"
	"github.com/goliatone/go-formfields/pkg/schema"
)

func TestDecodeExample_YAMLWithPattern(t *testing.T) {
	doc := []byte(`
deviceCommandCode: "SET_TEMP"
target: 21.5
enabled: true
serial: !pattern "^[A-Z]{2}[0-9]{4}$"
note: ~
modes: [eco, boost]
`)

	example, err := DecodeExample(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	values, ok := example.(map[string]any)
	if !ok {
		t.Fatalf("expected map example, got %T", example)
	}
	re, ok := values["serial"].(*regexp.Regexp)
	if !ok {
		t.Fatalf("expected serial to decode to *regexp.Regexp, got %T", values["serial"])
	}
	if re.String() != "^[A-Z]{2}[0-9]{4}$" {
		t.Fatalf("unexpected pattern %q", re.String())
	}

	got, err := SchemaByExample(example)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	want := &schema.Schema{
		Type: "object",
		Properties: map[string]*schema.Schema{
			"deviceCommandCode": {Type: "string", ReadOnly: true},
			"target":            {Type: "number", Format: FormatIndependentSlaveField},
			"enabled":           {Type: "boolean"},
			"serial":            {Type: "string", Pattern: "^[A-Z]{2}[0-9]{4}$"},
			"note":              {Type: "null"},
			"modes":             {Type: "array", Items: &schema.Schema{Type: "string", ReadOnly: true}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeExample_JSON(t *testing.T) {
	example, err := DecodeExample([]byte(`{"a": 1, "b": [], "c": {"d": "x"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"a": 1,
		"b": []any{},
		"c": map[string]any{"d": "x"},
	}
	if diff := cmp.Diff(want, example); diff != "" {
		t.Fatalf("example mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeExample_Errors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{name: "empty", doc: "  \n", want: "empty"},
		{name: "bad pattern", doc: `p: !pattern "([a-z"`, want: "invalid pattern"},
		{name: "complex key", doc: "? [a, b]\n: 1\n", want: "keys must be scalars"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeExample([]byte(tc.doc))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestSchemaByExample_Golden(t *testing.T) {
	example, err := DecodeExample(testsupport.MustReadFile(t, "testdata/washer.yaml"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, err := SchemaByExample(example)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	testsupport.AssertJSONGolden(t, "testdata/washer.golden.json", got)
}
