package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/precomp/internal/config"
)

const sample = `operation "height_plus_one" {
  vars      = { height = "int", raised = "bool" }
  op        = "$height + (1 if $raised else 0)"
  resultvar = "$out"
}

instance "door_1" {
  origin = [0, 0, 64]
  angles = "0 90 0"
  fixups = { height = 5, raised = true, "$Name" = "door", ratio = 1.5 }
}

value "door_offset" {
  source  = "$offset"
  type    = "offset"
  default = "0 0 0"
  scale   = 2
  zoff    = "8"
}
`

func strPtr(s string) *string { return &s }

func TestParse_AllBlocks(t *testing.T) {
	// --- Act ---
	model, err := NewLoader().Parse(context.Background(), []byte(sample), "sample.hcl")

	// --- Assert ---
	require.NoError(t, err)
	want := &config.Model{
		Operations: []*config.Block{{
			Name:   "height_plus_one",
			Source: "sample.hcl:1",
			Properties: []config.Property{
				{Key: "$height", Value: "int"},
				{Key: "$raised", Value: "bool"},
				{Key: "op", Value: "$height + (1 if $raised else 0)"},
				{Key: "resultvar", Value: "$out"},
			},
		}},
		Instances: []*config.Instance{{
			Name:   "door_1",
			Source: "sample.hcl:7",
			Origin: "0 0 64",
			Angles: "0 90 0",
			Fixups: []config.Property{
				{Key: "height", Value: "5"},
				{Key: "raised", Value: "1"},
				{Key: "$Name", Value: "door"},
				{Key: "ratio", Value: "1.5"},
			},
		}},
		Values: []*config.Value{{
			Name:        "door_offset",
			Source:      "sample.hcl:13",
			Text:        "$offset",
			Type:        "offset",
			Default:     strPtr("0 0 0"),
			AllowInvert: true,
			Scale:       "2",
			ZOffset:     "8",
		}},
	}
	if diff := cmp.Diff(want, model); diff != "" {
		t.Errorf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_OperationKeepsUnknownKeys(t *testing.T) {
	// Unknown keys are passed through so the compiler can report them.
	src := `operation "x" {
  code = "1"
  op   = "2"
}`
	model, err := NewLoader().Parse(context.Background(), []byte(src), "x.hcl")
	require.NoError(t, err)
	require.Len(t, model.Operations, 1)
	assert.Equal(t, []config.Property{{Key: "code", Value: "1"}, {Key: "op", Value: "2"}}, model.Operations[0].Properties)
}

func TestParse_ValueDefaults(t *testing.T) {
	src := `value "v" {
  source       = "$x"
  allow_invert = false
  invert       = true
  rotate       = "0 90 0"
}`
	model, err := NewLoader().Parse(context.Background(), []byte(src), "v.hcl")
	require.NoError(t, err)
	require.Len(t, model.Values, 1)

	v := model.Values[0]
	assert.Equal(t, "string", v.Type)
	assert.Nil(t, v.Default)
	assert.False(t, v.AllowInvert)
	assert.True(t, v.Invert)
	assert.Equal(t, "0 90 0", v.Rotate)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `operation "x" {`, "failed to parse"},
		{"unknown block", `runner "x" {}`, "Unsupported block type"},
		{"missing label", `operation {}`, "Missing name"},
		{"value without source", `value "v" {}`, "source"},
		{"nested object fixup", `instance "i" { fixups = { a = { b = 1 } } }`, "Invalid fixup value"},
		{"vars not an object", `operation "x" { vars = "int" }`, "map"},
		{"nested block in operation", "operation \"x\" {\n  inner {}\n}", "Unexpected \"inner\" block"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().Parse(context.Background(), []byte(tc.src), "bad.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_Directory(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"), []byte(`instance "first" {}`), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.hcl"), []byte(`instance "second" {}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`not hcl {`), 0o600))

	// --- Act ---
	model, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, model.Instances, 2)
	assert.Equal(t, "first", model.Instances[0].Name)
	assert.Equal(t, "second", model.Instances[1].Name)
	assert.Equal(t, filepath.Join(dir, "a.hcl")+":1", model.Instances[0].Source)
}

func TestLoad_ParseErrorNamesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`instance "x" {`), 0o600))

	_, err := NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
