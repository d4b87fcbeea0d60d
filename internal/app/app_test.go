package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vk/precomp/internal/config"
	"github.com/vk/precomp/internal/hcl"
	"github.com/vk/precomp/internal/operation"
	"github.com/vk/precomp/internal/yamlcfg"
)

const doorsHCL = `
operation "height_plus_one" {
  vars      = { height = "int", raised = "bool" }
  op        = "$height + (1 if $raised else 0)"
  resultvar = "$out"
}

instance "door_1" {
  origin = "0 0 64"
  fixups = { height = 5, raised = true, offset = "1 2 0" }
}

instance "door_2" {
  fixups = { height = 10, raised = false }
}

value "door_offset" {
  source = "$offset"
  type   = "offset"
  default = "0 0 0"
  scale  = "2"
  zoff   = "8"
}

value "label" {
  source = "$out!"
}
`

const extraYAML = `
operations:
  - name: double
    vars:
      out: int
    op: $out * 2
    resultvar: $doubled
values:
  - name: lowered
    source: $raised
    type: bool
    invert: true
`

func loaders() []config.Loader {
	return []config.Loader{hcl.NewLoader(), yamlcfg.NewLoader()}
}

func TestRun_TextReport(t *testing.T) {
	// --- Arrange ---
	dir := WriteFiles(t, map[string]string{"doors.hcl": doorsHCL})
	cfg, err := NewConfig(Config{Paths: []string{dir}, WorkerCount: 2})
	require.NoError(t, err)
	a, out, _ := SetupAppTest(t, cfg, loaders()...)

	// --- Act ---
	err = a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, `door_1 [done]
  fixups:
    height = 5
    raised = 1
    offset = 1 2 0
    out = 6
  values:
    door_offset = 2 4 72
    label = 6!
door_2 [done]
  fixups:
    height = 10
    raised = 0
    out = 10
  values:
    door_offset = 0 0 8
    label = 10!
`, out.String())
}

func TestRun_MergesHCLAndYAML(t *testing.T) {
	// --- Arrange ---
	dir := WriteFiles(t, map[string]string{
		"doors.hcl":     doorsHCL,
		"more/ops.yaml": extraYAML,
	})
	cfg, err := NewConfig(Config{Paths: []string{dir}, OutputFormat: OutputJSON})
	require.NoError(t, err)
	a, out, _ := SetupAppTest(t, cfg, loaders()...)

	// --- Act ---
	err = a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	var report struct {
		Instances []instanceReport `json:"instances"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.String()), &report))
	require.Len(t, report.Instances, 2)

	door1 := report.Instances[0]
	assert.Equal(t, "door_1", door1.Instance)
	assert.Equal(t, "done", door1.Status)
	assert.Equal(t, "doubled", door1.Fixups[len(door1.Fixups)-1].Name)
	assert.Equal(t, "12", door1.Fixups[len(door1.Fixups)-1].Value)
	assert.Equal(t, "lowered", door1.Values[2].Name)
	assert.Equal(t, "0", door1.Values[2].Value)
}

func TestRun_YAMLReport(t *testing.T) {
	// --- Arrange ---
	dir := WriteFiles(t, map[string]string{"doors.hcl": doorsHCL})
	cfg, err := NewConfig(Config{Paths: []string{dir}, OutputFormat: OutputYAML})
	require.NoError(t, err)
	a, out, _ := SetupAppTest(t, cfg, loaders()...)

	// --- Act ---
	err = a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	var report struct {
		Instances []instanceReport `yaml:"instances"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out.String()), &report))
	require.Len(t, report.Instances, 2)
	assert.Equal(t, "door_2", report.Instances[1].Instance)
	assert.Equal(t, "10!", report.Instances[1].Values[1].Value)
}

func TestRun_InvalidOperation(t *testing.T) {
	const src = `
operation "bad" {
  vars      = { x = "colour" }
  op        = "$x"
  resultvar = "$y"
}

operation "good" {
  op        = "1 + 1"
  resultvar = "$two"
}

instance "a" {}
`

	t.Run("skipped with a warning", func(t *testing.T) {
		// --- Arrange ---
		dir := WriteFiles(t, map[string]string{"main.hcl": src})
		cfg, err := NewConfig(Config{Paths: []string{dir}})
		require.NoError(t, err)
		a, out, logs := SetupAppTest(t, cfg, loaders()...)

		// --- Act ---
		err = a.Run(context.Background())

		// --- Assert ---
		require.NoError(t, err)
		assert.Contains(t, logs.String(), "Skipping invalid operation.")
		assert.Contains(t, out.String(), "two = 2")
		assert.NotContains(t, out.String(), "y =")
	})

	t.Run("fatal when strict", func(t *testing.T) {
		// --- Arrange ---
		dir := WriteFiles(t, map[string]string{"main.hcl": src})
		cfg, err := NewConfig(Config{Paths: []string{dir}, Strict: true})
		require.NoError(t, err)
		a, out, _ := SetupAppTest(t, cfg, loaders()...)

		// --- Act ---
		err = a.Run(context.Background())

		// --- Assert ---
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.ErrorIs(t, err, operation.ErrInvalidType)
		assert.Empty(t, out.String())
	})
}

func TestRun_InvalidValueStrict(t *testing.T) {
	dir := WriteFiles(t, map[string]string{"main.hcl": `
value "v" {
  source = "1"
  type   = "colour"
}
`})
	cfg, err := NewConfig(Config{Paths: []string{dir}, Strict: true})
	require.NoError(t, err)
	a, _, _ := SetupAppTest(t, cfg, loaders()...)

	err = a.Run(context.Background())

	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "unknown type")
}

func TestRun_ConfigErrors(t *testing.T) {
	testCases := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{"nothing found", map[string]string{"readme.txt": "hello"}, "no operations, instances or values found"},
		{"parse error", map[string]string{"main.hcl": "operation \"a\" {"}, "failed to load configuration"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			dir := WriteFiles(t, tc.files)
			cfg, err := NewConfig(Config{Paths: []string{dir}})
			require.NoError(t, err)
			a, _, _ := SetupAppTest(t, cfg, loaders()...)

			// --- Act ---
			err = a.Run(context.Background())

			// --- Assert ---
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestRun_NoLoaders(t *testing.T) {
	cfg, err := NewConfig(Config{Paths: []string{t.TempDir()}})
	require.NoError(t, err)
	a, _, _ := SetupAppTest(t, cfg)

	err = a.Run(context.Background())

	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRun_NoInstancesWarns(t *testing.T) {
	dir := WriteFiles(t, map[string]string{"main.hcl": `
operation "good" {
  op        = "1"
  resultvar = "$one"
}
`})
	cfg, err := NewConfig(Config{Paths: []string{dir}})
	require.NoError(t, err)
	a, out, logs := SetupAppTest(t, cfg, loaders()...)

	err = a.Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, out.String())
	assert.Contains(t, logs.String(), "No instances found")
}
