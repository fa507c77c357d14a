package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/lotka_volterra.yaml")
	require.NoError(t, err)

	assert.Equal(t, "lotka_volterra", s.Name)
	assert.Equal(t, []string{filepath.Join("testdata/scenarios", "../models/lotka_volterra.cue")}, s.Models)
	assert.Equal(t, []string{"alpha", "beta"}, s.Params)
	assert.Equal(t, []string{"python", "js", "tex"}, s.Golden)
	require.Len(t, s.Assertions, 6)
	assert.Equal(t, AssertDerivatives, s.Assertions[2].Type)
	assert.Equal(t, map[string]float64{"alpha": 2}, s.Assertions[2].Values)
	assert.Equal(t, 0, *s.Assertions[5].Count)
}

func TestLoadScenario_UnknownField(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.cue", "model: m: variables: x: 1\n")
	path := writeFile(t, dir, "s.yaml", `
name: typo
description: "typo in assertions"
models: [m.cue]
assertion:
  - type: order
    order: []
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_BasePath(t *testing.T) {
	dir := t.TempDir()
	models := filepath.Join(dir, "models")
	require.NoError(t, os.Mkdir(models, 0755))
	writeFile(t, models, "m.cue", "model: m: variables: x: 1\n")
	path := writeFile(t, dir, "s.yaml", `
name: based
description: "paths resolve against the base"
models: [m.cue]
golden: [js]
`)

	s, err := LoadScenarioWithBasePath(path, models)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(models, "m.cue")}, s.Models)
}

func TestLoadScenario_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.cue", "model: m: variables: x: 1\n")

	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "missing name",
			content: "description: d\nmodels: [m.cue]\ngolden: [js]\n",
			errMsg:  "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nmodels: [m.cue]\ngolden: [js]\n",
			errMsg:  "description is required",
		},
		{
			name:    "no models",
			content: "name: n\ndescription: d\ngolden: [js]\n",
			errMsg:  "models list is required",
		},
		{
			name:    "nothing to check",
			content: "name: n\ndescription: d\nmodels: [m.cue]\n",
			errMsg:  "at least one assertion or golden backend",
		},
		{
			name:    "missing model file",
			content: "name: n\ndescription: d\nmodels: [nope.cue]\ngolden: [js]\n",
			errMsg:  "model file not found",
		},
		{
			name:    "bad golden backend",
			content: "name: n\ndescription: d\nmodels: [m.cue]\ngolden: [rust]\n",
			errMsg:  "golden[0]",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nmodels: [m.cue]\nassertions:\n  - type: trace_order\n",
			errMsg:  `unknown assertion type "trace_order"`,
		},
		{
			name:    "order without order",
			content: "name: n\ndescription: d\nmodels: [m.cue]\nassertions:\n  - type: order\n",
			errMsg:  "order is required",
		},
		{
			name:    "derivatives without expect",
			content: "name: n\ndescription: d\nmodels: [m.cue]\nassertions:\n  - type: derivatives\n    state: [1]\n",
			errMsg:  "expect is required",
		},
		{
			name:    "bad semantics",
			content: "name: n\ndescription: d\nmodels: [m.cue]\nassertions:\n  - type: derivatives\n    semantics: ruby\n    expect: [0]\n",
			errMsg:  "assertions[0]",
		},
		{
			name:    "warnings without criteria",
			content: "name: n\ndescription: d\nmodels: [m.cue]\nassertions:\n  - type: warnings\n",
			errMsg:  "count or messages is required",
		},
		{
			name:    "negative count",
			content: "name: n\ndescription: d\nmodels: [m.cue]\nassertions:\n  - type: warnings\n    count: -1\n",
			errMsg:  "count must be non-negative",
		},
		{
			name:    "emit_contains without contains",
			content: "name: n\ndescription: d\nmodels: [m.cue]\nassertions:\n  - type: emit_contains\n    backend: js\n",
			errMsg:  "contains is required",
		},
		{
			name:    "free_variables without subject",
			content: "name: n\ndescription: d\nmodels: [m.cue]\nassertions:\n  - type: free_variables\n",
			errMsg:  "subject is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "s.yaml", tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
