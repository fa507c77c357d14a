package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/odegen/internal/store"
)

func decodeEmit(t *testing.T, out string) EmitResult {
	t.Helper()
	var resp struct {
		Status string     `json:"status"`
		Data   EmitResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestEmit_PythonToStdout(t *testing.T) {
	out, _, err := execute(t, NewEmitCommand, "text", lotkaVolterraPath, "-p", "alpha", "-p", "beta")
	require.NoError(t, err)

	want, err := os.ReadFile("testdata/scenarios/golden/lotka_volterra.python.golden")
	require.NoError(t, err)
	assert.Equal(t, string(want), out)
}

func TestEmit_InlinesConstantsWithoutParams(t *testing.T) {
	out, _, err := execute(t, NewEmitCommand, "text", lotkaVolterraPath, "--backend", "js")
	require.NoError(t, err)
	assert.Contains(t, out, "function model(time, variables) {\n")
	assert.Contains(t, out, "  const alpha = 1.1;\n")
}

func TestEmit_TeXToFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "lv.tex")

	out, _, err := execute(t, NewEmitCommand, "text", lotkaVolterraPath, "-b", "tex", "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote "+output+" (tex, ")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	want, err := os.ReadFile("testdata/scenarios/golden/lotka_volterra.tex.golden")
	require.NoError(t, err)
	assert.Equal(t, string(want), string(data))
}

func TestEmit_Cache(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "cache.db")
	args := []string{lotkaVolterraPath, "-b", "js", "-p", "alpha", "--cache", cache}

	out, _, err := execute(t, NewEmitCommand, "json", args...)
	require.NoError(t, err)
	first := decodeEmit(t, out)
	assert.False(t, first.Cached)
	assert.Equal(t, "lotka_volterra", first.Model)
	assert.Len(t, first.Hash, 64)
	assert.Len(t, first.Key, 64)

	out, _, err = execute(t, NewEmitCommand, "json", args...)
	require.NoError(t, err)
	second := decodeEmit(t, out)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, first.Source, second.Source)

	st, err := store.Open(cache)
	require.NoError(t, err)
	defer st.Close()
	list, err := st.ListEmissions(t.Context(), first.Hash)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"alpha"}, list[0].Params)
}

func TestEmit_DifferentParamsDifferentKeys(t *testing.T) {
	out, _, err := execute(t, NewEmitCommand, "json", lotkaVolterraPath, "-p", "alpha")
	require.NoError(t, err)
	a := decodeEmit(t, out)

	out, _, err = execute(t, NewEmitCommand, "json", lotkaVolterraPath, "-p", "beta")
	require.NoError(t, err)
	b := decodeEmit(t, out)

	assert.Equal(t, a.Hash, b.Hash)
	assert.NotEqual(t, a.Key, b.Key)
}

func TestEmit_Errors(t *testing.T) {
	invalid := writeModel(t, `model: bad: {
	variables: x: {value: 1, display_name: "has space"}
}
`)

	tests := []struct {
		name     string
		args     []string
		exitCode int
		contains string
	}{
		{"unknown backend", []string{lotkaVolterraPath, "-b", "rust"}, ExitCommandError, "E011"},
		{"missing path", []string{"/nonexistent/model.cue"}, ExitCommandError, "E005"},
		{"unknown model", []string{lotkaVolterraPath, "-m", "nope"}, ExitCommandError, "E008"},
		{"invalid model", []string{invalid}, ExitFailure, "validation failed"},
		{"unknown parameter", []string{lotkaVolterraPath, "-p", "prey"}, ExitFailure, "validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, NewEmitCommand, "text", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.Contains(t, err.Error()+out, tt.contains)
		})
	}
}
