package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyScenarios lays out a scenarios directory with the Lotka-Volterra
// model and scenario, without golden files.
func copyScenarios(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{"models/lotka_volterra.cue", "scenarios/lotka_volterra.yaml"} {
		data, err := os.ReadFile(filepath.Join("testdata", rel))
		require.NoError(t, err)
		dst := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0755))
		require.NoError(t, os.WriteFile(dst, data, 0644))
	}
	return filepath.Join(root, "scenarios")
}

func TestTest_Passes(t *testing.T) {
	out, _, err := execute(t, NewTestCommand, "text", "testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ lotka_volterra")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTest_JSON(t *testing.T) {
	out, _, err := execute(t, NewTestCommand, "json", "testdata/scenarios")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Len(t, resp.Data.Scenarios[0].Hash, 64)
}

func TestTest_MissingGoldenThenUpdate(t *testing.T) {
	dir := copyScenarios(t)

	out, _, err := execute(t, NewTestCommand, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ lotka_volterra")
	assert.Contains(t, out, "golden mismatch: lotka_volterra.python (missing)")

	_, _, err = execute(t, NewTestCommand, "text", dir, "--update")
	require.NoError(t, err)

	for _, backend := range []string{"python", "js", "tex"} {
		got, err := os.ReadFile(filepath.Join(dir, "golden", "lotka_volterra."+backend+".golden"))
		require.NoError(t, err)
		want, err := os.ReadFile(filepath.Join("testdata", "scenarios", "golden", "lotka_volterra."+backend+".golden"))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), backend)
	}

	out, _, err = execute(t, NewTestCommand, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTest_Filter(t *testing.T) {
	out, _, err := execute(t, NewTestCommand, "text", "testdata/scenarios", "--filter", "decay*")
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTest_MissingDirectory(t *testing.T) {
	_, _, err := execute(t, NewTestCommand, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
