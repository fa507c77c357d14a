package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	out, _, err := execute(t, NewValidateCommand, "text", lotkaVolterraPath)
	require.NoError(t, err)
	assert.Equal(t, "✓ 1 model(s) valid\n", out)
}

func TestValidate_JSON(t *testing.T) {
	out, _, err := execute(t, NewValidateCommand, "json", "testdata/models")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Models)
	assert.Empty(t, resp.Data.Errors)
}

func TestValidate_Invalid(t *testing.T) {
	path := writeModel(t, `model: bad: {
	constants: "1k": 2
	variables: x: {value: 1, display_name: "has space"}
}
`)

	out, _, err := execute(t, NewValidateCommand, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 2 error(s)")
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "constants.1k")
	assert.Contains(t, out, "variables.x.display_name")
}

func TestValidate_InvalidJSON(t *testing.T) {
	path := writeModel(t, `model: bad: reactions: r: {rate: 1, stoichiometry: {ghost: 1}}`)

	out, _, err := execute(t, NewValidateCommand, "json", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E104", resp.Error.Code)
}

func TestValidate_WarningsDoNotFail(t *testing.T) {
	path := writeModel(t, `model: cyc: {
	variables: x: 1
	assignments: {
		p: {add: ["q", 1]}
		q: {add: ["p", 1]}
	}
}
`)

	out, _, err := execute(t, NewValidateCommand, "text", path)
	require.NoError(t, err)
	assert.Contains(t, out, "warning: cyc: ")
	assert.Contains(t, out, "✓ 1 model(s) valid")
}

func TestValidate_CommandErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		code string
	}{
		{"nonexistent path", "/nonexistent/path", "E005"},
		{"empty directory", t.TempDir(), "E003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, NewValidateCommand, "text", tt.path)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}
