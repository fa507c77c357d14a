package sim

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shell(t *testing.T, script string) CommandExecutor {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return CommandExecutor{Path: sh, Args: []string{"-c", script}}
}

func TestCommandExecutor_Result(t *testing.T) {
	e := shell(t, `cat >/dev/null; echo '{"time":[0,1],"values":[[1],[0.5]],"message":"ok"}'`)

	res, err := e.Execute(context.Background(), Request{ID: "req-1", TEnd: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, res.Time)
	assert.Equal(t, [][]float64{{1}, {0.5}}, res.Values)
	assert.Equal(t, "ok", res.Message)
}

func TestCommandExecutor_ReceivesRequest(t *testing.T) {
	e := shell(t, `grep -q '"request_id":"req-7"' && echo '{"request_id":"req-7","time":[],"values":[]}'`)

	res, err := e.Execute(context.Background(), Request{ID: "req-7", Method: DefaultMethod})
	require.NoError(t, err)
	assert.Equal(t, "req-7", res.RequestID)
}

func TestCommandExecutor_Errors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		errMsg string
	}{
		{"non-zero exit", "exit 3", "exit status 3"},
		{"bad output", "echo nope", "decode result"},
		{"wrong request", `echo '{"request_id":"other"}'`, `answered request "other"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := shell(t, tt.script).Execute(context.Background(), Request{ID: "req-1"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCommandExecutor_Cancel(t *testing.T) {
	e := shell(t, "sleep 5")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := e.Execute(ctx, Request{ID: "req-1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
