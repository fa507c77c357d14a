package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
)

// CommandExecutor runs an external integrator process per request.
// The request is written to the process's stdin as JSON and one Result
// is decoded from its stdout. Cancelling ctx kills the process.
type CommandExecutor struct {
	Path   string
	Args   []string
	Stderr io.Writer // process stderr; discarded when nil
}

// Execute implements Executor.
func (e CommandExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.Path, e.Args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, fmt.Errorf("executor %s: %w", e.Path, err)
	}

	var res Result
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		return Result{}, fmt.Errorf("decode result from %s: %w", e.Path, err)
	}
	if res.RequestID != "" && res.RequestID != req.ID {
		return Result{}, fmt.Errorf("executor %s answered request %q, want %q", e.Path, res.RequestID, req.ID)
	}
	return res, nil
}
