package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/odegen/internal/compiler"
	"github.com/roach88/odegen/internal/sim"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	RequestOptions
	Exec     string   // integrator executable
	ExecArgs []string // integrator arguments
	Metrics  bool     // dump dispatcher metrics to stderr
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RequestOptions: RequestOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "run <path>",
		Short: "Integrate a model with an external integrator process",
		Long: `Build an execution request and send it to an integrator process.

The process receives the request as JSON on stdin and must print one
result {request_id?, time, values, message?} as JSON on stdout.

Examples:
  odegen run models/lv.cue --t-end 50 --exec python3 --exec-arg integrate.py
  odegen run models/lv.cue --t-end 50 --set prey=20 --exec ./integrate --metrics`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args[0], cmd)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.Exec, "exec", "", "integrator executable (required)")
	cmd.Flags().StringArrayVar(&opts.ExecArgs, "exec-arg", nil, "integrator argument (repeatable)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print dispatcher metrics to stderr")
	_ = cmd.MarkFlagRequired("exec")

	return cmd
}

// RunResult pairs a request with its result.
type RunResult struct {
	Model  string     `json:"model"`
	Result sim.Result `json:"result"`
}

func runRun(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	req, name, err := buildRequest(&opts.RequestOptions, path, formatter, cmd)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	d := sim.NewDispatcher(
		sim.CommandExecutor{Path: opts.Exec, Args: opts.ExecArgs, Stderr: cmd.ErrOrStderr()},
		sim.WithMetrics(sim.NewMetrics(reg)),
		sim.WithLogger(opts.Logger(cmd)),
		sim.WithBuffer(1),
	)
	if _, err := d.Submit(cmd.Context(), name, req); err != nil {
		return formatter.Fail(ExitCommandError, compiler.ErrCodeGeneric, err.Error())
	}
	d.Close()
	resp := <-d.Responses()

	if opts.Metrics {
		if err := dumpMetrics(formatter.GetErrWriter(), reg); err != nil {
			return err
		}
	}

	if resp.Err != nil {
		return formatter.Fail(ExitFailure, compiler.ErrCodeGeneric, fmt.Sprintf("integration failed: %v", resp.Err))
	}
	if formatter.Format == "json" {
		return formatter.Success(RunResult{Model: name, Result: resp.Result})
	}
	return writeTable(formatter.Writer, resp.Result)
}

// writeTable prints one row per time point.
func writeTable(w io.Writer, res sim.Result) error {
	if res.Message != "" {
		fmt.Fprintf(w, "# %s\n", res.Message)
	}
	for i, t := range res.Time {
		cols := []string{fmt.Sprintf("%g", t)}
		if i < len(res.Values) {
			for _, v := range res.Values[i] {
				cols = append(cols, fmt.Sprintf("%g", v))
			}
		}
		if _, err := fmt.Fprintln(w, strings.Join(cols, "\t")); err != nil {
			return err
		}
	}
	return nil
}

func dumpMetrics(w io.Writer, reg *prometheus.Registry) error {
	mfs, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
