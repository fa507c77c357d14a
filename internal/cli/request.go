package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/odegen/internal/expr"
	"github.com/roach88/odegen/internal/sim"
)

// RequestOptions holds flags shared by the request and run commands.
type RequestOptions struct {
	*RootOptions
	Model   string
	Backend string
	Params  []string
	Set     []string // key=value overrides for initial values and parameters
	TEnd    float64
	Method  string
}

func (o *RequestOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Model, "model", "m", "", "model name")
	cmd.Flags().StringVarP(&o.Backend, "backend", "b", "python", "backend (js|python)")
	cmd.Flags().StringArrayVarP(&o.Params, "param", "p", nil, "constant passed as a function argument (repeatable)")
	cmd.Flags().StringArrayVar(&o.Set, "set", nil, "override an initial value or parameter as key=value (repeatable)")
	cmd.Flags().Float64Var(&o.TEnd, "t-end", 0, "integration horizon (required)")
	cmd.Flags().StringVar(&o.Method, "method", sim.DefaultMethod, "integration method")
	_ = cmd.MarkFlagRequired("t-end")
}

// parseSet parses key=value overrides.
func parseSet(pairs []string) (map[string]float64, error) {
	values := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", pair)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", pair, err)
		}
		values[key] = v
	}
	return values, nil
}

// buildRequest loads the model and packs an execution request.
func buildRequest(opts *RequestOptions, path string, formatter *OutputFormatter, cmd *cobra.Command) (sim.Request, string, error) {
	backend, err := expr.ParseBackend(opts.Backend)
	if err != nil {
		return sim.Request{}, "", formatter.Fail(ExitCommandError, ErrCodeUsage, err.Error())
	}
	values, err := parseSet(opts.Set)
	if err != nil {
		return sim.Request{}, "", formatter.Fail(ExitCommandError, ErrCodeUsage, err.Error())
	}

	lm, err := loadModel(formatter, path, opts.Model)
	if err != nil {
		return sim.Request{}, "", err
	}
	logWarnings(opts.Logger(cmd), lm.spec)

	req, err := sim.NewRequest(lm.model, sim.RequestOptions{
		Backend: backend,
		Params:  opts.Params,
		Values:  values,
		TEnd:    opts.TEnd,
		Method:  opts.Method,
	})
	if err != nil {
		if problems, ok := modelProblems(lm.spec.Name, err); ok {
			return sim.Request{}, "", outputProblems(formatter, problems, nil)
		}
		return sim.Request{}, "", formatter.Fail(ExitCommandError, ErrCodeUsage, err.Error())
	}
	return req, lm.spec.Name, nil
}

// NewRequestCommand creates the request command.
func NewRequestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "request <path>",
		Short: "Print an execution request for an external integrator",
		Long: `Emit a model and print the JSON request an external integrator
consumes: {request_id, backend, model, initial_values, t_end, pars, method}.

Initial values follow state-variable order and pars follow --param order.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)
			req, _, err := buildRequest(opts, args[0], formatter, cmd)
			if err != nil {
				return err
			}
			req.ID = sim.UUIDv7Generator{}.Generate()
			if formatter.Format == "json" {
				return formatter.Success(req)
			}
			return writeJSON(formatter.Writer, req)
		},
	}
	opts.bind(cmd)
	return cmd
}
