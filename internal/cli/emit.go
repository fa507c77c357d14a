package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/odegen/internal/expr"
	"github.com/roach88/odegen/internal/ir"
	"github.com/roach88/odegen/internal/store"
)

// EmitOptions holds flags for the emit command.
type EmitOptions struct {
	*RootOptions
	Model   string   // model name; optional when the path defines one model
	Backend string   // js | python | tex
	Params  []string // constants passed as function arguments
	Output  string   // output file path
	Cache   string   // SQLite emission cache path
}

// EmitResult describes one emission.
type EmitResult struct {
	Model   string `json:"model"`
	Backend string `json:"backend"`
	Hash    string `json:"hash"`
	Key     string `json:"key"`
	Cached  bool   `json:"cached"`
	Output  string `json:"output,omitempty"`
	Source  string `json:"source,omitempty"`
}

// NewEmitCommand creates the emit command.
func NewEmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "emit <path>",
		Short: "Emit the ODE right-hand side for a model",
		Long: `Emit a model as a JavaScript or Python function
model(time, variables, <params...>) followed by its initial conditions,
or as a TeX align* block.

With --cache, emissions are stored in a SQLite database keyed by the
model's content hash, backend, parameters and emitter version.

Examples:
  odegen emit models/lv.cue --backend python --param alpha --param beta
  odegen emit models/ --model lotka_volterra --backend tex -o lv.tex
  odegen emit models/lv.cue --cache .odegen.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "model name")
	cmd.Flags().StringVarP(&opts.Backend, "backend", "b", "python", "backend (js|python|tex)")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "constant passed as a function argument (repeatable)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Cache, "cache", "", "SQLite emission cache path")

	return cmd
}

func runEmit(opts *EmitOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.Logger(cmd)
	ctx := context.Background()

	backend, err := expr.ParseBackend(opts.Backend)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, err.Error())
	}

	lm, err := loadModel(formatter, path, opts.Model)
	if err != nil {
		return err
	}
	logWarnings(logger, lm.spec)

	hash, err := ir.ModelHash(lm.spec)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeModel, err.Error())
	}
	key, err := ir.EmissionKey(hash, backend.String(), opts.Params)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeModel, err.Error())
	}
	result := EmitResult{Model: lm.spec.Name, Backend: backend.String(), Hash: hash, Key: key, Output: opts.Output}

	var st *store.Store
	if opts.Cache != "" {
		st, err = store.Open(opts.Cache)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeCache, err.Error())
		}
		defer st.Close()

		cached, err := st.ReadEmission(ctx, key)
		switch {
		case err == nil:
			result.Source, result.Cached = cached.Source, true
			logger.Debug("cache hit", "model", result.Model, "key", key)
		case errors.Is(err, store.ErrNotFound):
			logger.Debug("cache miss", "model", result.Model, "key", key)
		default:
			return formatter.Fail(ExitCommandError, ErrCodeCache, err.Error())
		}
	}

	if !result.Cached {
		result.Source, err = lm.model.Emit(backend, opts.Params)
		if err != nil {
			if problems, ok := modelProblems(lm.spec.Name, err); ok {
				return outputProblems(formatter, problems, nil)
			}
			return formatter.Fail(ExitCommandError, ErrCodeModel, err.Error())
		}
		if st != nil {
			if err := cacheEmission(ctx, st, lm.spec, result, opts.Params); err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeCache, err.Error())
			}
		}
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(result.Source), 0644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	switch {
	case formatter.Format == "json":
		return formatter.Success(result)
	case opts.Output != "":
		fmt.Fprintf(formatter.Writer, "✓ Wrote %s (%s, %d bytes)\n", opts.Output, result.Backend, len(result.Source))
	default:
		fmt.Fprint(formatter.Writer, result.Source)
	}
	return nil
}

func cacheEmission(ctx context.Context, st *store.Store, spec ir.ModelSpec, result EmitResult, params []string) error {
	if err := st.WriteModel(ctx, result.Hash, spec); err != nil {
		return err
	}
	return st.WriteEmission(ctx, store.Emission{
		Key:            result.Key,
		ModelHash:      result.Hash,
		Backend:        result.Backend,
		Params:         params,
		EmitterVersion: ir.EmitterVersion,
		Source:         result.Source,
	})
}
