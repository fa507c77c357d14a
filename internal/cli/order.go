package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/odegen/internal/compiler"
	"github.com/roach88/odegen/internal/model"
)

// OrderOptions holds flags for the order command.
type OrderOptions struct {
	*RootOptions
	Model string
}

// OrderResult is the statement order of one model.
type OrderResult struct {
	Model    string                       `json:"model"`
	Order    []string                     `json:"order"`
	Initial  []model.InitialCondition     `json:"initial"`
	Warnings []compiler.DependencyWarning `json:"warnings,omitempty"`
}

// NewOrderCommand creates the order command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OrderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "order <path>",
		Short: "Print the statement order of assignments and reactions",
		Long: `Print the order in which assignments and reactions are emitted.

The order is best-effort: items in a dependency cycle may be emitted
before their inputs or left out. Such cases are listed as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "model name")
	return cmd
}

func runOrder(opts *OrderOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	lm, err := loadModel(formatter, path, opts.Model)
	if err != nil {
		return err
	}

	result := OrderResult{
		Model:    lm.spec.Name,
		Order:    lm.model.SortDependencies(),
		Initial:  lm.model.InitialConditions(),
		Warnings: logWarnings(opts.Logger(cmd), lm.spec),
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	for i, key := range result.Order {
		fmt.Fprintf(formatter.Writer, "%d. %s\n", i+1, key)
	}
	return nil
}
