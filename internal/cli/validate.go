package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/odegen/internal/compiler"
)

// ModelWarning is a dependency warning attributed to a model.
type ModelWarning struct {
	Model string `json:"model"`
	compiler.DependencyWarning
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool           `json:"valid"`
	Models   int            `json:"models"`
	Errors   []Problem      `json:"errors,omitempty"`
	Warnings []ModelWarning `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate model definitions without emitting",
		Long: `Validate every model in a CUE file or directory.

Checks structure (operators, arities, stoichiometry targets, duplicate
keys) and naming (identifiers usable in every backend), then reports
dependency cycles, unresolved names and untouched state variables as
warnings. Warnings never fail validation.

Exit codes:
  0 - All models valid
  1 - One or more models invalid
  2 - Command error (invalid path, CUE syntax error, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	res, err := loadModels(formatter, path)
	if err != nil {
		return err
	}

	result := ValidationResult{Models: len(res.Models)}
	for _, spec := range res.Models {
		formatter.VerboseLog("Validating model: %s", spec.Name)
		_, problems := checkModel(spec)
		result.Errors = append(result.Errors, problems...)
		for _, w := range compiler.AnalyzeDependencies(spec) {
			result.Warnings = append(result.Warnings, ModelWarning{Model: spec.Name, DependencyWarning: w})
		}
	}
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		return outputProblems(formatter, result.Errors, result.Warnings)
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	printWarnings(formatter, result.Warnings)
	fmt.Fprintf(formatter.Writer, "✓ %d model(s) valid\n", result.Models)
	return nil
}

// outputProblems reports validation problems and returns an ExitFailure.
func outputProblems(formatter *OutputFormatter, problems []Problem, warnings []ModelWarning) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(problems)))

	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: problems, Warnings: warnings},
			Error:  &CLIError{Code: problems[0].Code, Message: problems[0].Message},
		}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, p := range problems {
		fmt.Fprintf(formatter.Writer, "%s\n  %s %s: %s\n\n", p.Model, p.Code, p.Field, p.Message)
	}
	printWarnings(formatter, warnings)
	return exitErr
}

func printWarnings(formatter *OutputFormatter, warnings []ModelWarning) {
	for _, w := range warnings {
		if w.Level == compiler.LevelInfo && !formatter.Verbose {
			continue
		}
		fmt.Fprintf(formatter.Writer, "%s: %s: %s\n", w.Level, w.Model, w.Message)
	}
}
