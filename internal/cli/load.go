package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/odegen/internal/compiler"
	"github.com/roach88/odegen/internal/expr"
	"github.com/roach88/odegen/internal/ir"
	"github.com/roach88/odegen/internal/model"
)

// Problem is one validation error attributed to a model.
type Problem struct {
	Model   string `json:"model"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// loadedModel is a compiled and assembled model.
type loadedModel struct {
	spec  ir.ModelSpec
	model *model.Model
}

// loadModels loads every model at path, reporting load failures through f.
func loadModels(f *OutputFormatter, path string) (*compiler.LoadResult, error) {
	res, err := compiler.Load(path)
	if err != nil {
		var le *compiler.LoadError
		if errors.As(err, &le) {
			return nil, f.Fail(ExitCommandError, le.Code, loadErrorMessage(le))
		}
		return nil, f.Fail(ExitCommandError, compiler.ErrCodeGeneric, err.Error())
	}
	f.VerboseLog("Found %d CUE file(s) in %s", res.FileCount, path)
	return res, nil
}

// loadModel loads path, selects one model by name and assembles it.
// Validation problems are reported and returned as an ExitFailure.
func loadModel(f *OutputFormatter, path, name string) (*loadedModel, error) {
	res, err := loadModels(f, path)
	if err != nil {
		return nil, err
	}
	spec, err := res.Model(name)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeModel, err.Error())
	}

	m, problems := checkModel(spec)
	if len(problems) > 0 {
		return nil, outputProblems(f, problems, nil)
	}
	return &loadedModel{spec: spec, model: m}, nil
}

// checkModel runs structural validation, assembles the model and runs
// naming validation. The model is nil when any problem was found.
func checkModel(spec ir.ModelSpec) (*model.Model, []Problem) {
	var problems []Problem
	for _, e := range compiler.Validate(spec) {
		problems = append(problems, Problem{Model: spec.Name, Field: e.Field, Code: e.Code, Message: e.Message})
	}
	if len(problems) > 0 {
		return nil, problems
	}

	m, err := compiler.BuildModel(spec, expr.NewDoc())
	if err != nil {
		return nil, []Problem{{Model: spec.Name, Field: "model", Code: ErrCodeModel, Message: err.Error()}}
	}
	for _, e := range m.Validate() {
		problems = append(problems, Problem{Model: spec.Name, Field: e.Field, Code: e.Code, Message: e.Message})
	}
	if len(problems) > 0 {
		return nil, problems
	}
	return m, nil
}

// modelProblems converts emission validation errors to problems.
func modelProblems(name string, err error) ([]Problem, bool) {
	var verrs model.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	problems := make([]Problem, len(verrs))
	for i, e := range verrs {
		problems[i] = Problem{Model: name, Field: e.Field, Code: e.Code, Message: e.Message}
	}
	return problems, true
}

// logWarnings logs dependency warnings: cycles and unresolved names at
// warn level, informational notes at debug level.
func logWarnings(logger *slog.Logger, spec ir.ModelSpec) []compiler.DependencyWarning {
	warnings := compiler.AnalyzeDependencies(spec)
	for _, w := range warnings {
		level := slog.LevelWarn
		if w.Level == compiler.LevelInfo {
			level = slog.LevelDebug
		}
		logger.Log(context.Background(), level, "dependency", "model", spec.Name, "subject", w.Subject, "detail", w.Message)
	}
	return warnings
}

func loadErrorMessage(le *compiler.LoadError) string {
	if le.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", le.Pos.Filename(), le.Pos.Line(), le.Pos.Column(), le.Message)
	}
	return le.Message
}
