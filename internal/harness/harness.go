package harness

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/odegen/internal/compiler"
	"github.com/roach88/odegen/internal/expr"
	"github.com/roach88/odegen/internal/ir"
	"github.com/roach88/odegen/internal/logging"
	"github.com/roach88/odegen/internal/model"
)

// Harness holds the assembled model a scenario runs against.
type Harness struct {
	spec    ir.ModelSpec
	model   *model.Model
	params  []string
	emitted map[expr.Backend]string
	logger  *slog.Logger
}

// Run executes a scenario with logging discarded.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, logging.NewNop())
}

// RunWithLogger executes a scenario and returns the result.
//
// Execution flow:
//  1. Load every CUE path and select the model
//  2. Validate the model definition and assemble the model
//  3. Sort dependencies and analyze warnings
//  4. Emit each golden backend
//  5. Evaluate assertions
//
// An error is returned when the scenario cannot run at all (unreadable
// models, invalid model, emission failure); failed assertions are
// reported on the Result instead.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	spec, err := loadModel(scenario)
	if err != nil {
		return nil, err
	}

	if errs := compiler.Validate(spec); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("model %s is invalid: %s", spec.Name, strings.Join(msgs, "; "))
	}

	m, err := compiler.BuildModel(spec, expr.NewDoc())
	if err != nil {
		return nil, fmt.Errorf("failed to assemble model %s: %w", spec.Name, err)
	}
	if errs := m.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("model %s is invalid: %w", spec.Name, model.ValidationErrors(errs))
	}

	hash, err := ir.ModelHash(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to hash model %s: %w", spec.Name, err)
	}

	h := &Harness{
		spec:    spec,
		model:   m,
		params:  scenario.Params,
		emitted: make(map[expr.Backend]string),
		logger:  logger,
	}

	result := NewResult()
	result.Model = spec.Name
	result.Hash = hash
	result.Order = m.SortDependencies()
	result.Warnings = compiler.AnalyzeDependencies(spec)

	for _, name := range scenario.Golden {
		b, err := expr.ParseBackend(name)
		if err != nil {
			return nil, err
		}
		src, err := h.emit(b)
		if err != nil {
			return nil, err
		}
		result.Emitted[b.String()] = src
	}

	for _, msg := range EvaluateAssertions(h, result, scenario.Assertions) {
		result.AddError(msg)
	}

	logger.Info("scenario completed",
		"scenario", scenario.Name,
		"model", spec.Name,
		"hash", hash,
		"pass", result.Pass,
	)
	return result, nil
}

// emit returns the source for b, emitting it once per run.
func (h *Harness) emit(b expr.Backend) (string, error) {
	if src, ok := h.emitted[b]; ok {
		return src, nil
	}
	var params []string
	if b != expr.BackendTeX {
		params = h.params
	}
	src, err := h.model.Emit(b, params)
	if err != nil {
		return "", fmt.Errorf("failed to emit %s: %w", b, err)
	}
	h.emitted[b] = src
	h.logger.Debug("emitted", "backend", b.String(), "bytes", len(src))
	return src, nil
}

// loadModel loads every path in the scenario and selects the named model.
func loadModel(s *Scenario) (ir.ModelSpec, error) {
	all := &compiler.LoadResult{}
	for _, p := range s.Models {
		res, err := compiler.Load(p)
		if err != nil {
			return ir.ModelSpec{}, fmt.Errorf("failed to load %s: %w", p, err)
		}
		all.Models = append(all.Models, res.Models...)
		all.FileCount += res.FileCount
	}
	return all.Model(s.Model)
}
