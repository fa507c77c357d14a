package model

import (
	"fmt"

	"github.com/roach88/odegen/internal/expr"
)

// Derivatives evaluates the right-hand side in-process with the reference
// evaluator, following the same order and folded sums as Emit.
//
// state is the packed state vector in declaration order; params overrides
// constant values by key. The reserved name "time" is bound to t.
func (m *Model) Derivatives(sem expr.Semantics, t float64, state []float64, params map[string]float64) ([]float64, error) {
	if len(state) != m.variables.Len() {
		return nil, fmt.Errorf("derivatives: state has %d values, model has %d variables", len(state), m.variables.Len())
	}

	env := make(expr.Env, m.constants.Len()+m.variables.Len()+m.assignments.Len()+m.reactions.Len()+1)
	env[TimeName] = t
	for pair := m.constants.Oldest(); pair != nil; pair = pair.Next() {
		env[pair.Key] = pair.Value.Value
	}
	for key, v := range params {
		if _, ok := m.constants.Get(key); !ok {
			return nil, fmt.Errorf("derivatives: parameter %q is not a constant", key)
		}
		env[key] = v
	}
	i := 0
	for pair := m.variables.Oldest(); pair != nil; pair = pair.Next() {
		env[pair.Key] = state[i]
		i++
	}

	for _, key := range m.SortDependencies() {
		var n *expr.Node
		if a, ok := m.assignments.Get(key); ok {
			n = a.Expr
		} else {
			r, _ := m.reactions.Get(key)
			n = r.Rate
		}
		v, err := expr.Eval(n, env, sem)
		if err != nil {
			return nil, fmt.Errorf("derivatives: %s: %w", key, err)
		}
		env[key] = v
	}

	scratch := expr.NewDoc()
	out := make([]float64, 0, m.variables.Len())
	for pair := m.variables.Oldest(); pair != nil; pair = pair.Next() {
		v, err := expr.Eval(m.DerivativeExpr(scratch, pair.Key), env, sem)
		if err != nil {
			return nil, fmt.Errorf("derivatives: d%sdt: %w", pair.Key, err)
		}
		out = append(out, v)
	}
	return out, nil
}
