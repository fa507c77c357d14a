package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/odegen/internal/expr"
)

// InitialCondition is the starting value of one state variable.
type InitialCondition struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// InitialConditions returns the initial values in state-vector order,
// keyed by internal identifier.
func (m *Model) InitialConditions() []InitialCondition {
	out := make([]InitialCondition, 0, m.variables.Len())
	for pair := m.variables.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, InitialCondition{Name: pair.Key, Value: pair.Value.Value})
	}
	return out
}

// Emit renders the model for backend b.
//
// For the imperative backends the result is a function
// model(time, variables, <params...>) returning the derivative vector in
// state-variable order, followed by a y0 initial-condition mapping.
// Constants named in params become arguments; the rest are inlined.
// For BackendTeX the result is an align* block with one d/dt row per state
// variable.
//
// The model is validated first; a failing model yields ValidationErrors.
func (m *Model) Emit(b expr.Backend, params []string) (string, error) {
	errs := m.Validate()
	errs = append(errs, m.checkParameters(params)...)
	if len(errs) > 0 {
		return "", ValidationErrors(errs)
	}

	e := emission{
		model:  m,
		names:  m.NameMap(b),
		params: params,
		order:  m.SortDependencies(),
		// folded right-hand sides are transient; keep the model's arena clean
		scratch: expr.NewDoc(),
	}
	switch b {
	case expr.BackendPython:
		return e.python(), nil
	case expr.BackendJS:
		return e.js(), nil
	case expr.BackendTeX:
		return e.tex(), nil
	default:
		return "", fmt.Errorf("emit: unsupported backend %s", b)
	}
}

type emission struct {
	model   *Model
	names   expr.Names
	params  []string
	order   []string
	scratch *expr.Doc
}

// statement is one "name = rendered expression" line.
type statement struct {
	name string
	rhs  string
}

func (e emission) constants(b expr.Backend) []statement {
	skip := make(map[string]bool, len(e.params))
	for _, p := range e.params {
		skip[p] = true
	}
	var out []statement
	for pair := e.model.constants.Oldest(); pair != nil; pair = pair.Next() {
		if skip[pair.Key] {
			continue
		}
		out = append(out, statement{e.names.Resolve(pair.Key), expr.Literal(pair.Value.Value, b)})
	}
	return out
}

func (e emission) derived(b expr.Backend) []statement {
	out := make([]statement, 0, len(e.order))
	for _, key := range e.order {
		var n *expr.Node
		if a, ok := e.model.assignments.Get(key); ok {
			n = a.Expr
		} else {
			r, _ := e.model.reactions.Get(key)
			n = r.Rate
		}
		out = append(out, statement{e.names.Resolve(key), expr.Render(n, b, e.names)})
	}
	return out
}

func (e emission) derivatives(b expr.Backend) []statement {
	keys := e.model.VariableKeys()
	out := make([]statement, len(keys))
	for i, key := range keys {
		rhs := e.model.DerivativeExpr(e.scratch, key)
		out[i] = statement{"d" + e.names.Resolve(key) + "dt", expr.Render(rhs, b, e.names)}
	}
	return out
}

func (e emission) stateNames() []string {
	keys := e.model.VariableKeys()
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = e.names.Resolve(key)
	}
	return out
}

func (e emission) y0(b expr.Backend) string {
	parts := make([]string, 0, e.model.variables.Len())
	for pair := e.model.variables.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, strconv.Quote(e.names.Resolve(pair.Key))+": "+expr.Literal(pair.Value.Value, b))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (e emission) python() string {
	const indent = "    "
	b := expr.BackendPython
	var sb strings.Builder

	sb.WriteString("import math\n\n\n")
	sb.WriteString("def model(\n")
	sb.WriteString(indent + "time: float,\n")
	sb.WriteString(indent + "variables: list[float],\n")
	for _, p := range e.params {
		sb.WriteString(indent + e.names.Resolve(p) + ": float,\n")
	}
	sb.WriteString("):\n")

	if state := e.stateNames(); len(state) > 0 {
		unpack := strings.Join(state, ", ")
		if len(state) == 1 {
			unpack += ","
		}
		sb.WriteString(indent + unpack + " = variables\n")
	}

	derivs := e.derivatives(b)
	for _, group := range [][]statement{e.constants(b), e.derived(b), derivs} {
		for _, s := range group {
			sb.WriteString(indent + s.name + " = " + s.rhs + "\n")
		}
	}

	out := make([]string, len(derivs))
	for i, s := range derivs {
		out[i] = s.name
	}
	sb.WriteString(indent + "return [" + strings.Join(out, ", ") + "]\n")
	sb.WriteString("\n\ny0 = " + e.y0(b) + "\n")
	return sb.String()
}

func (e emission) js() string {
	const indent = "  "
	b := expr.BackendJS
	var sb strings.Builder

	args := append([]string{"time", "variables"}, e.params...)
	sb.WriteString("function model(" + strings.Join(args, ", ") + ") {\n")

	if state := e.stateNames(); len(state) > 0 {
		sb.WriteString(indent + "const [" + strings.Join(state, ", ") + "] = variables;\n")
	}

	derivs := e.derivatives(b)
	for _, group := range [][]statement{e.constants(b), e.derived(b), derivs} {
		for _, s := range group {
			sb.WriteString(indent + "const " + s.name + " = " + s.rhs + ";\n")
		}
	}

	out := make([]string, len(derivs))
	for i, s := range derivs {
		out[i] = s.name
	}
	sb.WriteString(indent + "return [" + strings.Join(out, ", ") + "];\n")
	sb.WriteString("}\n\nconst y0 = " + e.y0(b) + ";\n")
	return sb.String()
}

func (e emission) tex() string {
	keys := e.model.VariableKeys()
	rows := make([]string, len(keys))
	for i, key := range keys {
		rhs := e.model.DerivativeRateExpr(e.scratch, key)
		rows[i] = fmt.Sprintf(`\frac{d %s}{dt} &= %s`, e.names.Resolve(key), rhs.TeX(e.names))
	}
	return "\\begin{align*}\n" + strings.Join(rows, " \\\\\n") + "\n\\end{align*}\n"
}
