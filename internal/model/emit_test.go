package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/odegen/internal/expr"
)

// lotkaVolterra builds prey/predator dynamics:
//
//	dprey/dt     = alpha*prey - beta*prey*predator
//	dpredator/dt = delta*prey*predator - gamma*predator
func lotkaVolterra(t *testing.T) *Model {
	t.Helper()
	d := expr.NewDoc()
	m := New("lotka_volterra", d)

	require.NoError(t, m.AddConstant("alpha", Constant{Value: 1.1, TexName: `\alpha`}))
	require.NoError(t, m.AddConstant("beta", Constant{Value: 0.4, TexName: `\beta`}))
	require.NoError(t, m.AddConstant("delta", Constant{Value: 0.1, TexName: `\delta`}))
	require.NoError(t, m.AddConstant("gamma", Constant{Value: 0.4, TexName: `\gamma`}))
	require.NoError(t, m.AddVariable("prey", StateVariable{Value: 10, TexName: "N"}))
	require.NoError(t, m.AddVariable("predator", StateVariable{Value: 5, TexName: "P"}))

	prey, predator := func() *expr.Node { return d.Name("prey") }, func() *expr.Node { return d.Name("predator") }
	require.NoError(t, m.AddReaction("growth", Reaction{
		Rate:          d.Mul(d.Name("alpha"), prey()),
		Stoichiometry: []Stoich{{"prey", 1}},
	}))
	require.NoError(t, m.AddReaction("predation", Reaction{
		Rate:          d.Mul(d.Name("beta"), prey(), predator()),
		Stoichiometry: []Stoich{{"prey", -1}},
	}))
	require.NoError(t, m.AddReaction("conversion", Reaction{
		Rate:          d.Mul(d.Name("delta"), prey(), predator()),
		Stoichiometry: []Stoich{{"predator", 1}},
	}))
	require.NoError(t, m.AddReaction("death", Reaction{
		Rate:          d.Mul(d.Name("gamma"), predator()),
		Stoichiometry: []Stoich{{"predator", -1}},
	}))
	return m
}

// TestEmit_Python tests the full Python source.
func TestEmit_Python(t *testing.T) {
	m := lotkaVolterra(t)

	got, err := m.Emit(expr.BackendPython, []string{"alpha", "beta"})
	require.NoError(t, err)

	want := `import math


def model(
    time: float,
    variables: list[float],
    alpha: float,
    beta: float,
):
    prey, predator = variables
    delta = 0.1
    gamma = 0.4
    growth = alpha * prey
    predation = beta * prey * predator
    conversion = delta * prey * predator
    death = gamma * predator
    dpreydt = growth - predation
    dpredatordt = conversion - death
    return [dpreydt, dpredatordt]


y0 = {"prey": 10, "predator": 5}
`
	assert.Equal(t, want, got)
}

// TestEmit_JS tests the full JavaScript source.
func TestEmit_JS(t *testing.T) {
	m := lotkaVolterra(t)

	got, err := m.Emit(expr.BackendJS, []string{"alpha", "beta"})
	require.NoError(t, err)

	want := `function model(time, variables, alpha, beta) {
  const [prey, predator] = variables;
  const delta = 0.1;
  const gamma = 0.4;
  const growth = alpha * prey;
  const predation = beta * prey * predator;
  const conversion = delta * prey * predator;
  const death = gamma * predator;
  const dpreydt = growth - predation;
  const dpredatordt = conversion - death;
  return [dpreydt, dpredatordt];
}

const y0 = {"prey": 10, "predator": 5};
`
	assert.Equal(t, want, got)
}

// TestEmit_TeX tests the aligned equation block with typeset names.
func TestEmit_TeX(t *testing.T) {
	m := lotkaVolterra(t)

	got, err := m.Emit(expr.BackendTeX, nil)
	require.NoError(t, err)

	want := `\begin{align*}
\frac{d N}{dt} &= \alpha \cdot N - \beta \cdot N \cdot P \\
\frac{d P}{dt} &= \delta \cdot N \cdot P - \gamma \cdot P
\end{align*}
`
	assert.Equal(t, want, got)
}

// TestEmit_DisplayNamesThreaded tests that one display name is used everywhere.
func TestEmit_DisplayNamesThreaded(t *testing.T) {
	d := expr.NewDoc()
	m := New("decay", d)
	require.NoError(t, m.AddConstant("k1", Constant{Value: 0.5, DisplayName: "k_decay"}))
	require.NoError(t, m.AddVariable("s1", StateVariable{Value: 2, DisplayName: "substrate"}))
	require.NoError(t, m.AddAssignment("a1", Assignment{Expr: d.Mul(d.Name("k1"), d.Name("s1")), DisplayName: "flux"}))
	require.NoError(t, m.AddReaction("r1", Reaction{Rate: d.Name("a1"), Stoichiometry: []Stoich{{"s1", -2}}}))

	got, err := m.Emit(expr.BackendPython, []string{"k1"})
	require.NoError(t, err)

	want := `import math


def model(
    time: float,
    variables: list[float],
    k_decay: float,
):
    substrate, = variables
    flux = k_decay * substrate
    r1 = flux
    dsubstratedt = (-2) * r1
    return [dsubstratedt]


y0 = {"substrate": 2}
`
	assert.Equal(t, want, got)

	js, err := m.Emit(expr.BackendJS, nil)
	require.NoError(t, err)
	assert.Contains(t, js, "const k1 = 0.5;\n")
	assert.Contains(t, js, "const a1 = k1 * s1;\n")
	assert.Contains(t, js, "const ds1dt = (-2) * r1;\n")
}

// TestEmit_UntouchedStateIsZero tests that a variable without reactions has a zero derivative.
func TestEmit_UntouchedStateIsZero(t *testing.T) {
	m := New("still", nil)
	require.NoError(t, m.AddVariable("x", StateVariable{Value: 1}))

	got, err := m.Emit(expr.BackendJS, nil)
	require.NoError(t, err)
	assert.Contains(t, got, "const dxdt = 0;\n")

	tex, err := m.Emit(expr.BackendTeX, nil)
	require.NoError(t, err)
	assert.Contains(t, tex, `\frac{d x}{dt} &= 0`)
}

// TestEmit_RejectsInvalidModel tests that validation errors are returned.
func TestEmit_RejectsInvalidModel(t *testing.T) {
	m := lotkaVolterra(t)

	_, err := m.Emit(expr.BackendPython, []string{"prey"})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, ErrUnknownParameter, verrs[0].Code)
}

// TestEmit_LeavesDocUntouched tests that emission does not allocate in the model's arena.
func TestEmit_LeavesDocUntouched(t *testing.T) {
	m := lotkaVolterra(t)
	before := m.Doc().Last()

	_, err := m.Emit(expr.BackendTeX, nil)
	require.NoError(t, err)
	assert.Equal(t, before, m.Doc().Last())
}

// TestInitialConditions tests state-vector order.
func TestInitialConditions(t *testing.T) {
	m := lotkaVolterra(t)
	assert.Equal(t, []InitialCondition{{"prey", 10}, {"predator", 5}}, m.InitialConditions())
}

// TestDerivatives_MatchClosedForm tests the emitted right-hand side against the Lotka-Volterra equations.
func TestDerivatives_MatchClosedForm(t *testing.T) {
	m := lotkaVolterra(t)
	alpha, beta, delta, gamma := 1.1, 0.4, 0.1, 0.4

	for _, sem := range []expr.Semantics{expr.SemanticsJS, expr.SemanticsPython} {
		for _, pt := range [][2]float64{{10, 5}, {3, 7}, {0.5, 0.25}} {
			x, y := pt[0], pt[1]
			got, err := m.Derivatives(sem, 0, []float64{x, y}, nil)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.InDelta(t, alpha*x-beta*x*y, got[0], 1e-12)
			assert.InDelta(t, delta*x*y-gamma*y, got[1], 1e-12)
		}
	}
}

// TestDerivatives_Parameters tests parameter overrides and input checks.
func TestDerivatives_Parameters(t *testing.T) {
	m := lotkaVolterra(t)

	got, err := m.Derivatives(expr.SemanticsJS, 0, []float64{10, 5}, map[string]float64{"alpha": 2})
	require.NoError(t, err)
	assert.InDelta(t, 2*10-0.4*10*5, got[0], 1e-12)

	_, err = m.Derivatives(expr.SemanticsJS, 0, []float64{10}, nil)
	assert.Error(t, err)

	_, err = m.Derivatives(expr.SemanticsJS, 0, []float64{10, 5}, map[string]float64{"prey": 1})
	assert.Error(t, err)
}

// TestDerivatives_Time tests that time-dependent expressions see t.
func TestDerivatives_Time(t *testing.T) {
	d := expr.NewDoc()
	m := New("forced", d)
	require.NoError(t, m.AddVariable("x", StateVariable{}))
	require.NoError(t, m.AddReaction("drive", Reaction{Rate: d.Name(TimeName), Stoichiometry: []Stoich{{"x", 1}}}))

	got, err := m.Derivatives(expr.SemanticsPython, 3, []float64{0}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, got)
}
