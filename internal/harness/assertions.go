package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/odegen/internal/expr"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	return buf.String()
}

// DefaultTolerance is the absolute tolerance for derivative assertions.
const DefaultTolerance = 1e-9

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(h *Harness, result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(h, result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %s", i, err))
		}
	}
	return errs
}

func evaluateAssertion(h *Harness, result *Result, a Assertion) error {
	switch a.Type {
	case AssertOrder:
		return assertOrder(result.Order, a)
	case AssertDerivatives:
		return assertDerivatives(h, a)
	case AssertFreeVariables:
		return assertFreeVariables(h, a)
	case AssertWarnings:
		return assertWarnings(result, a)
	case AssertInitial:
		return assertInitial(h, a)
	case AssertEmitContains:
		return assertEmitContains(h, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertOrder(order []string, a Assertion) error {
	if slices.Equal(order, a.Order) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOrder,
		Expected: fmt.Sprintf("%v", a.Order),
		Actual:   fmt.Sprintf("%v", order),
	}
}

func assertDerivatives(h *Harness, a Assertion) error {
	sem := expr.SemanticsJS
	if a.Semantics != "" {
		var err error
		if sem, err = expr.ParseSemantics(a.Semantics); err != nil {
			return err
		}
	}
	tol := a.Tolerance
	if tol == 0 {
		tol = DefaultTolerance
	}

	got, err := h.model.Derivatives(sem, a.Time, a.State, a.Values)
	if err != nil {
		return &AssertionError{Type: AssertDerivatives, Expected: fmt.Sprintf("%v", a.Expect), Actual: err.Error()}
	}
	if len(got) != len(a.Expect) {
		return &AssertionError{
			Type:     AssertDerivatives,
			Expected: fmt.Sprintf("%d values", len(a.Expect)),
			Actual:   fmt.Sprintf("%d values %v", len(got), got),
		}
	}
	for i := range got {
		if !within(got[i], a.Expect[i], tol) {
			return &AssertionError{
				Type:     AssertDerivatives,
				Expected: fmt.Sprintf("d%sdt = %v (±%g)", h.model.VariableKeys()[i], a.Expect[i], tol),
				Actual:   fmt.Sprintf("%v", got[i]),
			}
		}
	}
	return nil
}

// within compares with an absolute tolerance; NaN matches NaN and
// infinities match by sign.
func within(got, want, tol float64) bool {
	switch {
	case math.IsNaN(want):
		return math.IsNaN(got)
	case math.IsInf(want, 0):
		return got == want
	default:
		return math.Abs(got-want) <= tol
	}
}

func assertFreeVariables(h *Harness, a Assertion) error {
	var n *expr.Node
	if asg, ok := h.model.Assignment(a.Subject); ok {
		n = asg.Expr
	} else if r, ok := h.model.Reaction(a.Subject); ok {
		n = r.Rate
	} else {
		return &AssertionError{
			Type:     AssertFreeVariables,
			Expected: fmt.Sprintf("assignment or reaction %q", a.Subject),
			Actual:   "not found",
		}
	}

	got := n.FreeVariables()
	want := slices.Clone(a.Names)
	slices.Sort(want)
	if slices.Equal(got, want) || (len(got) == 0 && len(want) == 0) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFreeVariables,
		Expected: fmt.Sprintf("%s uses %v", a.Subject, want),
		Actual:   fmt.Sprintf("%v", got),
	}
}

func assertWarnings(result *Result, a Assertion) error {
	if a.Count != nil && len(result.Warnings) != *a.Count {
		return &AssertionError{
			Type:     AssertWarnings,
			Expected: fmt.Sprintf("%d warnings", *a.Count),
			Actual:   fmt.Sprintf("%d warnings %v", len(result.Warnings), warningMessages(result)),
		}
	}
	msgs := warningMessages(result)
	for _, want := range a.Messages {
		if !slices.ContainsFunc(msgs, func(m string) bool { return strings.Contains(m, want) }) {
			return &AssertionError{
				Type:     AssertWarnings,
				Expected: fmt.Sprintf("a warning containing %q", want),
				Actual:   fmt.Sprintf("%v", msgs),
			}
		}
	}
	return nil
}

func warningMessages(result *Result) []string {
	msgs := make([]string, len(result.Warnings))
	for i, w := range result.Warnings {
		msgs[i] = w.Message
	}
	return msgs
}

func assertInitial(h *Harness, a Assertion) error {
	ics := h.model.InitialConditions()
	got := make(map[string]float64, len(ics))
	for _, ic := range ics {
		got[ic.Name] = ic.Value
	}
	if len(got) != len(a.Initial) {
		return &AssertionError{Type: AssertInitial, Expected: fmt.Sprintf("%v", a.Initial), Actual: fmt.Sprintf("%v", got)}
	}
	for k, want := range a.Initial {
		if v, ok := got[k]; !ok || v != want {
			return &AssertionError{Type: AssertInitial, Expected: fmt.Sprintf("%s = %v", k, want), Actual: fmt.Sprintf("%v", got)}
		}
	}
	return nil
}

func assertEmitContains(h *Harness, a Assertion) error {
	b, err := expr.ParseBackend(a.Backend)
	if err != nil {
		return err
	}
	src, err := h.emit(b)
	if err != nil {
		return &AssertionError{Type: AssertEmitContains, Expected: "successful emission", Actual: err.Error()}
	}
	for _, want := range a.Contains {
		if !strings.Contains(src, want) {
			return &AssertionError{
				Type:     AssertEmitContains,
				Expected: fmt.Sprintf("%s source containing %q", b, want),
				Actual:   src,
			}
		}
	}
	return nil
}
