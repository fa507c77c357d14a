package expr

import (
	"errors"
	"fmt"
	"math"
)

// Semantics selects whose numeric rules Eval follows.
type Semantics uint8

const (
	// SemanticsJS follows JavaScript: truncating integer division, NaN and
	// Infinity instead of exceptions.
	SemanticsJS Semantics = iota
	// SemanticsPython follows Python: flooring integer division, divisor-signed
	// remainder, ZeroDivisionError and math domain errors.
	SemanticsPython
)

func (s Semantics) String() string {
	if s == SemanticsPython {
		return "python"
	}
	return "js"
}

// ParseSemantics accepts "js" or "python".
func ParseSemantics(s string) (Semantics, error) {
	b, err := ParseBackend(s)
	if err != nil || b == BackendTeX {
		return 0, fmt.Errorf("unknown semantics %q (want js or python)", s)
	}
	return SemanticsOf(b), nil
}

// SemanticsOf returns the numeric semantics of an imperative backend.
func SemanticsOf(b Backend) Semantics {
	if b == BackendPython {
		return SemanticsPython
	}
	return SemanticsJS
}

var (
	ErrUnbound      = errors.New("unbound name")
	ErrUnsupported  = errors.New("not evaluable in-process")
	ErrZeroDivision = errors.New("division by zero")
	ErrDomain       = errors.New("math domain error")
)

// EvalError reports the node at which evaluation failed.
type EvalError struct {
	Node   ID
	Kind   Kind
	Err    error
	Detail string
}

func (e *EvalError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("eval %s (node %d): %v: %s", e.Kind, e.Node, e.Err, e.Detail)
	}
	return fmt.Sprintf("eval %s (node %d): %v", e.Kind, e.Node, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Env binds names to values during evaluation.
type Env map[string]float64

// Eval computes the value the rendered imperative expression would produce
// under the given semantics. Booleans evaluate to 1 and 0; && and || return
// an operand value as both targets do.
func Eval(n *Node, env Env, sem Semantics) (float64, error) {
	ev := evaluator{env: env, sem: sem}
	return ev.eval(n)
}

type evaluator struct {
	env Env
	sem Semantics
}

func (ev evaluator) fail(n *Node, err error, detail string) error {
	return &EvalError{Node: n.id, Kind: n.kind, Err: err, Detail: detail}
}

func (ev evaluator) truthy(v float64) bool {
	if math.IsNaN(v) {
		return ev.sem == SemanticsPython
	}
	return v != 0
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (ev evaluator) all(cs []*Node) ([]float64, error) {
	out := make([]float64, len(cs))
	for i, c := range cs {
		v, err := ev.eval(c)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (ev evaluator) eval(n *Node) (float64, error) {
	switch n.kind.Shape() {
	case ShapeNullary:
		if n.kind == KindNum {
			return n.value, nil
		}
		v, ok := ev.env[n.name]
		if !ok {
			return 0, ev.fail(n, ErrUnbound, n.name)
		}
		return v, nil
	case ShapeUnary:
		x, err := ev.eval(n.children[0])
		if err != nil {
			return 0, err
		}
		return ev.unary(n, x)
	case ShapeIrregular, ShapeBinary:
		vs, err := ev.all(n.children)
		if err != nil {
			return 0, err
		}
		return ev.pair(n, vs[0], vs[1])
	case ShapeNary:
		return ev.nary(n)
	}
	return 0, ev.fail(n, ErrUnsupported, "invalid kind")
}

func (ev evaluator) checkDomain(n *Node, in, out float64) (float64, error) {
	if ev.sem == SemanticsPython && math.IsNaN(out) && !math.IsNaN(in) {
		return 0, ev.fail(n, ErrDomain, FormatNumber(in))
	}
	return out, nil
}

func (ev evaluator) unary(n *Node, x float64) (float64, error) {
	var out float64
	switch n.kind {
	case KindAbs:
		out = math.Abs(x)
	case KindCeiling:
		out = math.Ceil(x)
	case KindExp:
		out = math.Exp(x)
	case KindFactorial:
		if x < 0 || x != math.Trunc(x) {
			return 0, ev.fail(n, ErrDomain, "factorial of "+FormatNumber(x))
		}
		out = math.Gamma(x + 1)
	case KindFloor:
		out = math.Floor(x)
	case KindLn:
		if ev.sem == SemanticsPython && x <= 0 {
			return 0, ev.fail(n, ErrDomain, FormatNumber(x))
		}
		out = math.Log(x)
	case KindSin:
		out = math.Sin(x)
	case KindCos:
		out = math.Cos(x)
	case KindTan:
		out = math.Tan(x)
	case KindSec:
		out = 1 / math.Cos(x)
	case KindCsc:
		out = 1 / math.Sin(x)
	case KindCot:
		out = 1 / math.Tan(x)
	case KindAsin:
		out = math.Asin(x)
	case KindAcos:
		out = math.Acos(x)
	case KindAtan:
		out = math.Atan(x)
	case KindAcot:
		out = math.Atan(1 / x)
	case KindAsec:
		out = math.Acos(1 / x)
	case KindAcsc:
		out = math.Asin(1 / x)
	case KindSinh:
		out = math.Sinh(x)
	case KindCosh:
		out = math.Cosh(x)
	case KindTanh:
		out = math.Tanh(x)
	case KindSech:
		out = 1 / math.Cosh(x)
	case KindCsch:
		out = 1 / math.Sinh(x)
	case KindCoth:
		out = 1 / math.Tanh(x)
	case KindAsinh:
		out = math.Asinh(x)
	case KindAcosh:
		out = math.Acosh(x)
	case KindAtanh:
		out = math.Atanh(x)
	case KindAcsch:
		out = math.Asinh(1 / x)
	case KindAsech:
		out = math.Acosh(1 / x)
	case KindAcoth:
		out = math.Atanh(1 / x)
	case KindRateOf:
		return 0, ev.fail(n, ErrUnsupported, "rate of change is resolved by the integrator")
	default:
		return 0, ev.fail(n, ErrUnsupported, "")
	}
	return ev.checkDomain(n, x, out)
}

func (ev evaluator) pair(n *Node, a, b float64) (float64, error) {
	switch n.kind {
	case KindLog:
		if ev.sem == SemanticsPython && (a <= 0 || b <= 0 || b == 1) {
			return 0, ev.fail(n, ErrDomain, fmt.Sprintf("log(%s, %s)", FormatNumber(a), FormatNumber(b)))
		}
		return math.Log(a) / math.Log(b), nil
	case KindRoot:
		if ev.sem == SemanticsPython && b == 0 {
			return 0, ev.fail(n, ErrZeroDivision, "root index")
		}
		return ev.checkDomain(n, a, math.Pow(a, 1/b))
	case KindPow:
		if ev.sem == SemanticsPython && a == 0 && b < 0 {
			return 0, ev.fail(n, ErrZeroDivision, "zero to a negative power")
		}
		if ev.sem == SemanticsPython && a < 0 && b != math.Trunc(b) && !math.IsInf(b, 0) {
			return 0, ev.fail(n, ErrDomain, "complex result")
		}
		return math.Pow(a, b), nil
	case KindImplies:
		if !ev.truthy(a) {
			return 1, nil
		}
		return b, nil
	}
	return 0, ev.fail(n, ErrUnsupported, "")
}

func (ev evaluator) nary(n *Node) (float64, error) {
	cs := n.children
	switch n.kind {
	case KindAnd:
		return ev.shortCircuit(cs, false)
	case KindOr:
		return ev.shortCircuit(cs, true)
	case KindNot:
		v, err := ev.shortCircuit(cs, false)
		if err != nil {
			return 0, err
		}
		if len(cs) == 0 {
			v = 0
		}
		return boolValue(!ev.truthy(v)), nil
	case KindPiecewise:
		return 0, ev.fail(n, ErrUnsupported, "piecewise is resolved by the execution runtime")
	}

	vs, err := ev.all(cs)
	if err != nil {
		return 0, err
	}

	if n.kind.IsComparison() {
		strict := ev.sem == SemanticsJS && (n.kind == KindEq || n.kind == KindNotEqual)
		for i := 1; i < len(vs); i++ {
			ok := compare(n.kind, vs[i-1], vs[i])
			if strict {
				if mixed, err := ev.mixedTypes(cs[i-1], cs[i]); err != nil {
					return 0, err
				} else if mixed {
					// === never holds across boolean and number
					ok = n.kind == KindNotEqual
				}
			}
			if !ok {
				return 0, nil
			}
		}
		return 1, nil
	}

	switch n.kind {
	case KindAdd:
		sum := 0.0
		for _, v := range vs {
			sum += v
		}
		return sum, nil
	case KindMul:
		prod := 1.0
		for _, v := range vs {
			prod *= v
		}
		return prod, nil
	case KindMinus:
		switch len(vs) {
		case 0:
			return 0, nil
		case 1:
			return -vs[0], nil
		}
		acc := vs[0]
		for _, v := range vs[1:] {
			acc -= v
		}
		return acc, nil
	case KindXor:
		// ^ is bitwise in both targets; booleans act as 0 and 1
		var acc int64
		for _, v := range vs {
			if ev.sem == SemanticsJS {
				acc = int64(toInt32(float64(acc)) ^ toInt32(v))
				continue
			}
			if v != math.Trunc(v) || math.IsInf(v, 0) {
				return 0, ev.fail(n, ErrDomain, "^ needs integer operands, got "+FormatNumber(v))
			}
			acc ^= int64(v)
		}
		return float64(acc), nil
	case KindMax, KindMin:
		return extremum(n.kind, vs), nil
	case KindDivide, KindIntDivide, KindRem:
		if len(vs) == 0 {
			return 0, nil
		}
		acc := vs[0]
		for _, v := range vs[1:] {
			if ev.sem == SemanticsPython && v == 0 {
				return 0, ev.fail(n, ErrZeroDivision, "")
			}
			acc = ev.divStep(n.kind, acc, v)
		}
		if n.kind == KindIntDivide && ev.sem == SemanticsJS {
			return math.Trunc(acc), nil
		}
		return acc, nil
	}
	return 0, ev.fail(n, ErrUnsupported, "")
}

func (ev evaluator) divStep(k Kind, a, b float64) float64 {
	switch k {
	case KindIntDivide:
		if ev.sem == SemanticsPython {
			return floorDiv(a, b)
		}
		return a / b
	case KindRem:
		r := math.Mod(a, b)
		if ev.sem == SemanticsPython && r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return r
	default:
		return a / b
	}
}

// floorDiv is Python's float floor division: the quotient is derived
// from fmod, so 1 // 0.1 is 9 rather than floor(1 / 0.1).
func floorDiv(a, b float64) float64 {
	mod := math.Mod(a, b)
	div := (a - mod) / b
	if mod != 0 && (b < 0) != (mod < 0) {
		div--
	}
	if div == 0 {
		return math.Copysign(0, a/b)
	}
	q := math.Floor(div)
	if div-q > 0.5 {
		q++
	}
	return q
}

// shortCircuit evaluates && (stopOn false) or || (stopOn true), returning
// the operand that decided the result.
func (ev evaluator) shortCircuit(cs []*Node, stopOn bool) (float64, error) {
	if len(cs) == 0 {
		return boolValue(!stopOn), nil
	}
	var v float64
	for _, c := range cs {
		var err error
		v, err = ev.eval(c)
		if err != nil {
			return 0, err
		}
		if ev.truthy(v) == stopOn {
			return v, nil
		}
	}
	return v, nil
}

func (ev evaluator) mixedTypes(a, b *Node) (bool, error) {
	ab, err := ev.isBoolean(a)
	if err != nil {
		return false, err
	}
	bb, err := ev.isBoolean(b)
	if err != nil {
		return false, err
	}
	return ab != bb, nil
}

// isBoolean reports whether the JavaScript rendering of n yields a
// boolean rather than a number. && and || yield whichever operand decided
// them, so the answer can depend on the values.
func (ev evaluator) isBoolean(n *Node) (bool, error) {
	switch {
	case n.kind.IsComparison(), n.kind == KindNot:
		return true, nil
	case n.kind == KindImplies:
		a, err := ev.eval(n.children[0])
		if err != nil {
			return false, err
		}
		if !ev.truthy(a) {
			return true, nil
		}
		return ev.isBoolean(n.children[1])
	case n.kind == KindAnd, n.kind == KindOr:
		if len(n.children) == 0 {
			return true, nil
		}
		stopOn := n.kind == KindOr
		for _, c := range n.children[:len(n.children)-1] {
			v, err := ev.eval(c)
			if err != nil {
				return false, err
			}
			if ev.truthy(v) == stopOn {
				return ev.isBoolean(c)
			}
		}
		return ev.isBoolean(n.children[len(n.children)-1])
	}
	return false, nil
}

// toInt32 is the ECMAScript ToInt32 conversion used by bitwise operators.
func toInt32(v float64) int32 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int32(uint32(int64(math.Mod(math.Trunc(v), 1<<32))))
}

func compare(k Kind, a, b float64) bool {
	switch k {
	case KindEq:
		return a == b
	case KindNotEqual:
		return a != b
	case KindLess:
		return a < b
	case KindLessEqual:
		return a <= b
	case KindGreater:
		return a > b
	default:
		return a >= b
	}
}

func extremum(k Kind, vs []float64) float64 {
	if k == KindMax {
		acc := math.Inf(-1)
		for _, v := range vs {
			acc = math.Max(acc, v)
		}
		return acc
	}
	acc := math.Inf(1)
	for _, v := range vs {
		acc = math.Min(acc, v)
	}
	return acc
}
