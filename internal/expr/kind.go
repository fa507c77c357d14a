package expr

import "fmt"

// Kind is the discriminant of a Node.
//
// The set of kinds is closed: every switch over Kind in this package is
// exhaustive, and structural behavior (traversal, rebuild) is derived from
// the kind's Shape rather than from per-kind code.
type Kind uint8

const (
	KindInvalid Kind = iota

	// Nullary (leaf terms)
	KindName
	KindNum

	// Unary functions
	KindAbs
	KindCeiling
	KindExp
	KindFactorial
	KindFloor
	KindLn
	KindSin
	KindCos
	KindTan
	KindSec
	KindCsc
	KindCot
	KindAsin
	KindAcos
	KindAtan
	KindAcot
	KindAsec
	KindAcsc
	KindSinh
	KindCosh
	KindTanh
	KindSech
	KindCsch
	KindCoth
	KindAsinh
	KindAcosh
	KindAtanh
	KindAcsch
	KindAsech
	KindAcoth
	KindRateOf

	// Irregular binary functions (named children: child, base)
	KindLog
	KindRoot

	// Binary operators (left, right)
	KindPow
	KindImplies

	// N-ary operators
	KindMax
	KindMin
	KindPiecewise
	KindRem
	KindAnd
	KindNot
	KindOr
	KindXor
	KindEq
	KindNotEqual
	KindLess
	KindLessEqual
	KindGreater
	KindGreaterEqual
	KindAdd
	KindMinus
	KindMul
	KindDivide
	KindIntDivide

	kindCount
)

// Shape is the arity category of a kind. It governs child traversal and
// identity-preserving rebuilds.
type Shape uint8

const (
	ShapeInvalid Shape = iota
	ShapeNullary
	ShapeUnary
	ShapeIrregular // two named children: child and base
	ShapeBinary    // two named children: left and right
	ShapeNary
)

func (s Shape) String() string {
	switch s {
	case ShapeNullary:
		return "nullary"
	case ShapeUnary:
		return "unary"
	case ShapeIrregular:
		return "irregular"
	case ShapeBinary:
		return "binary"
	case ShapeNary:
		return "nary"
	default:
		return "invalid"
	}
}

// kindNames are the stable, lower-case identifiers used in serialized
// expression trees (see internal/ir).
var kindNames = [kindCount]string{
	KindInvalid:      "invalid",
	KindName:         "name",
	KindNum:          "num",
	KindAbs:          "abs",
	KindCeiling:      "ceiling",
	KindExp:          "exp",
	KindFactorial:    "factorial",
	KindFloor:        "floor",
	KindLn:           "ln",
	KindSin:          "sin",
	KindCos:          "cos",
	KindTan:          "tan",
	KindSec:          "sec",
	KindCsc:          "csc",
	KindCot:          "cot",
	KindAsin:         "asin",
	KindAcos:         "acos",
	KindAtan:         "atan",
	KindAcot:         "acot",
	KindAsec:         "asec",
	KindAcsc:         "acsc",
	KindSinh:         "sinh",
	KindCosh:         "cosh",
	KindTanh:         "tanh",
	KindSech:         "sech",
	KindCsch:         "csch",
	KindCoth:         "coth",
	KindAsinh:        "asinh",
	KindAcosh:        "acosh",
	KindAtanh:        "atanh",
	KindAcsch:        "acsch",
	KindAsech:        "asech",
	KindAcoth:        "acoth",
	KindRateOf:       "rate_of",
	KindLog:          "log",
	KindRoot:         "root",
	KindPow:          "pow",
	KindImplies:      "implies",
	KindMax:          "max",
	KindMin:          "min",
	KindPiecewise:    "piecewise",
	KindRem:          "rem",
	KindAnd:          "and",
	KindNot:          "not",
	KindOr:           "or",
	KindXor:          "xor",
	KindEq:           "eq",
	KindNotEqual:     "neq",
	KindLess:         "lt",
	KindLessEqual:    "le",
	KindGreater:      "gt",
	KindGreaterEqual: "ge",
	KindAdd:          "add",
	KindMinus:        "minus",
	KindMul:          "mul",
	KindDivide:       "divide",
	KindIntDivide:    "int_divide",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k := KindName; k < kindCount; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

// String returns the serialized identifier of the kind.
func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// ParseKind looks up a kind by its serialized identifier.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindsByName[name]
	return k, ok
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := KindName; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Shape returns the arity category of the kind.
func (k Kind) Shape() Shape {
	switch {
	case k == KindName || k == KindNum:
		return ShapeNullary
	case k >= KindAbs && k <= KindRateOf:
		return ShapeUnary
	case k == KindLog || k == KindRoot:
		return ShapeIrregular
	case k == KindPow || k == KindImplies:
		return ShapeBinary
	case k >= KindMax && k <= KindIntDivide:
		return ShapeNary
	default:
		return ShapeInvalid
	}
}

// IsComparison reports whether the kind is a chained relation.
func (k Kind) IsComparison() bool {
	return k >= KindEq && k <= KindGreaterEqual
}
