package compiler

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/odegen/internal/expr"
	"github.com/roach88/odegen/internal/ir"
)

// Validation error codes (E100-E199). Naming rules that depend on the
// target language (identifiers, reserved words) are checked by the model
// package with E2xx codes.
const (
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// ModelSpec errors (E101-E109)
	ErrModelNameEmpty  = "E101" // model name is required
	ErrDuplicateKey    = "E102" // key reused across collections
	ErrNonFinite       = "E103" // value or coefficient is NaN or infinite
	ErrStoichTarget    = "E104" // stoichiometry target is not a state variable
	ErrDuplicateStoich = "E105" // same target listed twice in one reaction
	ErrEmptyKey        = "E106" // empty key

	// ExprSpec errors (E110-E119)
	ErrUnknownOperator = "E110" // op is not in the catalog
	ErrArity           = "E111" // wrong number of operands for the op
	ErrEmptyName       = "E112" // name leaf without a name
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled IR against schema rules.
// Returns all errors found (does not fail-fast).
// Supports ModelSpec and ExprSpec.
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ir.ModelSpec:
		return validateModelSpec(spec)
	case ir.ModelSpec:
		return validateModelSpec(&spec)
	case ir.ExprSpec:
		return validateExpr(spec, "expr")
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

func validateModelSpec(spec *ir.ModelSpec) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "model name is required", Code: ErrModelNameEmpty})
	}

	seen := make(map[string]string)
	key := func(collection, k string) {
		field := collection + "." + k
		if k == "" {
			errs = append(errs, ValidationError{Field: collection, Message: "empty key", Code: ErrEmptyKey})
			return
		}
		if prev, ok := seen[k]; ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("key %q already declared in %s", k, prev),
				Code:    ErrDuplicateKey,
			})
			return
		}
		seen[k] = collection
	}
	finite := func(field string, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("value %v is not finite", v), Code: ErrNonFinite})
		}
	}

	variables := make(map[string]bool, len(spec.Variables))
	for _, q := range spec.Constants {
		key("constants", q.Key)
		finite("constants."+q.Key+".value", q.Value)
	}
	for _, q := range spec.Variables {
		key("variables", q.Key)
		finite("variables."+q.Key+".value", q.Value)
		variables[q.Key] = true
	}
	for _, a := range spec.Assignments {
		key("assignments", a.Key)
		errs = append(errs, validateExpr(a.Expr, "assignments."+a.Key+".expr")...)
	}
	for _, r := range spec.Reactions {
		key("reactions", r.Key)
		field := "reactions." + r.Key
		errs = append(errs, validateExpr(r.Rate, field+".rate")...)

		targets := make(map[string]bool, len(r.Stoichiometry))
		for _, s := range r.Stoichiometry {
			sf := field + ".stoichiometry." + s.Target
			if !variables[s.Target] {
				errs = append(errs, ValidationError{
					Field:   sf,
					Message: fmt.Sprintf("target %q is not a state variable", s.Target),
					Code:    ErrStoichTarget,
				})
			}
			if targets[s.Target] {
				errs = append(errs, ValidationError{
					Field:   sf,
					Message: fmt.Sprintf("target %q listed more than once", s.Target),
					Code:    ErrDuplicateStoich,
				})
			}
			targets[s.Target] = true
			finite(sf, s.Coefficient)
		}
	}

	return errs
}

func validateExpr(e ir.ExprSpec, field string) []ValidationError {
	k, ok := expr.ParseKind(e.Op)
	if !ok {
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("unknown operator %q", e.Op),
			Code:    ErrUnknownOperator,
		}}
	}

	var errs []ValidationError
	arity := func(want int) {
		if len(e.Args) != want {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s takes %d operand(s), got %d", e.Op, want, len(e.Args)),
				Code:    ErrArity,
			})
		}
	}

	switch k.Shape() {
	case expr.ShapeNullary:
		arity(0)
		if k == expr.KindName && e.Name == "" {
			errs = append(errs, ValidationError{Field: field, Message: "name is empty", Code: ErrEmptyName})
		}
	case expr.ShapeUnary:
		arity(1)
	case expr.ShapeIrregular, expr.ShapeBinary:
		arity(2)
	}

	for i, a := range e.Args {
		errs = append(errs, validateExpr(a, fmt.Sprintf("%s.%s[%d]", field, e.Op, i))...)
	}
	return errs
}
