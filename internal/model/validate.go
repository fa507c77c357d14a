package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation error codes (E200-E299)
const (
	ErrInvalidKey         = "E201" // key is not an identifier
	ErrInvalidDisplayName = "E202" // display name is not an identifier
	ErrNameCollision      = "E203" // two entities render to the same name
	ErrStoichTarget       = "E204" // stoichiometry names a non-state-variable
	ErrMissingExpr        = "E205" // assignment or reaction without expression
	ErrReservedName       = "E206" // name clashes with generated code
	ErrUnknownParameter   = "E207" // parameter is not a constant
)

// ValidationError represents a model validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is returned by Emit when a model fails validation.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reserved are names the generated functions use themselves, plus keywords
// of either imperative target.
var reserved = map[string]bool{
	"time": true, "variables": true, "model": true, "y0": true, "math": true, "Math": true,

	"and": true, "as": true, "assert": true, "async": true, "await": true, "break": true,
	"class": true, "continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "False": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true, "None": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true, "return": true,
	"True": true, "try": true, "while": true, "with": true, "yield": true,

	"case": true, "catch": true, "const": true, "debugger": true, "default": true,
	"delete": true, "do": true, "enum": true, "export": true, "extends": true, "false": true,
	"function": true, "instanceof": true, "let": true, "new": true, "null": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"typeof": true, "undefined": true, "var": true, "void": true, "NaN": true, "Infinity": true,
}

// Validate checks the model and returns all errors found (does not
// fail-fast). Dependency cycles are not errors; see SortItems.
func (m *Model) Validate() []ValidationError {
	var errs []ValidationError

	type named struct {
		field, key, display string
	}
	var all []named
	for _, e := range m.Constants() {
		all = append(all, named{"constants." + e.Key, e.Key, e.Value.DisplayName})
	}
	for _, e := range m.Variables() {
		all = append(all, named{"variables." + e.Key, e.Key, e.Value.DisplayName})
	}
	for _, e := range m.Assignments() {
		all = append(all, named{"assignments." + e.Key, e.Key, e.Value.DisplayName})
		if e.Value.Expr == nil {
			errs = append(errs, ValidationError{
				Field:   "assignments." + e.Key + ".expr",
				Message: "expression is required",
				Code:    ErrMissingExpr,
			})
		}
	}
	for _, e := range m.Reactions() {
		all = append(all, named{"reactions." + e.Key, e.Key, e.Value.DisplayName})
		if e.Value.Rate == nil {
			errs = append(errs, ValidationError{
				Field:   "reactions." + e.Key + ".rate",
				Message: "rate expression is required",
				Code:    ErrMissingExpr,
			})
		}
		for i, s := range e.Value.Stoichiometry {
			if _, ok := m.variables.Get(s.Name); !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("reactions.%s.stoichiometry[%d]", e.Key, i),
					Message: fmt.Sprintf("target %q is not a state variable", s.Name),
					Code:    ErrStoichTarget,
				})
			}
		}
	}

	// E201/E202/E206: identifiers
	for _, n := range all {
		if !identRegex.MatchString(n.key) {
			errs = append(errs, ValidationError{
				Field:   n.field,
				Message: fmt.Sprintf("key %q must match %s", n.key, identRegex),
				Code:    ErrInvalidKey,
			})
		} else if reserved[n.key] {
			errs = append(errs, ValidationError{
				Field:   n.field,
				Message: fmt.Sprintf("key %q is reserved", n.key),
				Code:    ErrReservedName,
			})
		}
		if n.display == "" {
			continue
		}
		if !identRegex.MatchString(n.display) {
			errs = append(errs, ValidationError{
				Field:   n.field + ".display_name",
				Message: fmt.Sprintf("display name %q must match %s", n.display, identRegex),
				Code:    ErrInvalidDisplayName,
			})
		} else if reserved[n.display] {
			errs = append(errs, ValidationError{
				Field:   n.field + ".display_name",
				Message: fmt.Sprintf("display name %q is reserved", n.display),
				Code:    ErrReservedName,
			})
		}
	}

	// E203: two entities resolving to the same generated name
	seen := make(map[string]string, len(all))
	for _, n := range all {
		resolved := n.key
		if n.display != "" {
			resolved = n.display
		}
		if prev, ok := seen[resolved]; ok {
			errs = append(errs, ValidationError{
				Field:   n.field,
				Message: fmt.Sprintf("name %q already used by %s", resolved, prev),
				Code:    ErrNameCollision,
			})
			continue
		}
		seen[resolved] = n.field
	}

	return errs
}

func (m *Model) checkParameters(params []string) []ValidationError {
	var errs []ValidationError
	for _, p := range params {
		if _, ok := m.constants.Get(p); !ok {
			errs = append(errs, ValidationError{
				Field:   "parameters." + p,
				Message: fmt.Sprintf("parameter %q is not a constant", p),
				Code:    ErrUnknownParameter,
			})
		}
	}
	return errs
}
