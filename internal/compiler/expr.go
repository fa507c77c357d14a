package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/odegen/internal/ir"
)

// parseExpr converts a structured CUE expression into an ExprSpec.
//
//	"x"                      name
//	2.5                      number
//	{name: "x"} {num: 2.5}   explicit leaves
//	{sin: "x"}               single operand
//	{mul: ["k", "x"]}        operand list
//	{log: ["x", 2]}          child, then base
//
// Operator names are not checked here; Validate reports unknown ones.
func parseExpr(v cue.Value, field string) (ir.ExprSpec, error) {
	switch {
	case v.Kind() == cue.StringKind:
		s, err := v.String()
		if err != nil {
			return ir.ExprSpec{}, formatCUEError(err)
		}
		return ir.ExprSpec{Op: "name", Name: s}, nil

	case isNumber(v):
		f, err := v.Float64()
		if err != nil {
			return ir.ExprSpec{}, formatCUEError(err)
		}
		return ir.ExprSpec{Op: "num", Value: f}, nil

	case v.Kind() == cue.StructKind:
		return parseOperator(v, field)

	case v.Kind() == cue.ListKind:
		return ir.ExprSpec{}, &CompileError{Field: field, Message: "operand list must be wrapped in an operator, e.g. {add: [...]}", Pos: v.Pos()}

	default:
		return ir.ExprSpec{}, &CompileError{Field: field, Message: fmt.Sprintf("expression must be concrete, got %v", v.IncompleteKind()), Pos: v.Pos()}
	}
}

func parseOperator(v cue.Value, field string) (ir.ExprSpec, error) {
	iter, err := v.Fields()
	if err != nil {
		return ir.ExprSpec{}, formatCUEError(err)
	}

	var (
		op    string
		opVal cue.Value
		count int
	)
	for iter.Next() {
		op, opVal = iter.Label(), iter.Value()
		count++
	}
	if count != 1 {
		return ir.ExprSpec{}, &CompileError{Field: field, Message: fmt.Sprintf("operator object must have exactly one field, got %d", count), Pos: v.Pos()}
	}
	field = field + "." + op

	switch op {
	case "name":
		s, err := opVal.String()
		if err != nil {
			return ir.ExprSpec{}, &CompileError{Field: field, Message: "name must be a string", Pos: opVal.Pos()}
		}
		return ir.ExprSpec{Op: op, Name: s}, nil
	case "num":
		f, err := opVal.Float64()
		if err != nil {
			return ir.ExprSpec{}, &CompileError{Field: field, Message: "num must be a number", Pos: opVal.Pos()}
		}
		return ir.ExprSpec{Op: op, Value: f}, nil
	}

	spec := ir.ExprSpec{Op: op}
	if opVal.Kind() != cue.ListKind {
		arg, err := parseExpr(opVal, field)
		if err != nil {
			return ir.ExprSpec{}, err
		}
		spec.Args = []ir.ExprSpec{arg}
		return spec, nil
	}

	list, err := opVal.List()
	if err != nil {
		return ir.ExprSpec{}, formatCUEError(err)
	}
	for i := 0; list.Next(); i++ {
		arg, err := parseExpr(list.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return ir.ExprSpec{}, err
		}
		spec.Args = append(spec.Args, arg)
	}
	return spec, nil
}
