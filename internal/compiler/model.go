package compiler

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue"

	"github.com/roach88/odegen/internal/ir"
)

// CompileModel parses a CUE value into a ModelSpec.
//
// The value should be the model struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`model: decay: { ... }`)
//	spec, err := CompileModel(v.LookupPath(cue.ParsePath("model.decay")))
//
// Constants and variables are either a bare number or
// {value, display_name?, tex_name?, slider?}. Assignments are either an
// expression or {expr, display_name?, tex_name?}. Reactions are
// {rate, stoichiometry: {target: coefficient}, display_name?, tex_name?}.
// Field order in the source is declaration order.
func CompileModel(v cue.Value) (*ir.ModelSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ModelSpec{}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	var err error
	if spec.Constants, err = parseQuantities(v, "constants"); err != nil {
		return nil, err
	}
	if spec.Variables, err = parseQuantities(v, "variables"); err != nil {
		return nil, err
	}
	if spec.Assignments, err = parseAssignments(v); err != nil {
		return nil, err
	}
	if spec.Reactions, err = parseReactions(v); err != nil {
		return nil, err
	}
	return spec, nil
}

// CompileModels compiles every model under the top-level "model" field.
func CompileModels(root cue.Value) ([]ir.ModelSpec, error) {
	modelsVal := root.LookupPath(cue.ParsePath("model"))
	if !modelsVal.Exists() {
		return nil, &CompileError{Field: "model", Message: "no models defined", Pos: root.Pos()}
	}

	iter, err := modelsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []ir.ModelSpec
	for iter.Next() {
		spec, err := CompileModel(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}

// fields iterates an optional struct field, calling fn per entry in order.
func fields(v cue.Value, name string, fn func(label string, val cue.Value) error) error {
	sv := v.LookupPath(cue.ParsePath(name))
	if !sv.Exists() {
		return nil
	}
	iter, err := sv.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Label(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func parseQuantities(v cue.Value, collection string) ([]ir.QuantitySpec, error) {
	var out []ir.QuantitySpec
	err := fields(v, collection, func(key string, qv cue.Value) error {
		field := collection + "." + key
		q := ir.QuantitySpec{Key: key}

		if isNumber(qv) {
			f, err := qv.Float64()
			if err != nil {
				return formatCUEError(err)
			}
			q.Value = f
			out = append(out, q)
			return nil
		}
		if qv.Kind() != cue.StructKind {
			return &CompileError{Field: field, Message: "expected a number or {value: ...}", Pos: qv.Pos()}
		}

		valueVal := qv.LookupPath(cue.ParsePath("value"))
		if valueVal.Exists() {
			f, err := valueVal.Float64()
			if err != nil {
				return &CompileError{Field: field + ".value", Message: "value must be a number", Pos: valueVal.Pos()}
			}
			q.Value = f
		}

		var err error
		if q.DisplayName, q.TexName, err = parseNames(qv, field); err != nil {
			return err
		}

		sliderVal := qv.LookupPath(cue.ParsePath("slider"))
		if sliderVal.Exists() {
			s := &ir.SliderSpec{}
			for name, dst := range map[string]*string{"min": &s.Min, "max": &s.Max, "step": &s.Step, "description": &s.Description} {
				fv := sliderVal.LookupPath(cue.ParsePath(name))
				if !fv.Exists() {
					continue
				}
				if *dst, err = scalarString(fv); err != nil {
					return &CompileError{Field: field + ".slider." + name, Message: err.Error(), Pos: fv.Pos()}
				}
			}
			q.Slider = s
		}

		out = append(out, q)
		return nil
	})
	return out, err
}

func parseAssignments(v cue.Value) ([]ir.AssignmentSpec, error) {
	var out []ir.AssignmentSpec
	err := fields(v, "assignments", func(key string, av cue.Value) error {
		field := "assignments." + key
		a := ir.AssignmentSpec{Key: key}

		exprVal := av.LookupPath(cue.ParsePath("expr"))
		if av.Kind() != cue.StructKind || !exprVal.Exists() {
			e, err := parseExpr(av, field)
			if err != nil {
				return err
			}
			a.Expr = e
			out = append(out, a)
			return nil
		}

		e, err := parseExpr(exprVal, field+".expr")
		if err != nil {
			return err
		}
		a.Expr = e
		if a.DisplayName, a.TexName, err = parseNames(av, field); err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	return out, err
}

func parseReactions(v cue.Value) ([]ir.ReactionSpec, error) {
	var out []ir.ReactionSpec
	err := fields(v, "reactions", func(key string, rv cue.Value) error {
		field := "reactions." + key
		r := ir.ReactionSpec{Key: key}

		rateVal := rv.LookupPath(cue.ParsePath("rate"))
		if !rateVal.Exists() {
			return &CompileError{Field: field + ".rate", Message: "rate is required", Pos: rv.Pos()}
		}
		rate, err := parseExpr(rateVal, field+".rate")
		if err != nil {
			return err
		}
		r.Rate = rate

		err = fields(rv, "stoichiometry", func(target string, cv cue.Value) error {
			c, err := cv.Float64()
			if err != nil {
				return &CompileError{
					Field:   fmt.Sprintf("%s.stoichiometry.%s", field, target),
					Message: "coefficient must be a number",
					Pos:     cv.Pos(),
				}
			}
			r.Stoichiometry = append(r.Stoichiometry, ir.StoichSpec{Target: target, Coefficient: c})
			return nil
		})
		if err != nil {
			return err
		}

		if r.DisplayName, r.TexName, err = parseNames(rv, field); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

func parseNames(v cue.Value, field string) (display, tex string, err error) {
	for name, dst := range map[string]*string{"display_name": &display, "tex_name": &tex} {
		nv := v.LookupPath(cue.ParsePath(name))
		if !nv.Exists() {
			continue
		}
		s, serr := nv.String()
		if serr != nil {
			return "", "", &CompileError{Field: field + "." + name, Message: "must be a string", Pos: nv.Pos()}
		}
		*dst = s
	}
	return display, tex, nil
}

func isNumber(v cue.Value) bool {
	k := v.Kind()
	return k == cue.IntKind || k == cue.FloatKind || k == cue.NumberKind
}

// scalarString accepts strings and numbers for opaque UI payload.
func scalarString(v cue.Value) (string, error) {
	if s, err := v.String(); err == nil {
		return s, nil
	}
	if isNumber(v) {
		f, err := v.Float64()
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("expected a string or number, got %v", v.Kind())
}
