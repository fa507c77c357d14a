package compiler

import (
	"fmt"

	"github.com/roach88/odegen/internal/expr"
	"github.com/roach88/odegen/internal/ir"
	"github.com/roach88/odegen/internal/model"
)

// BuildExpr allocates the expression tree described by spec from doc.
func BuildExpr(doc *expr.Doc, spec ir.ExprSpec) (*expr.Node, error) {
	k, ok := expr.ParseKind(spec.Op)
	if !ok {
		return nil, fmt.Errorf("unknown operator %q", spec.Op)
	}
	switch k {
	case expr.KindName:
		return doc.Name(spec.Name), nil
	case expr.KindNum:
		return doc.Num(spec.Value), nil
	}

	children := make([]*expr.Node, len(spec.Args))
	for i, a := range spec.Args {
		c, err := BuildExpr(doc, a)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", spec.Op, i, err)
		}
		children[i] = c
	}
	return doc.New(k, children...)
}

// ExprToSpec serializes an expression tree. Node ids are not carried.
func ExprToSpec(n *expr.Node) ir.ExprSpec {
	spec := ir.ExprSpec{Op: n.Kind().String()}
	switch n.Kind() {
	case expr.KindName:
		spec.Name = n.Name()
		return spec
	case expr.KindNum:
		spec.Value = n.Value()
		return spec
	}
	for _, c := range n.Children() {
		spec.Args = append(spec.Args, ExprToSpec(c))
	}
	return spec
}

// BuildModel assembles a live model from a spec, allocating every
// expression from doc (a fresh Doc when nil). It does not run Validate.
func BuildModel(spec ir.ModelSpec, doc *expr.Doc) (*model.Model, error) {
	m := model.New(spec.Name, doc)
	doc = m.Doc()

	for _, q := range spec.Constants {
		c := model.Constant{Value: q.Value, DisplayName: q.DisplayName, TexName: q.TexName, Slider: slider(q.Slider)}
		if err := m.AddConstant(q.Key, c); err != nil {
			return nil, err
		}
	}
	for _, q := range spec.Variables {
		v := model.StateVariable{Value: q.Value, DisplayName: q.DisplayName, TexName: q.TexName, Slider: slider(q.Slider)}
		if err := m.AddVariable(q.Key, v); err != nil {
			return nil, err
		}
	}
	for _, a := range spec.Assignments {
		e, err := BuildExpr(doc, a.Expr)
		if err != nil {
			return nil, fmt.Errorf("assignments.%s: %w", a.Key, err)
		}
		if err := m.AddAssignment(a.Key, model.Assignment{Expr: e, DisplayName: a.DisplayName, TexName: a.TexName}); err != nil {
			return nil, err
		}
	}
	for _, r := range spec.Reactions {
		rate, err := BuildExpr(doc, r.Rate)
		if err != nil {
			return nil, fmt.Errorf("reactions.%s: %w", r.Key, err)
		}
		stoich := make([]model.Stoich, len(r.Stoichiometry))
		for i, s := range r.Stoichiometry {
			stoich[i] = model.Stoich{Name: s.Target, Coefficient: s.Coefficient}
		}
		reaction := model.Reaction{Rate: rate, Stoichiometry: stoich, DisplayName: r.DisplayName, TexName: r.TexName}
		if err := m.AddReaction(r.Key, reaction); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SpecFromModel serializes a live model in declaration order.
func SpecFromModel(m *model.Model) ir.ModelSpec {
	spec := ir.ModelSpec{Name: m.Name}
	for _, e := range m.Constants() {
		spec.Constants = append(spec.Constants, ir.QuantitySpec{
			Key: e.Key, Value: e.Value.Value, DisplayName: e.Value.DisplayName, TexName: e.Value.TexName, Slider: sliderSpec(e.Value.Slider),
		})
	}
	for _, e := range m.Variables() {
		spec.Variables = append(spec.Variables, ir.QuantitySpec{
			Key: e.Key, Value: e.Value.Value, DisplayName: e.Value.DisplayName, TexName: e.Value.TexName, Slider: sliderSpec(e.Value.Slider),
		})
	}
	for _, e := range m.Assignments() {
		spec.Assignments = append(spec.Assignments, ir.AssignmentSpec{
			Key: e.Key, Expr: ExprToSpec(e.Value.Expr), DisplayName: e.Value.DisplayName, TexName: e.Value.TexName,
		})
	}
	for _, e := range m.Reactions() {
		r := ir.ReactionSpec{Key: e.Key, Rate: ExprToSpec(e.Value.Rate), DisplayName: e.Value.DisplayName, TexName: e.Value.TexName}
		for _, s := range e.Value.Stoichiometry {
			r.Stoichiometry = append(r.Stoichiometry, ir.StoichSpec{Target: s.Name, Coefficient: s.Coefficient})
		}
		spec.Reactions = append(spec.Reactions, r)
	}
	return spec
}

func slider(s *ir.SliderSpec) *model.Slider {
	if s == nil {
		return nil
	}
	return &model.Slider{Min: s.Min, Max: s.Max, Step: s.Step, Description: s.Description}
}

func sliderSpec(s *model.Slider) *ir.SliderSpec {
	if s == nil {
		return nil
	}
	return &ir.SliderSpec{Min: s.Min, Max: s.Max, Step: s.Step, Description: s.Description}
}
