package model

import "github.com/roach88/odegen/internal/expr"

// Term is one signed contribution to a folded sum.
type Term struct {
	Node        *expr.Node
	Coefficient float64
}

// Fold builds a single expression from signed terms.
//
// Zero coefficients are dropped. Each remaining term becomes
// coefficient × node, with magnitude 1 collapsing to the bare (or negated)
// node. Terms are left-folded with addition; a later negative term is
// subtracted with its magnitude instead of added with its sign. No terms
// fold to the literal 0. New nodes are allocated from doc.
func Fold(doc *expr.Doc, terms []Term) *expr.Node {
	var acc *expr.Node
	for _, t := range terms {
		if t.Coefficient == 0 {
			continue
		}
		if acc == nil {
			acc = scaled(doc, t.Node, t.Coefficient)
			continue
		}
		if t.Coefficient < 0 {
			acc = doc.Minus(acc, scaled(doc, t.Node, -t.Coefficient))
		} else {
			acc = doc.Add(acc, scaled(doc, t.Node, t.Coefficient))
		}
	}
	if acc == nil {
		return doc.Num(0)
	}
	return acc
}

func scaled(doc *expr.Doc, n *expr.Node, c float64) *expr.Node {
	switch c {
	case 1:
		return n
	case -1:
		return doc.Minus(n)
	}
	return doc.Mul(doc.Num(c), n)
}

// FoldStoichiometry folds (name, coefficient) pairs into a sum of name
// terms, e.g. [(x, 1), (y, -1), (z, 0)] becomes x - y.
func FoldStoichiometry(doc *expr.Doc, stoich []Stoich) *expr.Node {
	terms := make([]Term, 0, len(stoich))
	for _, s := range stoich {
		if s.Coefficient == 0 {
			continue
		}
		terms = append(terms, Term{Node: doc.Name(s.Name), Coefficient: s.Coefficient})
	}
	return Fold(doc, terms)
}

// Contributions returns, for the state variable key, every reaction that
// lists it with the signed coefficient, in reaction insertion order.
func (m *Model) Contributions(key string) []Stoich {
	var out []Stoich
	for pair := m.reactions.Oldest(); pair != nil; pair = pair.Next() {
		for _, s := range pair.Value.Stoichiometry {
			if s.Name == key {
				out = append(out, Stoich{Name: pair.Key, Coefficient: s.Coefficient})
			}
		}
	}
	return out
}

// DerivativeExpr folds the contributions to key over reaction names.
// The returned tree is built in doc; emission passes a scratch Doc so the
// model's own arena is left untouched.
func (m *Model) DerivativeExpr(doc *expr.Doc, key string) *expr.Node {
	return FoldStoichiometry(doc, m.Contributions(key))
}

// DerivativeRateExpr folds the contributions to key with each reaction's
// rate expression inlined, for display.
func (m *Model) DerivativeRateExpr(doc *expr.Doc, key string) *expr.Node {
	contribs := m.Contributions(key)
	terms := make([]Term, 0, len(contribs))
	for _, c := range contribs {
		r, _ := m.reactions.Get(c.Name)
		terms = append(terms, Term{Node: r.Rate, Coefficient: c.Coefficient})
	}
	return Fold(doc, terms)
}
