package expr

import "fmt"

// withChild returns a copy of n with child i replaced, keeping n's
// identifier. The other children are shared, not copied.
func (n *Node) withChild(i int, c *Node) *Node {
	children := make([]*Node, len(n.children))
	copy(children, n.children)
	children[i] = c
	return n.rebuild(children)
}

// rebuild returns a node of n's kind and identifier over new children.
// The child count must match n's shape; Nullary nodes have none.
func (n *Node) rebuild(children []*Node) *Node {
	switch n.kind.Shape() {
	case ShapeNullary:
		return &Node{id: n.id, kind: n.kind, name: n.name, value: n.value}
	case ShapeUnary:
		return &Node{id: n.id, kind: n.kind, children: children[:1:1]}
	case ShapeIrregular, ShapeBinary:
		return &Node{id: n.id, kind: n.kind, children: children[:2:2]}
	default:
		return &Node{id: n.id, kind: n.kind, children: children}
	}
}

// WithChildren returns a copy of n over new children, keeping n's kind and
// identifier. It reports an error if the count does not fit the shape.
func (n *Node) WithChildren(children ...*Node) (*Node, error) {
	want := len(n.children)
	if n.kind.Shape() != ShapeNary && len(children) != want {
		return nil, &ShapeError{Kind: n.kind, Want: want, Got: len(children)}
	}
	cs := make([]*Node, len(children))
	copy(cs, children)
	return n.rebuild(cs), nil
}

// ShapeError reports a child count that does not fit a kind's shape.
type ShapeError struct {
	Kind Kind
	Want int
	Got  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("expr: %s (%s) takes %d children, got %d", e.Kind, e.Kind.Shape(), e.Want, e.Got)
}
