package expr

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// ID identifies a node within the Doc that allocated it.
type ID uint64

// Placeholder is the name given to blank operands by DefaultOfSameKind.
const Placeholder = "default"

// Doc allocates node identifiers.
//
// Every constructor call on a Doc issues the next identifier, starting at 1.
// Identifiers are unique among the nodes of one Doc; nodes built from
// different Docs may share identifiers and must not be mixed in one tree.
//
// Thread-safety: Doc is safe for concurrent use (atomic counter).
type Doc struct {
	next atomic.Uint64
}

// NewDoc creates a Doc whose first node gets ID 1.
func NewDoc() *Doc {
	return &Doc{}
}

// Last returns the most recently issued identifier (0 if none).
func (d *Doc) Last() ID {
	return ID(d.next.Load())
}

func (d *Doc) alloc() ID {
	return ID(d.next.Add(1))
}

// Node is an immutable expression tree value.
//
// A Node is never mutated after construction. Edits go through Replace,
// which rebuilds only the path from the edited node to the root and keeps
// the identifiers of every rebuilt ancestor.
type Node struct {
	id       ID
	kind     Kind
	name     string  // KindName
	value    float64 // KindNum
	children []*Node
}

// ID returns the node identifier.
func (n *Node) ID() ID { return n.id }

// Kind returns the node discriminant.
func (n *Node) Kind() Kind { return n.kind }

// Name returns the identifier of a name leaf ("" for other kinds).
func (n *Node) Name() string { return n.name }

// Value returns the literal of a number leaf (0 for other kinds).
func (n *Node) Value() float64 { return n.value }

// Len returns the number of children.
func (n *Node) Len() int { return len(n.children) }

// Children returns a copy of the node's children in order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Child returns the operand of a unary node or the "child" of a log/root node.
func (n *Node) Child() *Node {
	switch n.kind.Shape() {
	case ShapeUnary, ShapeIrregular:
		return n.children[0]
	}
	return nil
}

// Base returns the base (log) or index (root) of an irregular binary node.
func (n *Node) Base() *Node {
	if n.kind.Shape() == ShapeIrregular {
		return n.children[1]
	}
	return nil
}

// Left returns the left operand of a binary node.
func (n *Node) Left() *Node {
	if n.kind.Shape() == ShapeBinary {
		return n.children[0]
	}
	return nil
}

// Right returns the right operand of a binary node.
func (n *Node) Right() *Node {
	if n.kind.Shape() == ShapeBinary {
		return n.children[1]
	}
	return nil
}

func (n *Node) String() string {
	return n.JS()
}

// Name creates a name leaf.
func (d *Doc) Name(name string) *Node {
	return &Node{id: d.alloc(), kind: KindName, name: name}
}

// Num creates a number leaf.
func (d *Doc) Num(value float64) *Node {
	return &Node{id: d.alloc(), kind: KindNum, value: value}
}

// Unary creates a unary function node. Panics if k is not a unary kind.
func (d *Doc) Unary(k Kind, child *Node) *Node {
	mustShape(k, ShapeUnary)
	return &Node{id: d.alloc(), kind: k, children: []*Node{child}}
}

// Log creates a logarithm of child to the given base.
func (d *Doc) Log(child, base *Node) *Node {
	return &Node{id: d.alloc(), kind: KindLog, children: []*Node{child, base}}
}

// Root creates the index-th root of child.
func (d *Doc) Root(child, index *Node) *Node {
	return &Node{id: d.alloc(), kind: KindRoot, children: []*Node{child, index}}
}

// Binary creates a binary operator node. Panics if k is not a binary kind.
func (d *Doc) Binary(k Kind, left, right *Node) *Node {
	mustShape(k, ShapeBinary)
	return &Node{id: d.alloc(), kind: k, children: []*Node{left, right}}
}

// Nary creates an n-ary operator node. Panics if k is not an n-ary kind.
func (d *Doc) Nary(k Kind, children ...*Node) *Node {
	mustShape(k, ShapeNary)
	cs := make([]*Node, len(children))
	copy(cs, children)
	return &Node{id: d.alloc(), kind: k, children: cs}
}

func (d *Doc) Add(children ...*Node) *Node    { return d.Nary(KindAdd, children...) }
func (d *Doc) Minus(children ...*Node) *Node  { return d.Nary(KindMinus, children...) }
func (d *Doc) Mul(children ...*Node) *Node    { return d.Nary(KindMul, children...) }
func (d *Doc) Divide(children ...*Node) *Node { return d.Nary(KindDivide, children...) }
func (d *Doc) Pow(left, right *Node) *Node    { return d.Binary(KindPow, left, right) }

// New creates a node of any non-leaf kind from ordered children, checking
// the child count against the kind's shape. Irregular kinds take
// (child, base); binary kinds take (left, right).
func (d *Doc) New(k Kind, children ...*Node) (*Node, error) {
	for i, c := range children {
		if c == nil {
			return nil, fmt.Errorf("%s: child %d is nil", k, i)
		}
	}
	switch k.Shape() {
	case ShapeUnary:
		if len(children) != 1 {
			return nil, fmt.Errorf("%s: expected 1 child, got %d", k, len(children))
		}
		return d.Unary(k, children[0]), nil
	case ShapeIrregular:
		if len(children) != 2 {
			return nil, fmt.Errorf("%s: expected child and base, got %d children", k, len(children))
		}
		return &Node{id: d.alloc(), kind: k, children: []*Node{children[0], children[1]}}, nil
	case ShapeBinary:
		if len(children) != 2 {
			return nil, fmt.Errorf("%s: expected 2 children, got %d", k, len(children))
		}
		return d.Binary(k, children[0], children[1]), nil
	case ShapeNary:
		return d.Nary(k, children...), nil
	case ShapeNullary:
		return nil, fmt.Errorf("%s: leaf kinds are built with Name or Num", k)
	default:
		return nil, fmt.Errorf("unknown kind %s", k)
	}
}

func mustShape(k Kind, want Shape) {
	if got := k.Shape(); got != want {
		panic(fmt.Sprintf("expr: %s is %s, not %s", k, got, want))
	}
}

// Default builds a minimal well-formed node of kind k with placeholder
// operands: names default to Placeholder, numbers to 1, the log base to 10
// and the root index to 2. N-ary kinds get two placeholder children.
func Default(d *Doc, k Kind) *Node {
	switch k.Shape() {
	case ShapeNullary:
		if k == KindNum {
			return d.Num(1)
		}
		return d.Name(Placeholder)
	case ShapeUnary:
		return d.Unary(k, d.Name(Placeholder))
	case ShapeIrregular:
		if k == KindLog {
			return d.Log(d.Name(Placeholder), d.Num(10))
		}
		return d.Root(d.Name(Placeholder), d.Num(2))
	case ShapeBinary:
		return d.Binary(k, d.Name(Placeholder), d.Name(Placeholder))
	case ShapeNary:
		return d.Nary(k, d.Name(Placeholder), d.Name(Placeholder))
	default:
		panic(fmt.Sprintf("expr: no default for %s", k))
	}
}

// DefaultOfSameKind builds a blank node of n's kind. Editors use it to
// materialize an operator before its operands are filled in.
func (n *Node) DefaultOfSameKind(d *Doc) *Node {
	return Default(d, n.kind)
}

// Replace substitutes repl for the node whose identifier is target.
//
// If n itself is the target, repl is returned. Otherwise the search descends
// into the children in order and stops at the first match; the ancestors on
// the path are rebuilt with their original identifiers and every other
// subtree is shared. If target is absent, n is returned unchanged with
// changed == false.
func (n *Node) Replace(target ID, repl *Node) (*Node, bool) {
	if n.id == target {
		return repl, true
	}
	for i, c := range n.children {
		if next, changed := c.Replace(target, repl); changed {
			return n.withChild(i, next), true
		}
	}
	return n, false
}

// Find returns the node with the given identifier, or nil.
func (n *Node) Find(target ID) *Node {
	if n.id == target {
		return n
	}
	for _, c := range n.children {
		if found := c.Find(target); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits n and its descendants depth-first, parents first. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// CollectFreeVariables adds every name leaf reachable from n to acc.
// There are no binding constructs, so every name is free.
func (n *Node) CollectFreeVariables(acc map[string]struct{}) {
	if n.kind == KindName {
		acc[n.name] = struct{}{}
		return
	}
	for _, c := range n.children {
		c.CollectFreeVariables(acc)
	}
}

// FreeVariables returns the sorted, de-duplicated names used by n.
func (n *Node) FreeVariables() []string {
	acc := make(map[string]struct{})
	n.CollectFreeVariables(acc)
	names := make([]string, 0, len(acc))
	for name := range acc {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
