// Package model assembles named quantities into an ODE right-hand side.
//
// A Model owns four insertion-ordered collections keyed by identifier:
// constants, state variables, assignments (named intermediate expressions)
// and reactions (rates with stoichiometry). Expressions reference other
// entities only by free-variable name; the dependency graph is derived on
// demand by SortDependencies.
package model

import (
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/roach88/odegen/internal/expr"
)

var (
	// ErrDuplicateKey is returned when a key is already used by any collection.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound is returned when updating a key that does not exist.
	ErrNotFound = errors.New("not found")
)

// Slider is UI metadata carried opaquely with constants and state variables.
type Slider struct {
	Min         string `json:"min" yaml:"min"`
	Max         string `json:"max" yaml:"max"`
	Step        string `json:"step" yaml:"step"`
	Description string `json:"desc,omitempty" yaml:"desc,omitempty"`
}

// Constant is a named scalar. Constants listed as parameters at emission
// time become function arguments instead of inlined literals.
type Constant struct {
	Value       float64
	DisplayName string
	TexName     string
	Slider      *Slider
}

// StateVariable is a scalar with an initial value; it contributes one entry
// to the derivative vector.
type StateVariable struct {
	Value       float64
	DisplayName string
	TexName     string
	Slider      *Slider
}

// Assignment is a named intermediate quantity.
type Assignment struct {
	Expr        *expr.Node
	DisplayName string
	TexName     string
}

// Stoich pairs a name with a signed coefficient. In a Reaction the name is
// the affected state variable; when folding a derivative it is the reaction.
type Stoich struct {
	Name        string
	Coefficient float64
}

// Reaction is a rate expression whose value is added, scaled by each
// coefficient, to the derivatives of the listed state variables.
type Reaction struct {
	Rate          *expr.Node
	Stoichiometry []Stoich
	DisplayName   string
	TexName       string
}

// Entry is a keyed collection element in insertion order.
type Entry[T any] struct {
	Key   string
	Value T
}

// Model is a mutable builder over immutable expression trees.
//
// Thread-safety: a Model is not safe for concurrent mutation. Clone it to
// hand a snapshot to another goroutine.
type Model struct {
	Name string

	doc         *expr.Doc
	constants   *orderedmap.OrderedMap[string, Constant]
	variables   *orderedmap.OrderedMap[string, StateVariable]
	assignments *orderedmap.OrderedMap[string, Assignment]
	reactions   *orderedmap.OrderedMap[string, Reaction]
}

// New creates an empty model whose expressions are allocated from doc.
func New(name string, doc *expr.Doc) *Model {
	if doc == nil {
		doc = expr.NewDoc()
	}
	return &Model{
		Name:        name,
		doc:         doc,
		constants:   orderedmap.New[string, Constant](),
		variables:   orderedmap.New[string, StateVariable](),
		assignments: orderedmap.New[string, Assignment](),
		reactions:   orderedmap.New[string, Reaction](),
	}
}

// Doc returns the identifier arena shared by the model's expressions.
func (m *Model) Doc() *expr.Doc {
	return m.doc
}

// Clone returns a copy whose collections can be mutated independently.
// Expression trees are immutable and shared.
func (m *Model) Clone() *Model {
	cl := New(m.Name, m.doc)
	copyInto(cl.constants, m.constants, func(c Constant) Constant {
		c.Slider = cloneSlider(c.Slider)
		return c
	})
	copyInto(cl.variables, m.variables, func(v StateVariable) StateVariable {
		v.Slider = cloneSlider(v.Slider)
		return v
	})
	copyInto(cl.assignments, m.assignments, func(a Assignment) Assignment { return a })
	copyInto(cl.reactions, m.reactions, func(r Reaction) Reaction {
		r.Stoichiometry = append([]Stoich(nil), r.Stoichiometry...)
		return r
	})
	return cl
}

func cloneSlider(s *Slider) *Slider {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

func copyInto[T any](dst, src *orderedmap.OrderedMap[string, T], clone func(T) T) {
	for pair := src.Oldest(); pair != nil; pair = pair.Next() {
		dst.Set(pair.Key, clone(pair.Value))
	}
}

func entries[T any](om *orderedmap.OrderedMap[string, T]) []Entry[T] {
	out := make([]Entry[T], 0, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Entry[T]{Key: pair.Key, Value: pair.Value})
	}
	return out
}

func keys[T any](om *orderedmap.OrderedMap[string, T]) []string {
	out := make([]string, 0, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Has reports whether key names an entity in any collection.
func (m *Model) Has(key string) bool {
	_, c := m.constants.Get(key)
	_, v := m.variables.Get(key)
	_, a := m.assignments.Get(key)
	_, r := m.reactions.Get(key)
	return c || v || a || r
}

func (m *Model) checkNew(collection, key string) error {
	if key == "" {
		return fmt.Errorf("%s: empty key", collection)
	}
	if m.Has(key) {
		return fmt.Errorf("%s %q: %w", collection, key, ErrDuplicateKey)
	}
	return nil
}

// AddConstant adds a constant. Keys are unique across all collections.
func (m *Model) AddConstant(key string, c Constant) error {
	if err := m.checkNew("constant", key); err != nil {
		return err
	}
	m.constants.Set(key, c)
	return nil
}

// UpdateConstant replaces an existing constant, keeping its position.
func (m *Model) UpdateConstant(key string, c Constant) error {
	if _, ok := m.constants.Get(key); !ok {
		return fmt.Errorf("constant %q: %w", key, ErrNotFound)
	}
	m.constants.Set(key, c)
	return nil
}

// RemoveConstant deletes a constant and reports whether it existed.
func (m *Model) RemoveConstant(key string) bool {
	_, ok := m.constants.Delete(key)
	return ok
}

// Constant returns the constant stored under key.
func (m *Model) Constant(key string) (Constant, bool) {
	return m.constants.Get(key)
}

// Constants returns the constants in insertion order.
func (m *Model) Constants() []Entry[Constant] {
	return entries(m.constants)
}

// AddVariable adds a state variable.
func (m *Model) AddVariable(key string, v StateVariable) error {
	if err := m.checkNew("variable", key); err != nil {
		return err
	}
	m.variables.Set(key, v)
	return nil
}

// UpdateVariable replaces an existing state variable.
func (m *Model) UpdateVariable(key string, v StateVariable) error {
	if _, ok := m.variables.Get(key); !ok {
		return fmt.Errorf("variable %q: %w", key, ErrNotFound)
	}
	m.variables.Set(key, v)
	return nil
}

// RemoveVariable deletes a state variable.
func (m *Model) RemoveVariable(key string) bool {
	_, ok := m.variables.Delete(key)
	return ok
}

// Variable returns the state variable stored under key.
func (m *Model) Variable(key string) (StateVariable, bool) {
	return m.variables.Get(key)
}

// Variables returns the state variables in declaration order, which is also
// the order of the packed state and derivative vectors.
func (m *Model) Variables() []Entry[StateVariable] {
	return entries(m.variables)
}

// VariableKeys returns the state-variable keys in declaration order.
func (m *Model) VariableKeys() []string {
	return keys(m.variables)
}

// AddAssignment adds a named expression.
func (m *Model) AddAssignment(key string, a Assignment) error {
	if err := m.checkNew("assignment", key); err != nil {
		return err
	}
	if a.Expr == nil {
		return fmt.Errorf("assignment %q: nil expression", key)
	}
	m.assignments.Set(key, a)
	return nil
}

// UpdateAssignment replaces an existing assignment.
func (m *Model) UpdateAssignment(key string, a Assignment) error {
	if _, ok := m.assignments.Get(key); !ok {
		return fmt.Errorf("assignment %q: %w", key, ErrNotFound)
	}
	if a.Expr == nil {
		return fmt.Errorf("assignment %q: nil expression", key)
	}
	m.assignments.Set(key, a)
	return nil
}

// RemoveAssignment deletes an assignment.
func (m *Model) RemoveAssignment(key string) bool {
	_, ok := m.assignments.Delete(key)
	return ok
}

// Assignment returns the assignment stored under key.
func (m *Model) Assignment(key string) (Assignment, bool) {
	return m.assignments.Get(key)
}

// Assignments returns the assignments in insertion order.
func (m *Model) Assignments() []Entry[Assignment] {
	return entries(m.assignments)
}

// AddReaction adds a reaction.
func (m *Model) AddReaction(key string, r Reaction) error {
	if err := m.checkNew("reaction", key); err != nil {
		return err
	}
	if r.Rate == nil {
		return fmt.Errorf("reaction %q: nil rate", key)
	}
	r.Stoichiometry = append([]Stoich(nil), r.Stoichiometry...)
	m.reactions.Set(key, r)
	return nil
}

// UpdateReaction replaces an existing reaction.
func (m *Model) UpdateReaction(key string, r Reaction) error {
	if _, ok := m.reactions.Get(key); !ok {
		return fmt.Errorf("reaction %q: %w", key, ErrNotFound)
	}
	if r.Rate == nil {
		return fmt.Errorf("reaction %q: nil rate", key)
	}
	r.Stoichiometry = append([]Stoich(nil), r.Stoichiometry...)
	m.reactions.Set(key, r)
	return nil
}

// RemoveReaction deletes a reaction.
func (m *Model) RemoveReaction(key string) bool {
	_, ok := m.reactions.Delete(key)
	return ok
}

// Reaction returns the reaction stored under key.
func (m *Model) Reaction(key string) (Reaction, bool) {
	return m.reactions.Get(key)
}

// Reactions returns the reactions in insertion order.
func (m *Model) Reactions() []Entry[Reaction] {
	return entries(m.reactions)
}

// ReplaceNode substitutes repl for the expression node with the given id,
// searching assignments then reactions. It reports the key of the entity
// that changed; ok is false if no expression contains target.
func (m *Model) ReplaceNode(target expr.ID, repl *expr.Node) (key string, ok bool) {
	for pair := m.assignments.Oldest(); pair != nil; pair = pair.Next() {
		if next, changed := pair.Value.Expr.Replace(target, repl); changed {
			a := pair.Value
			a.Expr = next
			m.assignments.Set(pair.Key, a)
			return pair.Key, true
		}
	}
	for pair := m.reactions.Oldest(); pair != nil; pair = pair.Next() {
		if next, changed := pair.Value.Rate.Replace(target, repl); changed {
			r := pair.Value
			r.Rate = next
			m.reactions.Set(pair.Key, r)
			return pair.Key, true
		}
	}
	return "", false
}
