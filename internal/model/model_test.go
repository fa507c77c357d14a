package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/odegen/internal/expr"
)

// TestModel_KeysUniqueAcrossCollections tests duplicate detection.
func TestModel_KeysUniqueAcrossCollections(t *testing.T) {
	d := expr.NewDoc()
	m := New("m", d)
	require.NoError(t, m.AddConstant("k", Constant{Value: 1}))

	err := m.AddVariable("k", StateVariable{})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	err = m.AddAssignment("k", Assignment{Expr: d.Num(1)})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	assert.Error(t, m.AddConstant("", Constant{}))
}

// TestModel_UpdateRemove tests mutation of existing entries.
func TestModel_UpdateRemove(t *testing.T) {
	d := expr.NewDoc()
	m := New("m", d)
	require.NoError(t, m.AddConstant("a", Constant{Value: 1}))
	require.NoError(t, m.AddConstant("b", Constant{Value: 2}))

	require.NoError(t, m.UpdateConstant("a", Constant{Value: 5}))
	c, ok := m.Constant("a")
	require.True(t, ok)
	assert.Equal(t, 5.0, c.Value)

	keys := []string{}
	for _, e := range m.Constants() {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"a", "b"}, keys, "update keeps position")

	assert.ErrorIs(t, m.UpdateConstant("zz", Constant{}), ErrNotFound)
	assert.ErrorIs(t, m.UpdateVariable("zz", StateVariable{}), ErrNotFound)
	assert.ErrorIs(t, m.UpdateAssignment("zz", Assignment{Expr: d.Num(1)}), ErrNotFound)
	assert.ErrorIs(t, m.UpdateReaction("zz", Reaction{Rate: d.Num(1)}), ErrNotFound)

	assert.True(t, m.RemoveConstant("a"))
	assert.False(t, m.RemoveConstant("a"))
	assert.False(t, m.Has("a"))
}

// TestModel_NilExpressionsRejected tests that expressions are required.
func TestModel_NilExpressionsRejected(t *testing.T) {
	m := New("m", nil)
	assert.Error(t, m.AddAssignment("a", Assignment{}))
	assert.Error(t, m.AddReaction("r", Reaction{}))
	assert.NotNil(t, m.Doc())
}

// TestModel_CloneIsIndependent tests that clones do not share collections.
func TestModel_CloneIsIndependent(t *testing.T) {
	d := expr.NewDoc()
	m := New("m", d)
	require.NoError(t, m.AddVariable("x", StateVariable{Value: 1, Slider: &Slider{Min: "0", Max: "10"}}))
	require.NoError(t, m.AddReaction("r", Reaction{Rate: d.Name("x"), Stoichiometry: []Stoich{{"x", -1}}}))

	cl := m.Clone()
	require.NoError(t, cl.AddConstant("k", Constant{Value: 3}))
	require.NoError(t, cl.UpdateVariable("x", StateVariable{Value: 9}))

	assert.False(t, m.Has("k"))
	v, _ := m.Variable("x")
	assert.Equal(t, 1.0, v.Value)
	assert.Equal(t, "10", v.Slider.Max)

	r, _ := cl.Reaction("r")
	r.Stoichiometry[0].Coefficient = 5
	orig, _ := m.Reaction("r")
	assert.Equal(t, -1.0, orig.Stoichiometry[0].Coefficient)
	assert.Same(t, m.Doc(), cl.Doc())
}

// TestModel_ReplaceNode tests editing an expression by node id.
func TestModel_ReplaceNode(t *testing.T) {
	d := expr.NewDoc()
	m := New("m", d)
	require.NoError(t, m.AddVariable("x", StateVariable{}))
	target := d.Name("x")
	require.NoError(t, m.AddAssignment("a", Assignment{Expr: d.Num(1)}))
	require.NoError(t, m.AddReaction("r", Reaction{Rate: d.Mul(d.Num(2), target)}))

	key, ok := m.ReplaceNode(target.ID(), d.Name("a"))
	require.True(t, ok)
	assert.Equal(t, "r", key)

	r, _ := m.Reaction("r")
	assert.Equal(t, "2 * a", r.Rate.JS())

	_, ok = m.ReplaceNode(9999, d.Num(0))
	assert.False(t, ok)
}

// TestModel_NameMap tests preferred-name resolution per backend.
func TestModel_NameMap(t *testing.T) {
	d := expr.NewDoc()
	m := New("m", d)
	require.NoError(t, m.AddConstant("k1", Constant{DisplayName: "rate", TexName: `k_1`}))
	require.NoError(t, m.AddVariable("x", StateVariable{TexName: `X`}))
	require.NoError(t, m.AddAssignment("a", Assignment{Expr: d.Num(1), DisplayName: "total"}))
	require.NoError(t, m.AddReaction("r", Reaction{Rate: d.Num(1)}))

	py := m.NameMap(expr.BackendPython)
	assert.Equal(t, "rate", py.Resolve("k1"))
	assert.Equal(t, "x", py.Resolve("x"))
	assert.Equal(t, "total", py.Resolve("a"))
	assert.Equal(t, "r", py.Resolve("r"))

	tex := m.NameMap(expr.BackendTeX)
	assert.Equal(t, `k_1`, tex.Resolve("k1"))
	assert.Equal(t, `X`, tex.Resolve("x"))
	assert.Equal(t, "total", tex.Resolve("a"), "tex falls back to the display name")

	assert.Empty(t, m.NameMap(expr.BackendJS))
}

// TestModel_Validate tests that all problems are reported together.
func TestModel_Validate(t *testing.T) {
	d := expr.NewDoc()
	m := New("m", d)
	require.NoError(t, m.AddConstant("1k", Constant{}))
	require.NoError(t, m.AddConstant("time", Constant{}))
	require.NoError(t, m.AddVariable("x", StateVariable{DisplayName: "has space"}))
	require.NoError(t, m.AddVariable("y", StateVariable{DisplayName: "z"}))
	require.NoError(t, m.AddAssignment("z", Assignment{Expr: d.Num(1)}))
	require.NoError(t, m.AddReaction("r", Reaction{Rate: d.Num(1), Stoichiometry: []Stoich{{"z", 1}}}))

	errs := m.Validate()
	codes := make(map[string]string)
	for _, e := range errs {
		codes[e.Field] = e.Code
	}

	assert.Equal(t, ErrInvalidKey, codes["constants.1k"])
	assert.Equal(t, ErrReservedName, codes["constants.time"])
	assert.Equal(t, ErrInvalidDisplayName, codes["variables.x.display_name"])
	assert.Equal(t, ErrNameCollision, codes["assignments.z"])
	assert.Equal(t, ErrStoichTarget, codes["reactions.r.stoichiometry[0]"])
	assert.Len(t, errs, 5)
}

// TestModel_ValidateClean tests that a well-formed model has no errors.
func TestModel_ValidateClean(t *testing.T) {
	m := lotkaVolterra(t)
	assert.Empty(t, m.Validate())
}

// TestValidationError_Format tests the error string.
func TestValidationError_Format(t *testing.T) {
	err := ValidationError{Field: "constants.k", Message: "bad", Code: ErrInvalidKey}
	assert.Equal(t, "[E201] constants.k: bad", err.Error())

	errs := ValidationErrors{err, {Field: "f", Message: "m", Code: ErrMissingExpr}}
	assert.Equal(t, "[E201] constants.k: bad; [E205] f: m", errs.Error())
}
