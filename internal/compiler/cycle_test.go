package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/odegen/internal/ir"
)

func assign(key string, refs ...string) ir.AssignmentSpec {
	args := make([]ir.ExprSpec, len(refs))
	for i, r := range refs {
		args[i] = name(r)
	}
	return ir.AssignmentSpec{Key: key, Expr: ir.ExprSpec{Op: "add", Args: args}}
}

func cycles(ws []DependencyWarning) []DependencyWarning {
	var out []DependencyWarning
	for _, w := range ws {
		if len(w.Path) > 0 {
			out = append(out, w)
		}
	}
	return out
}

// TestAnalyzeDependencies_Clean tests that a well-formed model produces no warnings.
func TestAnalyzeDependencies_Clean(t *testing.T) {
	assert.Empty(t, AnalyzeDependencies(validSpec()))
}

// TestAnalyzeDependencies_Empty tests empty input.
func TestAnalyzeDependencies_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeDependencies(ir.ModelSpec{}))
}

// TestAnalyzeDependencies_DAG tests that a chain produces no cycle warnings.
func TestAnalyzeDependencies_DAG(t *testing.T) {
	spec := validSpec()
	spec.Assignments = []ir.AssignmentSpec{assign("b", "a"), assign("a", "x"), assign("c", "a", "b")}

	assert.Empty(t, cycles(AnalyzeDependencies(spec)))
}

// TestAnalyzeDependencies_SelfLoop tests a self-referencing assignment.
func TestAnalyzeDependencies_SelfLoop(t *testing.T) {
	spec := validSpec()
	spec.Assignments = []ir.AssignmentSpec{assign("s", "s", "x")}

	ws := cycles(AnalyzeDependencies(spec))
	require.Len(t, ws, 1)
	assert.Equal(t, []string{"s", "s"}, ws[0].Path)
	assert.Equal(t, LevelWarning, ws[0].Level)
	assert.Contains(t, ws[0].Message, "refers to itself")
}

// TestAnalyzeDependencies_TwoNodeCycle tests the cycle the sorter cannot resolve.
func TestAnalyzeDependencies_TwoNodeCycle(t *testing.T) {
	spec := validSpec()
	spec.Assignments = []ir.AssignmentSpec{assign("p", "q"), assign("q", "p")}

	ws := cycles(AnalyzeDependencies(spec))
	require.Len(t, ws, 1)
	assert.Equal(t, []string{"p", "q", "p"}, ws[0].Path)
	assert.Equal(t, "dependency cycle p → q → p; statement order is best-effort", ws[0].Message)
}

// TestAnalyzeDependencies_ThreeNodeCycleThroughReaction tests a cycle that
// spans assignments and reactions.
func TestAnalyzeDependencies_ThreeNodeCycleThroughReaction(t *testing.T) {
	spec := validSpec()
	spec.Assignments = []ir.AssignmentSpec{assign("a", "loss"), assign("b", "a")}
	spec.Reactions[0].Rate = name("b")

	ws := cycles(AnalyzeDependencies(spec))
	require.Len(t, ws, 1)
	assert.Equal(t, []string{"a", "loss", "b", "a"}, ws[0].Path)
}

// TestAnalyzeDependencies_MultipleCycles tests independent cycles in declaration order.
func TestAnalyzeDependencies_MultipleCycles(t *testing.T) {
	spec := validSpec()
	spec.Assignments = []ir.AssignmentSpec{
		assign("a", "b"), assign("b", "a"),
		assign("ok", "x"),
		assign("c", "d"), assign("d", "c"),
	}

	ws := cycles(AnalyzeDependencies(spec))
	require.Len(t, ws, 2)
	assert.Equal(t, "a", ws[0].Subject)
	assert.Equal(t, "c", ws[1].Subject)
}

// TestAnalyzeDependencies_Unresolved tests reporting of undeclared names.
func TestAnalyzeDependencies_Unresolved(t *testing.T) {
	spec := validSpec()
	spec.Assignments = []ir.AssignmentSpec{assign("a", "x", "time", "ghost")}

	ws := AnalyzeDependencies(spec)
	require.Len(t, ws, 1)
	assert.Equal(t, "a", ws[0].Subject)
	assert.Equal(t, `a refers to undeclared name "ghost"`, ws[0].Message)
}

// TestAnalyzeDependencies_UntouchedVariable tests the zero-derivative notice.
func TestAnalyzeDependencies_UntouchedVariable(t *testing.T) {
	spec := validSpec()
	spec.Variables = append(spec.Variables, ir.QuantitySpec{Key: "y"})

	ws := AnalyzeDependencies(spec)
	require.Len(t, ws, 1)
	assert.Equal(t, LevelInfo, ws[0].Level)
	assert.Equal(t, "y", ws[0].Subject)
}

func TestTarjanSCC_DAG(t *testing.T) {
	g := dependencyGraph{
		order: []string{"a", "b", "c"},
		edges: map[string][]string{"b": {"a"}, "c": {"b"}},
	}
	sccs := tarjanSCC(g)
	assert.Len(t, sccs, 3)
	for _, scc := range sccs {
		assert.Len(t, scc, 1)
	}
}

func TestReconstructCyclePath_Empty(t *testing.T) {
	assert.Empty(t, reconstructCyclePath(nil, dependencyGraph{}))
}
