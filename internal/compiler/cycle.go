package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/odegen/internal/ir"
)

// Warning levels.
const (
	LevelWarning = "warning"
	LevelInfo    = "info"
)

// DependencyWarning reports a dependency problem the sorter tolerates.
//
// Cycles and unresolved names are warnings, not errors: emission still
// succeeds, but the statement order is best-effort and the emitted code
// may read a name before it is assigned.
type DependencyWarning struct {
	Path    []string `json:"path,omitempty"` // cycle path: ["a", "b", "a"]
	Subject string   `json:"subject"`        // assignment, reaction or variable key
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// AnalyzeDependencies performs static analysis of the assignment and
// reaction dependency graph.
//
// The algorithm:
//  1. Build item -> required item edges from each expression's free names
//  2. Find strongly connected components with Tarjan's algorithm
//  3. Report each SCC with size > 1, and each self-loop, as a cycle
//  4. Report free names that resolve to nothing declared
//  5. Report state variables no reaction touches (their derivative is 0)
//
// Output order follows declaration order.
func AnalyzeDependencies(spec ir.ModelSpec) []DependencyWarning {
	graph := buildDependencyGraph(spec)

	var warnings []DependencyWarning
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}

	declared := map[string]bool{"time": true}
	for _, q := range spec.Constants {
		declared[q.Key] = true
	}
	for _, q := range spec.Variables {
		declared[q.Key] = true
	}
	for _, k := range graph.order {
		declared[k] = true
	}
	for _, k := range graph.order {
		for _, name := range graph.free[k] {
			if !declared[name] {
				warnings = append(warnings, DependencyWarning{
					Subject: k,
					Message: fmt.Sprintf("%s refers to undeclared name %q", k, name),
					Level:   LevelWarning,
				})
			}
		}
	}

	touched := make(map[string]bool)
	for _, r := range spec.Reactions {
		for _, s := range r.Stoichiometry {
			if s.Coefficient != 0 {
				touched[s.Target] = true
			}
		}
	}
	for _, q := range spec.Variables {
		if !touched[q.Key] {
			warnings = append(warnings, DependencyWarning{
				Subject: q.Key,
				Message: fmt.Sprintf("no reaction changes %s; its derivative is 0", q.Key),
				Level:   LevelInfo,
			})
		}
	}

	return warnings
}

// dependencyGraph maps item key -> item keys it reads.
type dependencyGraph struct {
	order []string            // declaration order: assignments, then reactions
	edges map[string][]string // item -> required items
	free  map[string][]string // item -> all free names, sorted
}

func buildDependencyGraph(spec ir.ModelSpec) dependencyGraph {
	g := dependencyGraph{edges: make(map[string][]string), free: make(map[string][]string)}
	exprs := make(map[string]ir.ExprSpec)
	for _, a := range spec.Assignments {
		g.order = append(g.order, a.Key)
		exprs[a.Key] = a.Expr
	}
	for _, r := range spec.Reactions {
		g.order = append(g.order, r.Key)
		exprs[r.Key] = r.Rate
	}

	for _, k := range g.order {
		names := make(map[string]struct{})
		freeNames(exprs[k], names)
		sorted := make([]string, 0, len(names))
		for n := range names {
			sorted = append(sorted, n)
		}
		slices.Sort(sorted)
		g.free[k] = sorted
		for _, n := range sorted {
			if _, ok := exprs[n]; ok {
				g.edges[k] = append(g.edges[k], n)
			}
		}
	}
	return g
}

func freeNames(e ir.ExprSpec, acc map[string]struct{}) {
	if e.Op == "name" {
		acc[e.Name] = struct{}{}
		return
	}
	for _, a := range e.Args {
		freeNames(a, acc)
	}
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph.edges[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Members of each SCC are returned in declaration order.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)
	position := make(map[string]int, len(graph.order))
	for i, k := range graph.order {
		position[k] = i
	}

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root: pop its component.
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.SortFunc(scc, func(a, b string) int { return position[a] - position[b] })
			sccs = append(sccs, scc)
		}
	}

	for _, node := range graph.order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	slices.SortFunc(sccs, func(a, b []string) int { return position[a[0]] - position[b[0]] })
	return sccs
}

func cycleSCCToWarning(scc []string, graph dependencyGraph) DependencyWarning {
	if len(scc) == 1 {
		k := scc[0]
		return DependencyWarning{
			Path:    []string{k, k},
			Subject: k,
			Message: fmt.Sprintf("%s refers to itself; it is emitted last", k),
			Level:   LevelWarning,
		}
	}

	path := reconstructCyclePath(scc, graph)
	return DependencyWarning{
		Path:    path,
		Subject: scc[0],
		Message: fmt.Sprintf("dependency cycle %s; statement order is best-effort", strings.Join(path, " → ")),
		Level:   LevelWarning,
	}
}

// reconstructCyclePath walks edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph.edges[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
