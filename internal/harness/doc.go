// Package harness runs model scenarios as executable contract tests.
//
// A scenario loads one model from CUE files, checks properties of the
// assembled system, and snapshots the emitted source per backend.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: lotka_volterra
//	description: "Predator-prey dynamics"
//	models:
//	  - ../models/lotka_volterra.cue
//	model: lotka_volterra
//	params: [alpha, beta]
//	golden: [python, js, tex]
//	assertions:
//	  - type: order
//	    order: [growth, predation, conversion, death]
//	  - type: derivatives
//	    semantics: python
//	    state: [10, 5]
//	    expect: [9, -15]
//	  - type: free_variables
//	    subject: predation
//	    names: [beta, predator, prey]
//	  - type: warnings
//	    count: 0
//
// # Assertion Types
//
//   - order: the dependency sorter's statement order
//   - derivatives: the right-hand side evaluated at a state, within tolerance
//   - free_variables: the sorted free names of one expression
//   - warnings: dependency warnings by count and message substring
//   - initial_conditions: the y0 mapping
//   - emit_contains: substrings of one backend's emitted source
//
// # Golden Files
//
// Every backend listed under golden is emitted and compared against
// testdata/golden/{name}.{backend}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
