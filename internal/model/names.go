package model

import "github.com/roach88/odegen/internal/expr"

// NameMap builds the identifier map used by one emission. Python code uses
// display names; TeX uses the typeset name, then the display name. JS
// renders internal keys and gets an empty map. Keys without a preferred
// name are omitted and resolve to themselves.
func (m *Model) NameMap(b expr.Backend) expr.Names {
	names := make(expr.Names)
	if b == expr.BackendJS {
		return names
	}
	add := func(key, display, tex string) {
		preferred := display
		if b == expr.BackendTeX && tex != "" {
			preferred = tex
		}
		if preferred != "" {
			names[key] = preferred
		}
	}
	for pair := m.constants.Oldest(); pair != nil; pair = pair.Next() {
		add(pair.Key, pair.Value.DisplayName, pair.Value.TexName)
	}
	for pair := m.variables.Oldest(); pair != nil; pair = pair.Next() {
		add(pair.Key, pair.Value.DisplayName, pair.Value.TexName)
	}
	for pair := m.assignments.Oldest(); pair != nil; pair = pair.Next() {
		add(pair.Key, pair.Value.DisplayName, pair.Value.TexName)
	}
	for pair := m.reactions.Oldest(); pair != nil; pair = pair.Next() {
		add(pair.Key, pair.Value.DisplayName, pair.Value.TexName)
	}
	return names
}
