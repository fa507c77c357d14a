package model

// TimeName is the independent variable, bound by the generated function's
// first argument.
const TimeName = "time"

// Item is a named quantity and the names it requires.
type Item struct {
	Name     string
	Requires map[string]struct{}
}

// SortItems orders items so that each one's requirements are met by the
// available names or by items earlier in the order.
//
// Items are taken from a work queue. A satisfied item is appended to the
// order and becomes available; an unsatisfied one goes to the back of the
// queue and is remembered as the last deferred item. An unsatisfied item
// that is still the last deferred one when it comes round again (nothing
// else was deferred since) is appended anyway and sorting stops. Total work
// is capped at len(items)^2 steps.
//
// This is best effort. Only the immediate-repeat oscillation is detected;
// a cycle among two or more items defers each of them in turn until the cap
// is reached, and those items are left out of the order. Dependency
// diagnostics for such cycles live in the compiler package.
func SortItems(items []Item, available map[string]struct{}) []string {
	avail := make(map[string]struct{}, len(available)+len(items))
	for name := range available {
		avail[name] = struct{}{}
	}

	queue := make([]Item, len(items))
	copy(queue, items)

	order := make([]string, 0, len(items))
	maxIters := len(items) * len(items)
	lastDeferred := ""

	for i := 0; i < maxIters && len(queue) > 0; i++ {
		item := queue[0]
		queue = queue[1:]

		if satisfied(item.Requires, avail) {
			avail[item.Name] = struct{}{}
			order = append(order, item.Name)
			continue
		}
		if item.Name == lastDeferred {
			order = append(order, item.Name)
			break
		}
		queue = append(queue, item)
		lastDeferred = item.Name
	}
	return order
}

func satisfied(requires, avail map[string]struct{}) bool {
	for name := range requires {
		if _, ok := avail[name]; !ok {
			return false
		}
	}
	return true
}

// SortDependencies orders assignments and reactions for emission. The
// queue starts with assignments then reactions, each in insertion order;
// constants, state variables and the time argument are available from the
// start.
func (m *Model) SortDependencies() []string {
	return SortItems(m.items(), m.baseNames())
}

func (m *Model) items() []Item {
	items := make([]Item, 0, m.assignments.Len()+m.reactions.Len())
	for pair := m.assignments.Oldest(); pair != nil; pair = pair.Next() {
		req := make(map[string]struct{})
		pair.Value.Expr.CollectFreeVariables(req)
		items = append(items, Item{Name: pair.Key, Requires: req})
	}
	for pair := m.reactions.Oldest(); pair != nil; pair = pair.Next() {
		req := make(map[string]struct{})
		pair.Value.Rate.CollectFreeVariables(req)
		items = append(items, Item{Name: pair.Key, Requires: req})
	}
	return items
}

func (m *Model) baseNames() map[string]struct{} {
	names := make(map[string]struct{}, m.constants.Len()+m.variables.Len()+1)
	names[TimeName] = struct{}{}
	for pair := m.constants.Oldest(); pair != nil; pair = pair.Next() {
		names[pair.Key] = struct{}{}
	}
	for pair := m.variables.Oldest(); pair != nil; pair = pair.Next() {
		names[pair.Key] = struct{}{}
	}
	return names
}
