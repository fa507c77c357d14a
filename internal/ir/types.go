package ir

// ModelSpec is the serializable form of a model. Slices keep declaration
// order, which fixes the state-vector layout and the sorter's input queue.
type ModelSpec struct {
	Name        string           `json:"name"`
	Constants   []QuantitySpec   `json:"constants"`
	Variables   []QuantitySpec   `json:"variables"`
	Assignments []AssignmentSpec `json:"assignments"`
	Reactions   []ReactionSpec   `json:"reactions"`
}

// QuantitySpec describes a constant or a state variable.
type QuantitySpec struct {
	Key         string      `json:"key"`
	Value       float64     `json:"value"`
	DisplayName string      `json:"display_name,omitempty"`
	TexName     string      `json:"tex_name,omitempty"`
	Slider      *SliderSpec `json:"slider,omitempty"`
}

// SliderSpec is opaque UI payload carried alongside a quantity.
type SliderSpec struct {
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
	Step        string `json:"step,omitempty"`
	Description string `json:"description,omitempty"`
}

// AssignmentSpec is a derived quantity.
type AssignmentSpec struct {
	Key         string   `json:"key"`
	Expr        ExprSpec `json:"expr"`
	DisplayName string   `json:"display_name,omitempty"`
	TexName     string   `json:"tex_name,omitempty"`
}

// ReactionSpec is a rate expression with its stoichiometry.
type ReactionSpec struct {
	Key           string       `json:"key"`
	Rate          ExprSpec     `json:"rate"`
	Stoichiometry []StoichSpec `json:"stoichiometry"`
	DisplayName   string       `json:"display_name,omitempty"`
	TexName       string       `json:"tex_name,omitempty"`
}

// StoichSpec is one (state variable, coefficient) entry.
type StoichSpec struct {
	Target      string  `json:"target"`
	Coefficient float64 `json:"coefficient"`
}

// ExprSpec is a serialized expression tree. Op is an operator name from the
// expression catalog ("name", "num", "add", "log", ...). Name is set for
// "name", Value for "num"; Args holds children in order. Log and root take
// [child, base].
type ExprSpec struct {
	Op    string     `json:"op"`
	Name  string     `json:"name,omitempty"`
	Value float64    `json:"value,omitempty"`
	Args  []ExprSpec `json:"args,omitempty"`
}

// Canonical returns the hashable form of the model.
func (s ModelSpec) Canonical() Object {
	return Object{
		"name":        String(s.Name),
		"constants":   quantities(s.Constants),
		"variables":   quantities(s.Variables),
		"assignments": assignments(s.Assignments),
		"reactions":   reactions(s.Reactions),
		"ir_version":  String(IRVersion),
	}
}

// Canonical returns the hashable form of the expression.
func (e ExprSpec) Canonical() Object {
	obj := Object{"op": String(e.Op)}
	switch e.Op {
	case "name":
		obj["name"] = String(e.Name)
	case "num":
		obj["value"] = Number(e.Value)
	}
	if len(e.Args) > 0 {
		args := make(Array, len(e.Args))
		for i, a := range e.Args {
			args[i] = a.Canonical()
		}
		obj["args"] = args
	}
	return obj
}

func named(key, display, tex string) Object {
	obj := Object{"key": String(key)}
	if display != "" {
		obj["display_name"] = String(display)
	}
	if tex != "" {
		obj["tex_name"] = String(tex)
	}
	return obj
}

func quantities(qs []QuantitySpec) Array {
	arr := make(Array, len(qs))
	for i, q := range qs {
		obj := named(q.Key, q.DisplayName, q.TexName)
		obj["value"] = Number(q.Value)
		if q.Slider != nil {
			obj["slider"] = Object{
				"min":         String(q.Slider.Min),
				"max":         String(q.Slider.Max),
				"step":        String(q.Slider.Step),
				"description": String(q.Slider.Description),
			}
		}
		arr[i] = obj
	}
	return arr
}

func assignments(as []AssignmentSpec) Array {
	arr := make(Array, len(as))
	for i, a := range as {
		obj := named(a.Key, a.DisplayName, a.TexName)
		obj["expr"] = a.Expr.Canonical()
		arr[i] = obj
	}
	return arr
}

func reactions(rs []ReactionSpec) Array {
	arr := make(Array, len(rs))
	for i, r := range rs {
		obj := named(r.Key, r.DisplayName, r.TexName)
		obj["rate"] = r.Rate.Canonical()
		stoich := make(Array, len(r.Stoichiometry))
		for j, s := range r.Stoichiometry {
			stoich[j] = Object{
				"target":      String(s.Target),
				"coefficient": Number(s.Coefficient),
			}
		}
		obj["stoichiometry"] = stoich
		arr[i] = obj
	}
	return arr
}
