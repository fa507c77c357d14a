package harness

import "github.com/roach88/odegen/internal/compiler"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Model is the name of the model under test.
	Model string `json:"model"`

	// Hash is the content hash of the compiled model.
	Hash string `json:"hash"`

	// Order is the statement order chosen by the dependency sorter.
	Order []string `json:"order"`

	// Warnings are the dependency warnings for the model.
	Warnings []compiler.DependencyWarning `json:"warnings,omitempty"`

	// Emitted holds the source per golden backend, keyed by backend name.
	Emitted map[string]string `json:"-"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Order:   []string{},
		Emitted: make(map[string]string),
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
