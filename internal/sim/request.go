package sim

import (
	"context"
	"fmt"

	"github.com/roach88/odegen/internal/expr"
	"github.com/roach88/odegen/internal/model"
)

// DefaultMethod is the integration method requested when none is given.
const DefaultMethod = "LSODA"

// Request is one integration job for the execution collaborator.
type Request struct {
	ID      string    `json:"request_id,omitempty"`
	Backend string    `json:"backend"`
	Source  string    `json:"model"`
	Initial []float64 `json:"initial_values"`
	TEnd    float64   `json:"t_end"`
	Pars    []float64 `json:"pars"`
	Method  string    `json:"method,omitempty"`
}

// Result is the collaborator's answer: one row of state values per time point.
type Result struct {
	RequestID string      `json:"request_id,omitempty"`
	Time      []float64   `json:"time"`
	Values    [][]float64 `json:"values"`
	Message   string      `json:"message,omitempty"`
}

// Executor runs a request to completion. Implementations may block; they
// should return promptly with ctx.Err() once ctx is cancelled.
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, req Request) (Result, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// RequestOptions selects what NewRequest emits and sends.
type RequestOptions struct {
	Backend expr.Backend
	Params  []string           // constants passed as arguments, in order
	Values  map[string]float64 // overrides for initial values and parameters by key
	TEnd    float64
	Method  string
}

// NewRequest emits the model for an imperative backend and packs initial
// values and parameter values in the emitted function's argument order.
func NewRequest(m *model.Model, opts RequestOptions) (Request, error) {
	if opts.Backend == expr.BackendTeX {
		return Request{}, fmt.Errorf("new request: backend %s is not executable", opts.Backend)
	}
	if opts.TEnd <= 0 {
		return Request{}, fmt.Errorf("new request: t_end must be positive, got %v", opts.TEnd)
	}

	source, err := m.Emit(opts.Backend, opts.Params)
	if err != nil {
		return Request{}, fmt.Errorf("new request: %w", err)
	}

	req := Request{
		Backend: opts.Backend.String(),
		Source:  source,
		TEnd:    opts.TEnd,
		Method:  opts.Method,
	}
	if req.Method == "" {
		req.Method = DefaultMethod
	}

	used := make(map[string]bool, len(opts.Values))
	for _, e := range m.Variables() {
		v, ok := opts.Values[e.Key]
		if !ok {
			v = e.Value.Value
		}
		used[e.Key] = ok
		req.Initial = append(req.Initial, v)
	}
	for _, p := range opts.Params {
		c, _ := m.Constant(p)
		v, ok := opts.Values[p]
		if !ok {
			v = c.Value
		}
		used[p] = ok
		req.Pars = append(req.Pars, v)
	}
	for k := range opts.Values {
		if !used[k] {
			return Request{}, fmt.Errorf("new request: %q is neither a state variable nor a parameter", k)
		}
	}
	return req, nil
}
