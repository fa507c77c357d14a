package sim

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/odegen/internal/logging"
)

func newTestDispatcher(t *testing.T, exec Executor, ids ...string) (*Dispatcher, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	d := NewDispatcher(exec,
		WithIDGenerator(NewFixedGenerator(ids...)),
		WithMetrics(NewMetrics(reg)),
		WithLogger(logging.NewNop()),
	)
	return d, reg
}

// drain closes the dispatcher and collects every delivered response.
func drain(d *Dispatcher) []Response {
	done := make(chan []Response)
	go func() {
		var out []Response
		for r := range d.Responses() {
			out = append(out, r)
		}
		done <- out
	}()
	d.Close()
	return <-done
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, outcome string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if outcome == "" {
				return m.GetCounter().GetValue()
			}
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func echo(ctx context.Context, req Request) (Result, error) {
	return Result{Time: []float64{0, req.TEnd}, Values: [][]float64{req.Initial, req.Initial}}, nil
}

// TestDispatcher_DeliversResponse tests the single-request path.
func TestDispatcher_DeliversResponse(t *testing.T) {
	d, reg := newTestDispatcher(t, ExecutorFunc(echo), "req-1")

	id, err := d.Submit(context.Background(), "plot", Request{Initial: []float64{1}, TEnd: 5})
	require.NoError(t, err)
	assert.Equal(t, "req-1", id)

	got := drain(d)
	require.Len(t, got, 1)
	assert.Equal(t, "plot", got[0].Key)
	assert.NoError(t, got[0].Err)
	assert.Equal(t, "req-1", got[0].Result.RequestID)
	assert.Equal(t, []float64{0, 5}, got[0].Result.Time)

	assert.Equal(t, 1.0, counterValue(t, reg, "odegen_sim_requests_submitted_total", ""))
	assert.Equal(t, 1.0, counterValue(t, reg, "odegen_sim_requests_finished_total", OutcomeDelivered))
}

// TestDispatcher_LastRequestWins tests that a superseded request is
// cancelled and its response dropped.
func TestDispatcher_LastRequestWins(t *testing.T) {
	started := make(chan struct{})
	exec := ExecutorFunc(func(ctx context.Context, req Request) (Result, error) {
		if req.ID == "req-1" {
			close(started)
			<-ctx.Done()
			return Result{}, ctx.Err()
		}
		return echo(ctx, req)
	})
	d, reg := newTestDispatcher(t, exec, "req-1", "req-2")

	_, err := d.Submit(context.Background(), "plot", Request{TEnd: 1})
	require.NoError(t, err)
	<-started
	_, err = d.Submit(context.Background(), "plot", Request{TEnd: 2})
	require.NoError(t, err)

	got := drain(d)
	require.Len(t, got, 1)
	assert.Equal(t, "req-2", got[0].Request.ID)
	assert.Equal(t, 1.0, counterValue(t, reg, "odegen_sim_requests_finished_total", OutcomeStale))
	assert.Equal(t, 1.0, counterValue(t, reg, "odegen_sim_requests_finished_total", OutcomeDelivered))
}

// TestDispatcher_IndependentKeys tests that keys do not supersede each other.
func TestDispatcher_IndependentKeys(t *testing.T) {
	d, _ := newTestDispatcher(t, ExecutorFunc(echo), "a-1", "b-1")

	_, err := d.Submit(context.Background(), "a", Request{TEnd: 1})
	require.NoError(t, err)
	_, err = d.Submit(context.Background(), "b", Request{TEnd: 1})
	require.NoError(t, err)

	got := drain(d)
	keys := []string{}
	for _, r := range got {
		keys = append(keys, r.Key)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b"}, keys)
}

// TestDispatcher_ExecutorError tests that failures of the latest request are delivered.
func TestDispatcher_ExecutorError(t *testing.T) {
	boom := errors.New("integration diverged")
	exec := ExecutorFunc(func(context.Context, Request) (Result, error) { return Result{}, boom })
	d, reg := newTestDispatcher(t, exec, "req-1")

	_, err := d.Submit(context.Background(), "plot", Request{})
	require.NoError(t, err)

	got := drain(d)
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, boom)
	assert.Equal(t, 1.0, counterValue(t, reg, "odegen_sim_requests_finished_total", OutcomeFailed))
}

// TestDispatcher_KeepsCallerID tests that a supplied request id is not replaced.
func TestDispatcher_KeepsCallerID(t *testing.T) {
	d, _ := newTestDispatcher(t, ExecutorFunc(echo))

	id, err := d.Submit(context.Background(), "plot", Request{ID: "mine"})
	require.NoError(t, err)
	assert.Equal(t, "mine", id)

	got := drain(d)
	require.Len(t, got, 1)
	assert.Equal(t, "mine", got[0].Result.RequestID)
}

// TestDispatcher_SubmitAfterClose tests the closed state.
func TestDispatcher_SubmitAfterClose(t *testing.T) {
	d, _ := newTestDispatcher(t, ExecutorFunc(echo), "req-1")
	drain(d)

	_, err := d.Submit(context.Background(), "plot", Request{})
	assert.ErrorIs(t, err, ErrClosed)
}

// TestDispatcher_ParentCancel tests that the caller's context reaches the executor.
func TestDispatcher_ParentCancel(t *testing.T) {
	exec := ExecutorFunc(func(ctx context.Context, req Request) (Result, error) {
		<-ctx.Done()
		return Result{}, ctx.Err()
	})
	d, _ := newTestDispatcher(t, exec, "req-1")

	ctx, cancel := context.WithCancel(context.Background())
	_, err := d.Submit(ctx, "plot", Request{})
	require.NoError(t, err)
	cancel()

	got := drain(d)
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, context.Canceled)
}
