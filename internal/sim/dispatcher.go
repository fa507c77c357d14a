package sim

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("dispatcher closed")

// Response pairs a finished request with its result or error.
type Response struct {
	Key     string
	Request Request
	Result  Result
	Err     error
}

// Dispatcher fans requests out to an Executor and delivers only the
// responses that are still the latest for their key.
//
// Thread-safety model:
//   - Submit(): safe from any goroutine
//   - Responses(): one consumer is expected
//   - Close(): call once, after the last Submit
type Dispatcher struct {
	exec    Executor
	ids     IDGenerator
	clock   *Clock
	metrics *Metrics
	logger  *slog.Logger

	mu     sync.Mutex
	latest map[string]submission
	closed bool
	wg     sync.WaitGroup
	out    chan Response
}

type submission struct {
	seq    int64
	cancel context.CancelFunc
}

// DispatcherOption allows configuration of dispatcher parameters.
type DispatcherOption func(*Dispatcher)

// WithIDGenerator sets the request id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) DispatcherOption {
	return func(d *Dispatcher) { d.ids = g }
}

// WithMetrics sets the collectors to update. Default: unregistered collectors.
func WithMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// WithBuffer sets the response channel capacity. Default: 16.
func WithBuffer(n int) DispatcherOption {
	return func(d *Dispatcher) { d.out = make(chan Response, n) }
}

// NewDispatcher creates a dispatcher around exec.
func NewDispatcher(exec Executor, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		exec:   exec,
		ids:    UUIDv7Generator{},
		clock:  NewClock(),
		logger: slog.Default(),
		latest: make(map[string]submission),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = NewMetrics(nil)
	}
	if d.out == nil {
		d.out = make(chan Response, 16)
	}
	return d
}

// Responses returns the channel on which current responses are delivered.
// It is closed by Close once all in-flight requests have finished.
func (d *Dispatcher) Responses() <-chan Response {
	return d.out
}

// Submit stamps req with an id (keeping a caller-supplied one), supersedes
// any in-flight request for key, and runs req asynchronously. It returns
// the request id.
func (d *Dispatcher) Submit(ctx context.Context, key string, req Request) (string, error) {
	if req.ID == "" {
		req.ID = d.ids.Generate()
	}
	runCtx, cancel := context.WithCancel(ctx)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		cancel()
		return "", ErrClosed
	}
	if prev, ok := d.latest[key]; ok {
		prev.cancel()
	}
	seq := d.clock.Next()
	d.latest[key] = submission{seq: seq, cancel: cancel}
	d.wg.Add(1)
	d.mu.Unlock()

	d.metrics.submitted.Inc()
	d.logger.Debug("request submitted", "key", key, "request_id", req.ID, "seq", seq)

	go d.run(runCtx, key, seq, req)
	return req.ID, nil
}

func (d *Dispatcher) run(ctx context.Context, key string, seq int64, req Request) {
	defer d.wg.Done()

	start := time.Now()
	res, err := d.exec.Execute(ctx, req)
	d.metrics.duration.Observe(time.Since(start).Seconds())
	if err == nil && res.RequestID == "" {
		res.RequestID = req.ID
	}

	d.mu.Lock()
	cur, ok := d.latest[key]
	current := ok && cur.seq == seq
	if current {
		delete(d.latest, key)
	}
	d.mu.Unlock()

	if !current {
		d.metrics.finished.WithLabelValues(OutcomeStale).Inc()
		d.logger.Debug("stale response dropped", "key", key, "request_id", req.ID, "seq", seq)
		return
	}
	if err != nil {
		d.metrics.finished.WithLabelValues(OutcomeFailed).Inc()
		d.logger.Warn("request failed", "key", key, "request_id", req.ID, "error", err)
	} else {
		d.metrics.finished.WithLabelValues(OutcomeDelivered).Inc()
	}
	cur.cancel()

	d.out <- Response{Key: key, Request: req, Result: res, Err: err}
}

// Close stops accepting requests, waits for in-flight ones to finish and
// closes the Responses channel. The consumer must keep draining Responses
// until it is closed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
	close(d.out)
}
