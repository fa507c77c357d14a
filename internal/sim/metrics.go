package sim

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for the requests counter.
const (
	OutcomeDelivered = "delivered"
	OutcomeStale     = "stale"
	OutcomeFailed    = "failed"
)

// Metrics counts dispatcher activity.
type Metrics struct {
	submitted prometheus.Counter
	finished  *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics creates the dispatcher collectors and registers them with reg
// when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "odegen_sim_requests_submitted_total",
			Help: "Total number of integration requests submitted",
		}),
		finished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "odegen_sim_requests_finished_total",
				Help: "Total number of integration requests finished, by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "odegen_sim_execute_duration_seconds",
			Help:    "Duration of executor calls",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.submitted, m.finished, m.duration)
	}
	return m
}
