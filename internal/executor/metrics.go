package executor

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric label values for harvested items
const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
)

// Metrics holds the Prometheus instruments updated by runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	submitted prometheus.Counter
	harvested *prometheus.CounterVec
	stalls    prometheus.Counter
	pending   prometheus.Gauge
	duration  prometheus.Histogram
}

// NewMetrics creates the executor instruments and registers them with reg.
// Passing prometheus.DefaultRegisterer exposes them on the process-wide registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, errors.New("metrics registerer must not be nil")
	}

	m := &Metrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csmetrics_executor_items_submitted_total",
			Help: "Total number of work items submitted to the worker pool.",
		}),
		harvested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "csmetrics_executor_items_harvested_total",
			Help: "Total number of work items harvested, by outcome.",
		}, []string{"outcome"}),
		stalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csmetrics_executor_stalls_total",
			Help: "Total number of runs aborted by the idle-time watchdog.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "csmetrics_executor_tasks_pending",
			Help: "Number of submitted work items not yet harvested.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "csmetrics_executor_task_duration_seconds",
			Help:    "Unit of work execution time, in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.submitted, m.harvested, m.stalls, m.pending, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register executor metrics: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) itemSubmitted() {
	if m == nil {
		return
	}
	m.submitted.Inc()
}

func (m *Metrics) itemHarvested(failed bool, seconds float64) {
	if m == nil {
		return
	}
	outcome := outcomeSucceeded
	if failed {
		outcome = outcomeFailed
	}
	m.harvested.WithLabelValues(outcome).Inc()
	m.duration.Observe(seconds)
}

func (m *Metrics) setPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

func (m *Metrics) stalled() {
	if m == nil {
		return
	}
	m.stalls.Inc()
}
