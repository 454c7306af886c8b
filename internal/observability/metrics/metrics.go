// Package metrics exposes prometheus instrumentation for the claim
// engine and the batch scheduler.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics captures engine health signals: transition volume, batch job
// outcomes and durations.
type Metrics struct {
	claimTransitions  *prometheus.CounterVec
	transitionDenied  *prometheus.CounterVec
	jobRuns           *prometheus.CounterVec
	jobErrors         *prometheus.CounterVec
	jobItemsProcessed *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the process-wide Metrics registered against the
// default prometheus registerer.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New builds Metrics registered against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		claimTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "claim_transitions_total",
			Help: "Claim state transitions applied, by source and target state.",
		}, []string{"from", "to"}),
		transitionDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "claim_transitions_denied_total",
			Help: "Claim transitions rejected by the state machine.",
		}, []string{"attempted", "current"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_job_runs_total",
			Help: "Batch job executions.",
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_job_errors_total",
			Help: "Batch job executions that returned an error.",
		}, []string{"job"}),
		jobItemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_job_items_total",
			Help: "Items processed by batch jobs, by outcome.",
		}, []string{"job", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduler_job_duration_seconds",
			Help:    "Batch job wall-clock duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.claimTransitions,
			m.transitionDenied,
			m.jobRuns,
			m.jobErrors,
			m.jobItemsProcessed,
			m.jobDuration,
		)
	}
	return m
}

func (m *Metrics) IncClaimTransition(from, to string) {
	m.claimTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) IncTransitionDenied(attempted, current string) {
	m.transitionDenied.WithLabelValues(attempted, current).Inc()
}

func (m *Metrics) IncJobRun(job string) {
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *Metrics) IncJobError(job string) {
	m.jobErrors.WithLabelValues(job).Inc()
}

func (m *Metrics) AddJobItems(job, outcome string, n int) {
	if n <= 0 {
		return
	}
	m.jobItemsProcessed.WithLabelValues(job, outcome).Add(float64(n))
}

func (m *Metrics) ObserveJobDuration(job string, d time.Duration) {
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}
