package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for reconciliation jobs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	JobsTotal     *prometheus.CounterVec
	OutcomesTotal *prometheus.CounterVec
	FetchAttempts *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	ActiveJobs    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_verifier_jobs_total",
			Help: "Reconciliation jobs by final state",
		}, []string{"state"}),
		OutcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_verifier_outcomes_total",
			Help: "Persisted verification outcomes by kind",
		}, []string{"outcome"}),
		FetchAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_verifier_registry_attempts_total",
			Help: "Registry fetch attempts by result category",
		}, []string{"result"}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "roster_verifier_registry_fetch_duration_seconds",
			Help:    "Duration of a full registry fetch including retries",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ActiveJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roster_verifier_active_jobs",
			Help: "Reconciliation jobs currently running",
		}),
	}
}

// IncrementJob records a job reaching a final state.
func (m *Metrics) IncrementJob(state string) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(state).Inc()
}

// IncrementOutcome records one persisted outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m == nil {
		return
	}
	m.OutcomesTotal.WithLabelValues(outcome).Inc()
}

// IncrementFetchAttempt records one registry attempt. Use "ok" for success.
func (m *Metrics) IncrementFetchAttempt(result string) {
	if m == nil {
		return
	}
	m.FetchAttempts.WithLabelValues(result).Inc()
}

// ObserveFetch records the duration of a registry fetch.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveFetch(start time.Time) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(time.Since(start).Seconds())
}

// JobStarted increments the active job gauge.
func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.ActiveJobs.Inc()
}

// JobFinished decrements the active job gauge.
func (m *Metrics) JobFinished() {
	if m == nil {
		return
	}
	m.ActiveJobs.Dec()
}
