// Package metrics holds the Prometheus instruments for the ledger and the
// obligation engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for procedure logging, validation and
// obligation computation. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Procedure log increments by outcome ("ok", "not_found", "error")
	ProceduresLogged *prometheus.CounterVec

	// ValidateAll calls and the rows they advanced
	ValidationCalls prometheus.Counter
	RowsValidated   prometheus.Counter

	// Obligations emitted by kind and scope ("competency"/"presentation", "teacher"/"admin")
	Obligations *prometheus.CounterVec

	// Snapshot load + rule evaluation
	ComputeLatency prometheus.Histogram

	// Requests answered by another in-flight computation
	ComputeShared prometheus.Counter
}

// New creates a Metrics instance registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProceduresLogged: f.NewCounterVec(prometheus.CounterOpts{
			Name: "residenthub_procedures_logged_total",
			Help: "Procedure log requests by outcome",
		}, []string{"outcome"}),

		ValidationCalls: f.NewCounter(prometheus.CounterOpts{
			Name: "residenthub_validations_total",
			Help: "Validate-all requests that completed",
		}),

		RowsValidated: f.NewCounter(prometheus.CounterOpts{
			Name: "residenthub_rows_validated_total",
			Help: "Ledger rows whose validated count advanced",
		}),

		Obligations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "residenthub_obligations_emitted_total",
			Help: "Missing-evaluation obligations returned, by kind and scope",
		}, []string{"kind", "scope"}),

		ComputeLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "residenthub_obligations_compute_duration_seconds",
			Help:    "Duration of obligation computation including the snapshot load",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		ComputeShared: f.NewCounter(prometheus.CounterOpts{
			Name: "residenthub_obligations_shared_total",
			Help: "Obligation requests served by a concurrent identical computation",
		}),
	}
}

// IncrementLogged records one procedure log request.
func (m *Metrics) IncrementLogged(outcome string) {
	if m != nil {
		m.ProceduresLogged.WithLabelValues(outcome).Inc()
	}
}

// ObserveValidation records a completed validate-all call.
func (m *Metrics) ObserveValidation(rows int64) {
	if m != nil {
		m.ValidationCalls.Inc()
		m.RowsValidated.Add(float64(rows))
	}
}

// AddObligations records n obligations of kind emitted for scope.
func (m *Metrics) AddObligations(kind, scope string, n int) {
	if m != nil && n > 0 {
		m.Obligations.WithLabelValues(kind, scope).Add(float64(n))
	}
}

// ObserveComputeLatency records the total computation duration.
func (m *Metrics) ObserveComputeLatency(d time.Duration) {
	if m != nil {
		m.ComputeLatency.Observe(d.Seconds())
	}
}

// IncrementShared records a request collapsed onto another computation.
func (m *Metrics) IncrementShared() {
	if m != nil {
		m.ComputeShared.Inc()
	}
}
