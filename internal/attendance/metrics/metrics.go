// Package metrics holds the Prometheus instruments for admission, visits and sweeps.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the attendance module.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	AdmissionDecisions *prometheus.CounterVec
	CheckIns           *prometheus.CounterVec
	CheckOuts          *prometheus.CounterVec
	VisitDuration      prometheus.Histogram
	SweepRecords       *prometheus.CounterVec
	SweepDuration      *prometheus.HistogramVec
}

// New registers the attendance metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AdmissionDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gymdesk_admission_decisions_total",
			Help: "Admission validations by subject kind and outcome (admitted, rejected, error)",
		}, []string{"subject", "outcome"}),
		CheckIns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gymdesk_check_ins_total",
			Help: "Visits opened by subject kind and admission method",
		}, []string{"subject", "method"}),
		CheckOuts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gymdesk_check_outs_total",
			Help: "Visits closed by closing path (manual, force, auto, expired)",
		}, []string{"path"}),
		VisitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gymdesk_visit_duration_minutes",
			Help:    "Length of closed visits in minutes",
			Buckets: []float64{5, 15, 30, 45, 60, 90, 120, 180, 240, 360},
		}),
		SweepRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gymdesk_sweep_records_total",
			Help: "Records handled by sweeper passes by pass and outcome",
		}, []string{"pass", "outcome"}),
		SweepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gymdesk_sweep_duration_seconds",
			Help:    "Duration of sweeper passes",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"pass"}),
	}
}

// ObserveAdmission records a validator outcome.
func (m *Metrics) ObserveAdmission(subject, outcome string) {
	if m == nil {
		return
	}
	m.AdmissionDecisions.WithLabelValues(subject, outcome).Inc()
}

func (m *Metrics) IncrementCheckIn(subject, method string) {
	if m == nil {
		return
	}
	m.CheckIns.WithLabelValues(subject, method).Inc()
}

// ObserveCheckOut records a closed visit. durationMinutes is nil for expired records.
func (m *Metrics) ObserveCheckOut(path string, durationMinutes *int) {
	if m == nil {
		return
	}
	m.CheckOuts.WithLabelValues(path).Inc()
	if durationMinutes != nil {
		m.VisitDuration.Observe(float64(*durationMinutes))
	}
}

func (m *Metrics) AddSweepRecords(pass, outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.SweepRecords.WithLabelValues(pass, outcome).Add(float64(n))
}

// ObserveSweep records the duration of a sweeper pass.
// Call with time.Now() at the start of the pass.
func (m *Metrics) ObserveSweep(pass string, start time.Time) {
	if m == nil {
		return
	}
	m.SweepDuration.WithLabelValues(pass).Observe(time.Since(start).Seconds())
}
