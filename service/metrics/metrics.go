// Package metrics provides Prometheus instrumentation for the detection and
// remediation pipeline.
//
// Metrics exposed:
//   - egress_doctor_cycles_total: Counter of detection cycles by final status
//   - egress_doctor_rows_scored_total: Counter of observations scored
//   - egress_doctor_anomalies_detected_total: Counter of flagged anomalies
//   - egress_doctor_narrative_failures_total: Counter of degraded alerts
//   - egress_doctor_remediation_outcomes_total: Counter of remediation
//     outcomes by action and status
//   - egress_doctor_cycle_duration_seconds: Histogram of full cycle duration
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	CyclesTotal              *prometheus.CounterVec
	RowsScoredTotal          prometheus.Counter
	AnomaliesDetectedTotal   prometheus.Counter
	NarrativeFailuresTotal   prometheus.Counter
	RemediationOutcomesTotal *prometheus.CounterVec
	CycleDurationSeconds     prometheus.Histogram
}

// New creates and registers all pipeline metrics on reg. Passing nil
// registers on the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "egress_doctor_cycles_total",
			Help: "Total number of detection cycles by final status",
		}, []string{"status"}),

		RowsScoredTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "egress_doctor_rows_scored_total",
			Help: "Total number of observations scored",
		}),

		AnomaliesDetectedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "egress_doctor_anomalies_detected_total",
			Help: "Total number of flagged anomalies",
		}),

		NarrativeFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "egress_doctor_narrative_failures_total",
			Help: "Total number of alerts published without a narrative",
		}),

		RemediationOutcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "egress_doctor_remediation_outcomes_total",
			Help: "Total number of remediation outcomes by action and status",
		}, []string{"action", "status"}),

		CycleDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "egress_doctor_cycle_duration_seconds",
			Help:    "Duration of a full detection and remediation cycle",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordCycle increments the cycle counter for the given final status.
func (m *Metrics) RecordCycle(status string) {
	m.CyclesTotal.WithLabelValues(status).Inc()
}

// RecordScored adds the number of rows scored in a cycle.
func (m *Metrics) RecordScored(rows int) {
	m.RowsScoredTotal.Add(float64(rows))
}

// RecordAnomalies adds the number of anomalies flagged in a cycle.
func (m *Metrics) RecordAnomalies(count int) {
	m.AnomaliesDetectedTotal.Add(float64(count))
}

// RecordNarrativeFailure increments the degraded alert counter.
func (m *Metrics) RecordNarrativeFailure() {
	m.NarrativeFailuresTotal.Inc()
}

// RecordRemediation increments the remediation outcome counter.
func (m *Metrics) RecordRemediation(action, status string) {
	m.RemediationOutcomesTotal.WithLabelValues(action, status).Inc()
}

// RecordCycleDuration records the wall time of a full cycle.
func (m *Metrics) RecordCycleDuration(seconds float64) {
	m.CycleDurationSeconds.Observe(seconds)
}
