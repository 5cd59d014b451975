package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordersIncrementCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordCycle("done")
	m.RecordCycle("done")
	m.RecordCycle("failed")
	m.RecordScored(120)
	m.RecordAnomalies(3)
	m.RecordNarrativeFailure()
	m.RecordRemediation("remediate_s3_public_access", "success")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues("failed")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.RowsScoredTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AnomaliesDetectedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NarrativeFailuresTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemediationOutcomesTotal.WithLabelValues("remediate_s3_public_access", "success")))
}

func TestPrivateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
