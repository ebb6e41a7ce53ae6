package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("billing:mark_overdue").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("billing:mark_overdue").End(boom), boom)
	m.AddAffected("billing:mark_overdue", 4)
	m.AddAffected("billing:mark_overdue", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("billing:mark_overdue", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("billing:mark_overdue", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("billing:mark_overdue")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.affected.WithLabelValues("billing:mark_overdue")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddAffected("x", 1)
	assert.NoError(t, m.Track("x").End(nil))
}
