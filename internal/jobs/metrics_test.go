package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	assert.NoError(t, m.Track("warmup").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("warmup").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("warmup", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("warmup", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("warmup")))
}

func TestSetOptionEntries(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.SetOptionEntries("products", 12)
	m.SetOptionEntries("", 3)
	assert.Equal(t, 12.0, testutil.ToFloat64(m.options.WithLabelValues("products")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.options))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NoError(t, m.Track("x").End(nil))
	m.SetOptionEntries("products", 1)
}
