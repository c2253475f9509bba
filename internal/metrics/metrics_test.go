package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SessionOpened("CAJA-01")
		m.OpenConflict("CAJA-01")
		m.CloseOutcome(OutcomePending)
		m.SessionClosed(decimal.NewFromInt(10))
		m.SessionCancelled()
		m.SalesFeedError()
		m.MovementRecorded("SALE")
	})
}

func TestCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SessionOpened("CAJA-01")
	m.SessionOpened("CAJA-01")
	m.OpenConflict("CAJA-01")
	m.SessionClosed(decimal.RequireFromString("-2.50"))
	m.CloseOutcome(OutcomeAlreadyClosed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsOpened.WithLabelValues("CAJA-01")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.openConflicts.WithLabelValues("CAJA-01")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.closeOutcomes.WithLabelValues(OutcomeClosed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.closeOutcomes.WithLabelValues(OutcomeAlreadyClosed)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.variance))
}
