// Package metrics exposes session lifecycle counters to Prometheus.
// A nil *Metrics is valid and records nothing, so services and tests can run
// without a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "cashdesk"

// Close outcomes used as the "outcome" label.
const (
	OutcomeClosed        = "closed"
	OutcomeAlreadyClosed = "already_closed"
	OutcomePending       = "pending_confirmation"
	OutcomeRejected      = "rejected"
)

type Metrics struct {
	sessionsOpened   *prometheus.CounterVec
	openConflicts    *prometheus.CounterVec
	closeOutcomes    *prometheus.CounterVec
	sessionsCanceled prometheus.Counter
	variance         prometheus.Histogram
	feedErrors       prometheus.Counter
	movements        *prometheus.CounterVec
}

// New registers the collectors on registerer (prometheus.DefaultRegisterer when nil).
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		sessionsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Register sessions opened, by register code.",
		}, []string{"register"}),
		openConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_open_conflicts_total",
			Help:      "Open attempts rejected because the register was already open.",
		}, []string{"register"}),
		closeOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_close_attempts_total",
			Help:      "Close attempts by outcome.",
		}, []string{"outcome"}),
		sessionsCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_cancelled_total",
			Help:      "Sessions voided administratively.",
		}),
		variance: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_close_variance_abs",
			Help:      "Absolute over/short amount committed at close.",
			Buckets:   []float64{0.01, 1, 5, 10, 50, 100, 500, 1000},
		}),
		feedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_feed_errors_total",
			Help:      "Failed or timed out expected-total lookups.",
		}),
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cash_movements_total",
			Help:      "Ledger movements recorded, by kind.",
		}, []string{"kind"}),
	}
	registerer.MustRegister(
		m.sessionsOpened,
		m.openConflicts,
		m.closeOutcomes,
		m.sessionsCanceled,
		m.variance,
		m.feedErrors,
		m.movements,
	)
	return m
}

func (m *Metrics) SessionOpened(register string) {
	if m == nil {
		return
	}
	m.sessionsOpened.WithLabelValues(register).Inc()
}

func (m *Metrics) OpenConflict(register string) {
	if m == nil {
		return
	}
	m.openConflicts.WithLabelValues(register).Inc()
}

func (m *Metrics) CloseOutcome(outcome string) {
	if m == nil {
		return
	}
	m.closeOutcomes.WithLabelValues(outcome).Inc()
}

// SessionClosed records a committed close with its signed difference.
func (m *Metrics) SessionClosed(difference decimal.Decimal) {
	if m == nil {
		return
	}
	m.closeOutcomes.WithLabelValues(OutcomeClosed).Inc()
	m.variance.Observe(difference.Abs().InexactFloat64())
}

func (m *Metrics) SessionCancelled() {
	if m == nil {
		return
	}
	m.sessionsCanceled.Inc()
}

func (m *Metrics) SalesFeedError() {
	if m == nil {
		return
	}
	m.feedErrors.Inc()
}

func (m *Metrics) MovementRecorded(kind string) {
	if m == nil {
		return
	}
	m.movements.WithLabelValues(kind).Inc()
}
