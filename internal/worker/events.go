package worker

import (
	"context"
	"time"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/infra"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// SessionEvents turns session state changes into queued jobs. Enqueue
// failures are logged and never fail the state change that triggered them.
type SessionEvents struct {
	queue     Enqueuer
	alertTo   []string
	threshold decimal.Decimal
}

// NewSessionEvents wires the hooks. An empty alertTo disables variance alerts.
func NewSessionEvents(queue Enqueuer, alertTo []string, threshold decimal.Decimal) *SessionEvents {
	return &SessionEvents{queue: queue, alertTo: alertTo, threshold: threshold}
}

func (e *SessionEvents) SessionOpened(ctx context.Context, s *model.CashRegisterSession) {
	e.report(ctx, s, "opened", s.OpeningAt)
}

func (e *SessionEvents) SessionClosed(ctx context.Context, s *model.CashRegisterSession) {
	at := time.Now().UTC()
	if s.ClosingAt != nil {
		at = *s.ClosingAt
	}
	e.report(ctx, s, "closed", at)

	if len(e.alertTo) == 0 || s.Difference == nil || s.Difference.IsZero() {
		return
	}
	if s.Difference.Abs().LessThan(e.threshold) {
		return
	}
	alert := VarianceAlert{
		To:           e.alertTo,
		SessionID:    s.ID,
		RegisterCode: s.CashRegisterCode,
		OperatorID:   s.OperatorID,
		Difference:   *s.Difference,
		ClosedAt:     at.UTC().Format(time.RFC3339),
	}
	if s.ClosedBy != nil {
		alert.ClosedBy = *s.ClosedBy
	}
	if s.ClosingAmount != nil {
		alert.ExpectedTotal = *s.ClosingAmount
	}
	if s.ReportedTotal != nil {
		alert.ReportedTotal = *s.ReportedTotal
	}
	if err := e.queue.Enqueue(ctx, QueueVarianceAlert, "variance_alert", alert); err != nil {
		log.Warn().Err(err).Int64("session_id", s.ID).Msg("failed to enqueue variance alert")
	}
}

func (e *SessionEvents) SessionCancelled(ctx context.Context, s *model.CashRegisterSession) {
	at := time.Now().UTC()
	if s.CancelledAt != nil {
		at = *s.CancelledAt
	}
	e.report(ctx, s, "cancelled", at)
}

func (e *SessionEvents) report(ctx context.Context, s *model.CashRegisterSession, event string, at time.Time) {
	ev := infra.SessionReportEvent{
		SessionID:    s.ID,
		RegisterCode: s.CashRegisterCode,
		Event:        event,
		OccurredAt:   at.UTC().Format(time.RFC3339),
	}
	if err := e.queue.Enqueue(ctx, QueueSessionReport, "session_report", ev); err != nil {
		log.Warn().Err(err).Int64("session_id", s.ID).Str("event", event).Msg("failed to enqueue session report")
	}
}
