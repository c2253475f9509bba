package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// VarianceAlert is queued when a session closes with a difference at or
// above the configured threshold.
type VarianceAlert struct {
	To            []string        `json:"to"`
	SessionID     int64           `json:"session_id"`
	RegisterCode  string          `json:"register_code"`
	OperatorID    int64           `json:"operator_id"`
	ClosedBy      int64           `json:"closed_by"`
	ExpectedTotal decimal.Decimal `json:"expected_total"`
	ReportedTotal decimal.Decimal `json:"reported_total"`
	Difference    decimal.Decimal `json:"difference"`
	ClosedAt      string          `json:"closed_at"`
}

// MailSender is satisfied by *infra.Mailer.
type MailSender interface {
	Send(to []string, subject, body string) error
}

type AlertWorker struct {
	mailer MailSender
}

func NewAlertWorker(mailer MailSender) *AlertWorker {
	return &AlertWorker{mailer: mailer}
}

func (w *AlertWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var a VarianceAlert
	if err := json.Unmarshal(raw, &a); err != nil {
		return fmt.Errorf("alert_worker: invalid payload: %w", err)
	}
	if len(a.To) == 0 {
		log.Warn().Int64("session_id", a.SessionID).Msg("alert_worker: no recipients, skipping")
		return nil
	}

	subject, body := renderVarianceAlert(a)
	err := withRetry(ctx, maxAttempts, func(attempt int) error {
		return w.mailer.Send(a.To, subject, body)
	})
	if err != nil {
		return fmt.Errorf("alert_worker: %w", err)
	}
	log.Info().Int64("session_id", a.SessionID).Strs("to", a.To).Msg("alert_worker: variance alert sent")
	return nil
}

func renderVarianceAlert(a VarianceAlert) (string, string) {
	kind := "overage"
	if a.Difference.IsNegative() {
		kind = "shortage"
	}
	subject := fmt.Sprintf("[%s] session #%d closed with %s %s", a.RegisterCode, a.SessionID, kind, a.Difference.Abs().StringFixed(2))

	var b strings.Builder
	fmt.Fprintf(&b, "Register:   %s\n", a.RegisterCode)
	fmt.Fprintf(&b, "Session:    %d\n", a.SessionID)
	fmt.Fprintf(&b, "Operator:   %d\n", a.OperatorID)
	fmt.Fprintf(&b, "Closed by:  %d at %s\n", a.ClosedBy, a.ClosedAt)
	fmt.Fprintf(&b, "Expected:   %s\n", a.ExpectedTotal.StringFixed(2))
	fmt.Fprintf(&b, "Reported:   %s\n", a.ReportedTotal.StringFixed(2))
	fmt.Fprintf(&b, "Difference: %s\n", a.Difference.StringFixed(2))
	return subject, b.String()
}
