package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/infra"

	"github.com/rs/zerolog/log"
)

// ReportDeliverer is satisfied by *infra.ReportHookClient.
type ReportDeliverer interface {
	Enabled() bool
	Deliver(ctx context.Context, ev infra.SessionReportEvent) error
}

// ReportWorker forwards session state changes to the report renderer.
type ReportWorker struct {
	hook ReportDeliverer
}

func NewReportWorker(hook ReportDeliverer) *ReportWorker {
	return &ReportWorker{hook: hook}
}

func (w *ReportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var ev infra.SessionReportEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return fmt.Errorf("report_worker: invalid payload: %w", err)
	}
	if w.hook == nil || !w.hook.Enabled() {
		log.Debug().Int64("session_id", ev.SessionID).Msg("report_worker: no hook configured, dropping event")
		return nil
	}

	err := withRetry(ctx, maxAttempts, func(attempt int) error {
		if err := w.hook.Deliver(ctx, ev); err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Int64("session_id", ev.SessionID).
				Msg("report_worker: delivery failed")
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("report_worker: gave up after %d attempts: %w", attemptsOf(err), err)
	}
	log.Info().Int64("session_id", ev.SessionID).Str("event", ev.Event).Msg("report_worker: delivered")
	return nil
}
