package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/infra"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff(t *testing.T) {
	old := backoffUnit
	backoffUnit = time.Millisecond
	t.Cleanup(func() { backoffUnit = old })
}

// ── Fakes ────────────────────────────────────────────────────────────────────

type queued struct {
	queue, jobType string
	payload        any
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []queued
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, queue, jobType string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, queued{queue, jobType, payload})
	return nil
}

type fakeHook struct {
	failures int
	calls    int
	got      []infra.SessionReportEvent
}

func (h *fakeHook) Enabled() bool { return true }

func (h *fakeHook) Deliver(_ context.Context, ev infra.SessionReportEvent) error {
	h.calls++
	if h.calls <= h.failures {
		return errors.New("renderer down")
	}
	h.got = append(h.got, ev)
	return nil
}

type fakeMailer struct {
	to      []string
	subject string
	body    string
	err     error
}

func (m *fakeMailer) Send(to []string, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func closedSession(diff string) *model.CashRegisterSession {
	at := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	by := int64(7)
	reported := decimal.RequireFromString("500").Add(decimal.RequireFromString(diff))
	return &model.CashRegisterSession{
		ID:               11,
		CashRegisterCode: "CAJA-01",
		OperatorID:       7,
		Status:           model.SessionClosed,
		ClosingAt:        &at,
		ClosingAmount:    dec("500"),
		ReportedTotal:    &reported,
		Difference:       dec(diff),
		ClosedBy:         &by,
	}
}

// ── withRetry ────────────────────────────────────────────────────────────────

func TestWithRetry(t *testing.T) {
	fastBackoff(t)

	calls := 0
	err := withRetry(context.Background(), 3, func(int) error {
		calls++
		if calls < 3 {
			return errors.New("no")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = withRetry(context.Background(), 2, func(int) error { calls++; return errors.New("still no") })
	assert.EqualError(t, err, "still no")
	assert.Equal(t, 2, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = withRetry(ctx, 3, func(int) error { return errors.New("x") })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attemptsOf(err))
}

func TestAttemptsOf(t *testing.T) {
	fastBackoff(t)
	err := withRetry(context.Background(), 2, func(int) error { return errors.New("down") })
	assert.Equal(t, 2, attemptsOf(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, 1, attemptsOf(errors.New("bad payload")))

	mailErr := NewAlertWorker(&fakeMailer{err: errors.New("smtp down")}).Process(context.Background(),
		json.RawMessage(`{"to":["ops@example.com"],"session_id":1}`))
	assert.Equal(t, maxAttempts, attemptsOf(mailErr))
}

// ── SessionEvents ────────────────────────────────────────────────────────────

func TestSessionEvents_ReportsEveryTransition(t *testing.T) {
	q := &fakeQueue{}
	ev := NewSessionEvents(q, nil, decimal.Zero)
	sess := &model.CashRegisterSession{ID: 3, CashRegisterCode: "CAJA-01", OpeningAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}

	ev.SessionOpened(context.Background(), sess)
	ev.SessionClosed(context.Background(), closedSession("10"))
	ev.SessionCancelled(context.Background(), sess)

	require.Len(t, q.jobs, 3)
	for _, j := range q.jobs {
		assert.Equal(t, QueueSessionReport, j.queue)
	}
	opened := q.jobs[0].payload.(infra.SessionReportEvent)
	assert.Equal(t, "opened", opened.Event)
	assert.Equal(t, "2026-03-02T09:00:00Z", opened.OccurredAt)
	assert.Equal(t, "closed", q.jobs[1].payload.(infra.SessionReportEvent).Event)
}

func TestSessionEvents_VarianceAlertThreshold(t *testing.T) {
	q := &fakeQueue{}
	ev := NewSessionEvents(q, []string{"ops@example.com"}, decimal.RequireFromString("50"))

	ev.SessionClosed(context.Background(), closedSession("10"))
	ev.SessionClosed(context.Background(), closedSession("0"))
	ev.SessionClosed(context.Background(), closedSession("-50"))

	var alerts []VarianceAlert
	for _, j := range q.jobs {
		if j.queue == QueueVarianceAlert {
			alerts = append(alerts, j.payload.(VarianceAlert))
		}
	}
	require.Len(t, alerts, 1)
	assert.Equal(t, "-50.00", alerts[0].Difference.StringFixed(2))
	assert.Equal(t, "500.00", alerts[0].ExpectedTotal.StringFixed(2))
	assert.Equal(t, "450.00", alerts[0].ReportedTotal.StringFixed(2))
	assert.Equal(t, int64(7), alerts[0].ClosedBy)
}

func TestSessionEvents_EnqueueFailureIsSwallowed(t *testing.T) {
	q := &fakeQueue{err: errors.New("redis down")}
	ev := NewSessionEvents(q, []string{"ops@example.com"}, decimal.Zero)
	assert.NotPanics(t, func() { ev.SessionClosed(context.Background(), closedSession("1")) })
}

// ── Workers ──────────────────────────────────────────────────────────────────

func TestReportWorker_RetriesThenDelivers(t *testing.T) {
	fastBackoff(t)
	hook := &fakeHook{failures: 2}
	raw, _ := json.Marshal(infra.SessionReportEvent{SessionID: 4, Event: "closed"})

	require.NoError(t, NewReportWorker(hook).Process(context.Background(), raw))
	assert.Equal(t, 3, hook.calls)
	require.Len(t, hook.got, 1)
	assert.Equal(t, int64(4), hook.got[0].SessionID)
}

func TestReportWorker_GivesUp(t *testing.T) {
	fastBackoff(t)
	hook := &fakeHook{failures: 10}
	raw, _ := json.Marshal(infra.SessionReportEvent{SessionID: 4})

	err := NewReportWorker(hook).Process(context.Background(), raw)
	assert.Error(t, err)
	assert.Equal(t, maxAttempts, hook.calls)
	assert.Equal(t, maxAttempts, attemptsOf(err))
	assert.Contains(t, err.Error(), "gave up after 3 attempts")

	err = NewReportWorker(hook).Process(context.Background(), json.RawMessage(`{`))
	assert.Error(t, err)
	assert.Equal(t, 1, attemptsOf(err), "undecodable payloads are not retried")
	assert.Equal(t, maxAttempts, hook.calls)
}

func TestReportWorker_DisabledHook(t *testing.T) {
	raw, _ := json.Marshal(infra.SessionReportEvent{SessionID: 4})
	assert.NoError(t, NewReportWorker(infra.NewReportHookClient("")).Process(context.Background(), raw))
}

func TestAlertWorker_SendsMail(t *testing.T) {
	fastBackoff(t)
	m := &fakeMailer{}
	raw, _ := json.Marshal(VarianceAlert{
		To: []string{"ops@example.com"}, SessionID: 9, RegisterCode: "CAJA-02",
		ExpectedTotal: decimal.RequireFromString("100"),
		ReportedTotal: decimal.RequireFromString("97.5"),
		Difference:    decimal.RequireFromString("-2.5"),
	})

	require.NoError(t, NewAlertWorker(m).Process(context.Background(), raw))
	assert.Equal(t, []string{"ops@example.com"}, m.to)
	assert.Equal(t, "[CAJA-02] session #9 closed with shortage 2.50", m.subject)
	assert.Contains(t, m.body, "Difference: -2.50")
}

func TestAlertWorker_SendFailure(t *testing.T) {
	fastBackoff(t)
	m := &fakeMailer{err: errors.New("smtp refused")}
	raw, _ := json.Marshal(VarianceAlert{To: []string{"ops@example.com"}, Difference: decimal.RequireFromString("3")})
	assert.Error(t, NewAlertWorker(m).Process(context.Background(), raw))
}
