package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/dto"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/repository"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/service"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ── Collaborator fakes ───────────────────────────────────────────────────────

type stubFeed struct {
	mu    sync.Mutex
	total decimal.Decimal
	err   error
	delay time.Duration
	calls int
}

func (f *stubFeed) set(total string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total = d(total)
	f.err = nil
}

func (f *stubFeed) GetExpectedTotal(ctx context.Context, _ int64) (decimal.Decimal, error) {
	f.mu.Lock()
	f.calls++
	total, err, delay := f.total, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return decimal.Zero, ctx.Err()
		case <-time.After(delay):
		}
	}
	return total, err
}

func (f *stubFeed) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(ev string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) SessionOpened(_ context.Context, s *model.CashRegisterSession) {
	n.record("opened:" + s.CashRegisterCode)
}

func (n *recordingNotifier) SessionClosed(_ context.Context, s *model.CashRegisterSession) {
	n.record("closed:" + s.CashRegisterCode)
}

func (n *recordingNotifier) SessionCancelled(_ context.Context, s *model.CashRegisterSession) {
	n.record("cancelled:" + s.CashRegisterCode)
}

func (n *recordingNotifier) snapshot() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type staticDirectory map[int64]string

func (dir staticDirectory) DisplayName(_ context.Context, id int64) string {
	if n, ok := dir[id]; ok {
		return n
	}
	return service.FallbackDisplayName(id)
}

// ── Fixture ──────────────────────────────────────────────────────────────────

type fixture struct {
	db          *gorm.DB
	feed        *stubFeed
	notifier    *recordingNotifier
	sessions    service.SessionService
	recon       service.ReconciliationService
	registers   service.RegisterService
	assignments service.AssignmentService
	history     service.HistoryService
	movements   repository.MovementRepository
}

var (
	cashier    = service.Actor{OperatorID: 7, Role: service.RoleCashier}
	supervisor = service.Actor{OperatorID: 90, Role: service.RoleSupervisor}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	sessionRepo := repository.NewSessionRepository(db)
	registerRepo := repository.NewRegisterRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	movementRepo := repository.NewMovementRepository(db)

	feed := &stubFeed{}
	notifier := &recordingNotifier{}
	clock := fixedClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}

	recon := service.NewReconciliationService(sessionRepo, feed,
		service.ReconciliationConfig{LocalCurrency: "ARS", FeedTimeout: time.Second},
		notifier, nil, clock)

	return &fixture{
		db:          db,
		feed:        feed,
		notifier:    notifier,
		recon:       recon,
		sessions:    service.NewSessionService(sessionRepo, registerRepo, assignmentRepo, movementRepo, recon, notifier, nil, clock),
		registers:   service.NewRegisterService(registerRepo),
		assignments: service.NewAssignmentService(assignmentRepo, registerRepo),
		history:     service.NewHistoryService(sessionRepo, registerRepo, movementRepo, staticDirectory{7: "Ana Cashier"}),
		movements:   movementRepo,
	}
}

// register creates an active register and assigns operator to it as default.
func (f *fixture) register(t *testing.T, code string, operatorID int64) {
	t.Helper()
	ctx := context.Background()
	_, err := f.registers.Create(ctx, dto.CreateRegisterRequest{Code: code, Name: "Front " + code, WarehouseID: 1})
	require.NoError(t, err)
	_, err = f.assignments.Assign(ctx, dto.AssignRequest{OperatorID: operatorID, CashRegisterCode: code, IsDefault: true})
	require.NoError(t, err)
}

func (f *fixture) open(t *testing.T, code string, amount string, lines ...dto.DenominationLine) *dto.SessionResponse {
	t.Helper()
	sess, err := f.sessions.Open(context.Background(), cashier, dto.OpenSessionRequest{
		CashRegisterCode:     code,
		OpeningAmount:        d(amount),
		OpeningDenominations: lines,
	})
	require.NoError(t, err)
	return sess
}

func bill(value string, qty int64) dto.DenominationLine {
	return dto.DenominationLine{CurrencyCode: "ARS", Kind: "BILL", UnitValue: d(value), Quantity: decimal.NewFromInt(qty)}
}

func coin(value string, qty int64) dto.DenominationLine {
	return dto.DenominationLine{CurrencyCode: "ARS", Kind: "COIN", UnitValue: d(value), Quantity: decimal.NewFromInt(qty)}
}

func tender(method, amount string) dto.TenderLine {
	return dto.TenderLine{Method: method, ReportedAmount: d(amount)}
}
