package service

import (
	"context"
	"fmt"
	"math"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apperror"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/dto"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/money"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/repository"

	"github.com/shopspring/decimal"
)

// HistoryService is the read side consumed by reporting and UI layers.
type HistoryService interface {
	ListRecent(ctx context.Context, f dto.SessionFilter) (*dto.SessionListResponse, error)
	RegisterOverview(ctx context.Context) ([]dto.RegisterOverviewItem, error)
	SessionReport(ctx context.Context, id int64) (*dto.SessionReportResponse, error)
}

type historyService struct {
	sessions  repository.SessionRepository
	registers repository.RegisterRepository
	movements repository.MovementRepository
	directory OperatorDirectory
}

// NewHistoryService wires the read side. A nil directory falls back to
// "operator #<id>" names.
func NewHistoryService(
	sessions repository.SessionRepository,
	registers repository.RegisterRepository,
	movements repository.MovementRepository,
	directory OperatorDirectory,
) HistoryService {
	if directory == nil {
		directory = fallbackDirectory{}
	}
	return &historyService{sessions: sessions, registers: registers, movements: movements, directory: directory}
}

// ── ListRecent ────────────────────────────────────────────────────────────────

func (s *historyService) ListRecent(ctx context.Context, f dto.SessionFilter) (*dto.SessionListResponse, error) {
	filter := repository.SessionFilter{
		RegisterCode: normalizeCode(f.RegisterCode),
		OperatorID:   f.OperatorID,
		Status:       model.SessionStatus(f.Status),
		Page:         f.Page,
		Limit:        f.Limit,
	}
	sessions, total, err := s.sessions.ListRecent(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	data := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		data = append(data, *toSessionResponse(&sessions[i]))
	}
	return &dto.SessionListResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// ── RegisterOverview ──────────────────────────────────────────────────────────
// One row per register: its OPEN session (if any) and its last CLOSED one.

func (s *historyService) RegisterOverview(ctx context.Context) ([]dto.RegisterOverviewItem, error) {
	regs, err := s.registers.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list registers: %w", err)
	}
	open, err := s.sessions.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open sessions: %w", err)
	}
	closed, err := s.sessions.ListLastClosed(ctx)
	if err != nil {
		return nil, fmt.Errorf("list closed sessions: %w", err)
	}

	openBy := make(map[string]*model.CashRegisterSession, len(open))
	for i := range open {
		openBy[open[i].CashRegisterCode] = &open[i]
	}
	closedBy := make(map[string]*model.CashRegisterSession, len(closed))
	for i := range closed {
		closedBy[closed[i].CashRegisterCode] = &closed[i]
	}

	names := map[int64]string{}
	name := func(id int64) string {
		if n, ok := names[id]; ok {
			return n
		}
		n := s.directory.DisplayName(ctx, id)
		names[id] = n
		return n
	}

	items := make([]dto.RegisterOverviewItem, 0, len(regs))
	for i := range regs {
		item := dto.RegisterOverviewItem{Register: *toRegisterResponse(&regs[i])}
		if sess, ok := openBy[regs[i].Code]; ok {
			item.ActiveSession = toSessionBrief(sess, name(sess.OperatorID))
		}
		if sess, ok := closedBy[regs[i].Code]; ok {
			item.LastClosed = toSessionBrief(sess, name(sess.OperatorID))
		}
		items = append(items, item)
	}
	return items, nil
}

// ── SessionReport ─────────────────────────────────────────────────────────────

func (s *historyService) SessionReport(ctx context.Context, id int64) (*dto.SessionReportResponse, error) {
	sess, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("session not found").WithSession(id)
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	reg, err := s.registers.FindByCode(ctx, sess.CashRegisterCode)
	if err != nil {
		return nil, fmt.Errorf("find register: %w", err)
	}
	movs, err := s.movements.ListBySession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}

	totals := make(map[string]decimal.Decimal, len(model.TenderMethods))
	ledger := decimal.Zero
	out := make([]dto.MovementResponse, 0, len(movs))
	for i := range movs {
		key := string(movs[i].Method)
		totals[key] = totals[key].Add(movs[i].Amount)
		ledger = ledger.Add(movs[i].Amount)
		out = append(out, *toMovementResponse(&movs[i]))
	}
	for k, v := range totals {
		totals[k] = money.Round2(v)
	}

	return &dto.SessionReportResponse{
		Session:        *toSessionResponse(sess),
		OperatorName:   s.directory.DisplayName(ctx, sess.OperatorID),
		RegisterName:   reg.Name,
		WarehouseID:    reg.WarehouseID,
		TotalsByMethod: totals,
		LedgerTotal:    money.Round2(ledger),
		MovementCount:  len(movs),
		Movements:      out,
	}, nil
}

func toSessionBrief(s *model.CashRegisterSession, operatorName string) *dto.SessionBrief {
	return &dto.SessionBrief{
		ID:            s.ID,
		OperatorID:    s.OperatorID,
		OperatorName:  operatorName,
		OpeningAmount: s.OpeningAmount,
		OpeningAt:     formatTime(s.OpeningAt),
		ClosingAmount: s.ClosingAmount,
		Difference:    s.Difference,
		ClosingAt:     formatTimePtr(s.ClosingAt),
	}
}
