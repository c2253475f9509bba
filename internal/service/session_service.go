package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apperror"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/dto"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/metrics"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/money"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/repository"

	"github.com/rs/zerolog/log"
)

// SessionService is the session state machine: OPEN → CLOSED | CANCELLED.
// Terminal sessions reject every further mutation.
type SessionService interface {
	Open(ctx context.Context, actor Actor, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	// GetActive returns nil, nil when the register has no OPEN session.
	GetActive(ctx context.Context, code string) (*dto.SessionResponse, error)
	Get(ctx context.Context, id int64) (*dto.SessionResponse, error)
	// RequireOpen is called by every sales-recording path before accepting a
	// transaction against the session.
	RequireOpen(ctx context.Context, id int64) (*model.CashRegisterSession, error)
	Close(ctx context.Context, actor Actor, id int64, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error)
	Cancel(ctx context.Context, actor Actor, id int64, req dto.CancelSessionRequest) (*dto.SessionResponse, error)
	RecordMovement(ctx context.Context, actor Actor, id int64, req dto.MovementRequest) (*dto.MovementResponse, error)
}

type sessionService struct {
	sessions    repository.SessionRepository
	registers   repository.RegisterRepository
	assignments repository.AssignmentRepository
	movements   repository.MovementRepository
	registry    RegisterService
	recon       ReconciliationService
	notifier    SessionNotifier
	metrics     *metrics.Metrics
	clock       Clock
}

// NewSessionService wires the lifecycle manager. notifier, m and clock may be nil.
func NewSessionService(
	sessions repository.SessionRepository,
	registers repository.RegisterRepository,
	assignments repository.AssignmentRepository,
	movements repository.MovementRepository,
	recon ReconciliationService,
	notifier SessionNotifier,
	m *metrics.Metrics,
	clock Clock,
) SessionService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &sessionService{
		sessions:    sessions,
		registers:   registers,
		assignments: assignments,
		movements:   movements,
		registry:    NewRegisterService(registers),
		recon:       recon,
		notifier:    notifier,
		metrics:     m,
		clock:       clock,
	}
}

// ── Open ──────────────────────────────────────────────────────────────────────
// The INSERT itself is the single-open check: ux_cash_register_sessions_open
// rejects a second OPEN row for the register.

func (s *sessionService) Open(ctx context.Context, actor Actor, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	operatorID := actor.OperatorID
	if req.OperatorID != nil && *req.OperatorID != actor.OperatorID {
		if !actor.CanOverride() {
			return nil, apperror.Forbidden("cannot open a session on behalf of another operator")
		}
		operatorID = *req.OperatorID
	}

	code, err := s.resolveRegisterCode(ctx, operatorID, req.CashRegisterCode)
	if err != nil {
		return nil, err
	}

	reg, err := s.registers.FindByCode(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("register not found").WithRegister(code)
		}
		return nil, fmt.Errorf("find register: %w", err)
	}
	if !reg.IsActive {
		return nil, apperror.InvalidState(fmt.Sprintf("register %s is inactive", code)).WithRegister(code)
	}
	if !actor.CanOverride() {
		if err := s.requireAssigned(ctx, operatorID, code); err != nil {
			return nil, err
		}
	}

	amount := req.OpeningAmount
	if amount.IsNegative() {
		return nil, apperror.Validation("invalid opening amount",
			apperror.Field("opening_amount", "must be >= 0")).WithRegister(code)
	}
	if !amount.Equal(money.Round2(amount)) {
		return nil, apperror.Validation("invalid opening amount",
			apperror.Field("opening_amount", "must have at most %d decimal places", money.Places)).WithRegister(code)
	}

	if money.IsZero(amount) && len(req.OpeningDenominations) > 0 {
		return nil, apperror.Validation("invalid opening denominations",
			apperror.Field("opening_denominations", "must be empty when opening_amount is 0")).WithRegister(code)
	}
	denoms := denominationsFromDTO(req.OpeningDenominations)
	if check := validateDenominations("opening_denominations", denoms, amount, s.recon.LocalCurrency()); !check.Valid() {
		return nil, apperror.Validation("denomination mismatch", check.Violations...).WithRegister(code)
	}

	sess := &model.CashRegisterSession{
		CashRegisterCode:     code,
		OperatorID:           operatorID,
		Status:               model.SessionOpen,
		OpeningAmount:        amount,
		OpeningAt:            s.clock.Now(),
		OpeningNotes:         trimNotes(req.OpeningNotes),
		OpeningDenominations: denoms,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		if repository.IsDuplicateKeyErr(err) {
			return nil, s.alreadyOpen(ctx, code)
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.metrics.SessionOpened(code)
	log.Info().
		Int64("session_id", sess.ID).
		Str("register_code", code).
		Int64("operator_id", operatorID).
		Str("opening_amount", amount.StringFixed(2)).
		Msg("session opened")
	s.notifier.SessionOpened(ctx, sess)

	return toSessionResponse(sess), nil
}

func (s *sessionService) resolveRegisterCode(ctx context.Context, operatorID int64, requested string) (string, error) {
	if code := normalizeCode(requested); code != "" {
		return code, nil
	}
	def, err := s.assignments.FindDefault(ctx, operatorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", apperror.Validation("no register given",
				apperror.Field("cash_register_code", "required: operator has no default register"))
		}
		return "", fmt.Errorf("find default assignment: %w", err)
	}
	return def.CashRegisterCode, nil
}

func (s *sessionService) requireAssigned(ctx context.Context, operatorID int64, code string) error {
	if _, err := s.assignments.Find(ctx, operatorID, code); err != nil {
		if repository.IsNotFound(err) {
			return apperror.Forbidden("operator is not assigned to this register").WithRegister(code)
		}
		return fmt.Errorf("find assignment: %w", err)
	}
	return nil
}

// alreadyOpen builds the conflict error, naming the session that holds the register.
func (s *sessionService) alreadyOpen(ctx context.Context, code string) error {
	s.metrics.OpenConflict(code)
	conflict := apperror.Conflict("register already open").WithRegister(code)
	if existing, err := s.sessions.FindOpenByRegister(ctx, code); err == nil {
		conflict = conflict.WithSession(existing.ID)
	}
	log.Warn().Str("register_code", code).Int64("session_id", conflict.SessionID).Msg("open rejected: register already open")
	return conflict
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *sessionService) GetActive(ctx context.Context, code string) (*dto.SessionResponse, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, apperror.Validation("register code required",
			apperror.Field("register_code", "is required"))
	}
	sess, err := s.sessions.FindOpenByRegister(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find open session: %w", err)
	}
	return toSessionResponse(sess), nil
}

func (s *sessionService) Get(ctx context.Context, id int64) (*dto.SessionResponse, error) {
	sess, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(sess), nil
}

func (s *sessionService) RequireOpen(ctx context.Context, id int64) (*model.CashRegisterSession, error) {
	sess, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status.Terminal() {
		return nil, apperror.InvalidState(fmt.Sprintf("session is %s", sess.Status)).
			WithRegister(sess.CashRegisterCode).WithSession(id)
	}
	return sess, nil
}

// ── Close ─────────────────────────────────────────────────────────────────────

func (s *sessionService) Close(ctx context.Context, actor Actor, id int64, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error) {
	sess, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	switch sess.Status {
	case model.SessionClosed:
		s.metrics.CloseOutcome(metrics.OutcomeAlreadyClosed)
		return &dto.CloseSessionResponse{
			Outcome:       dto.OutcomeAlreadyClosed,
			AlreadyClosed: true,
			Session:       toSessionResponse(sess),
		}, nil
	case model.SessionCancelled:
		return nil, apperror.InvalidState("session is cancelled").
			WithRegister(sess.CashRegisterCode).WithSession(id)
	}
	if !actor.CanOverride() && actor.OperatorID != sess.OperatorID {
		if err := s.requireAssigned(ctx, actor.OperatorID, sess.CashRegisterCode); err != nil {
			return nil, err
		}
	}

	res, err := s.recon.ValidateAndCommitClosing(ctx, actor, id, ClosingInput{
		Payments:            tendersFromDTO(req.Payments),
		Notes:               trimNotes(req.ClosingNotes),
		Denominations:       denominationsFromDTO(req.ClosingDenominations),
		ConfirmedDifference: req.ConfirmedDifference,
	})
	if err != nil {
		return nil, err
	}

	switch {
	case res.Pending != nil:
		return &dto.CloseSessionResponse{Outcome: dto.OutcomePendingConfirmation, Pending: res.Pending}, nil
	case res.AlreadyClosed:
		return &dto.CloseSessionResponse{
			Outcome:       dto.OutcomeAlreadyClosed,
			AlreadyClosed: true,
			Session:       toSessionResponse(res.Session),
		}, nil
	default:
		return &dto.CloseSessionResponse{Outcome: dto.OutcomeClosed, Session: toSessionResponse(res.Session)}, nil
	}
}

// ── Cancel ────────────────────────────────────────────────────────────────────
// Administrative voiding. Same compare-and-swap guard as closing.

func (s *sessionService) Cancel(ctx context.Context, actor Actor, id int64, req dto.CancelSessionRequest) (*dto.SessionResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, apperror.Validation("cancel reason required", apperror.Field("reason", "is required"))
	}
	sess, err := s.RequireOpen(ctx, id)
	if err != nil {
		return nil, err
	}

	swapped, err := s.sessions.TransitionToCancelled(ctx, id, actor.OperatorID, reason, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("cancel session: %w", err)
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, apperror.InvalidState(fmt.Sprintf("session is %s", current.Status)).
			WithRegister(sess.CashRegisterCode).WithSession(id)
	}

	s.metrics.SessionCancelled()
	log.Warn().
		Int64("session_id", id).
		Str("register_code", current.CashRegisterCode).
		Int64("cancelled_by", actor.OperatorID).
		Str("reason", reason).
		Msg("session cancelled")
	s.notifier.SessionCancelled(ctx, current)
	return toSessionResponse(current), nil
}

// ── RecordMovement ────────────────────────────────────────────────────────────
// Movements are immutable. Outflows (REFUND, MANUAL_OUT) are stored negative.

func (s *sessionService) RecordMovement(ctx context.Context, actor Actor, id int64, req dto.MovementRequest) (*dto.MovementResponse, error) {
	kind := model.MovementKind(strings.ToUpper(req.Kind))
	method := model.TenderMethod(strings.ToUpper(req.Method))
	switch kind {
	case model.MovementSale, model.MovementRefund, model.MovementManualIn, model.MovementManualOut:
	default:
		return nil, apperror.Validation("invalid movement", apperror.Field("kind", "must be one of SALE, REFUND, MANUAL_IN, MANUAL_OUT"))
	}
	if !method.Valid() {
		return nil, apperror.Validation("invalid movement", apperror.Field("method", "must be one of CASH, CARD, TRANSFER, OTHER"))
	}
	amount := money.Round2(req.Amount)
	if !amount.IsPositive() {
		return nil, apperror.Validation("invalid movement", apperror.Field("amount", "must be > 0"))
	}

	sess, err := s.RequireOpen(ctx, id)
	if err != nil {
		return nil, err
	}
	warehouseID, err := s.registry.ResolveWarehouse(ctx, sess.CashRegisterCode, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	if kind.Outflow() {
		amount = amount.Neg()
	}
	mov := &model.CashMovement{
		SessionID:   sess.ID,
		Kind:        kind,
		Method:      method,
		Amount:      amount,
		WarehouseID: warehouseID,
		Description: strings.TrimSpace(req.Description),
		Reference:   req.Reference,
		CreatedBy:   actor.OperatorID,
	}
	if err := s.movements.Create(ctx, mov); err != nil {
		if errors.Is(err, repository.ErrSessionNotOpen) {
			return nil, apperror.InvalidState("session is no longer open").
				WithRegister(sess.CashRegisterCode).WithSession(id)
		}
		return nil, fmt.Errorf("create movement: %w", err)
	}
	s.metrics.MovementRecorded(string(kind))
	return toMovementResponse(mov), nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *sessionService) find(ctx context.Context, id int64) (*model.CashRegisterSession, error) {
	sess, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("session not found").WithSession(id)
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return sess, nil
}

func trimNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	t := strings.TrimSpace(*notes)
	if t == "" {
		return nil
	}
	return &t
}
