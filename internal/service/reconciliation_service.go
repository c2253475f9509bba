package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apperror"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/dto"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/metrics"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/money"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ClosingInput is the operator's declaration at close. It is re-validated from
// scratch on every submission, including the confirming one.
type ClosingInput struct {
	Payments            []model.TenderLine
	Notes               *string
	Denominations       []model.DenominationLine
	ConfirmedDifference bool
}

// ClosingResult is exactly one of: a committed session, an already-committed
// session (AlreadyClosed), or a variance awaiting confirmation (Pending).
type ClosingResult struct {
	Session       *model.CashRegisterSession
	AlreadyClosed bool
	Pending       *dto.PendingConfirmation
}

type ReconciliationService interface {
	// PrepareClosing asks the sales feed for the session's expected total.
	PrepareClosing(ctx context.Context, sessionID int64) (decimal.Decimal, error)
	ValidateAndCommitClosing(ctx context.Context, actor Actor, sessionID int64, in ClosingInput) (*ClosingResult, error)
	// ValidateDenominationSet checks a request-shaped count against target.
	// Codes and kinds are normalized; an empty currency means the configured
	// local currency.
	ValidateDenominationSet(lines []dto.DenominationLine, target decimal.Decimal, currency string) DenominationCheck
	LocalCurrency() string
}

type ReconciliationConfig struct {
	LocalCurrency string
	FeedTimeout   time.Duration
}

type reconciliationService struct {
	sessions repository.SessionRepository
	feed     SalesFeed
	cfg      ReconciliationConfig
	notifier SessionNotifier
	metrics  *metrics.Metrics
	clock    Clock
}

// NewReconciliationService wires the engine. notifier, m and clock may be nil.
func NewReconciliationService(
	sessions repository.SessionRepository,
	feed SalesFeed,
	cfg ReconciliationConfig,
	notifier SessionNotifier,
	m *metrics.Metrics,
	clock Clock,
) ReconciliationService {
	if cfg.LocalCurrency == "" {
		cfg.LocalCurrency = "ARS"
	}
	if cfg.FeedTimeout <= 0 {
		cfg.FeedTimeout = 5 * time.Second
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &reconciliationService{
		sessions: sessions,
		feed:     feed,
		cfg:      cfg,
		notifier: notifier,
		metrics:  m,
		clock:    clock,
	}
}

func (s *reconciliationService) LocalCurrency() string { return s.cfg.LocalCurrency }

func (s *reconciliationService) ValidateDenominationSet(lines []dto.DenominationLine, target decimal.Decimal, currency string) DenominationCheck {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.cfg.LocalCurrency
	}
	return ValidateDenominationSet(denominationsFromDTO(lines), target, currency)
}

// ── PrepareClosing ────────────────────────────────────────────────────────────

func (s *reconciliationService) PrepareClosing(ctx context.Context, sessionID int64) (decimal.Decimal, error) {
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return decimal.Zero, apperror.NotFound("session not found").WithSession(sessionID)
		}
		return decimal.Zero, fmt.Errorf("find session: %w", err)
	}
	if sess.Status != model.SessionOpen {
		return decimal.Zero, apperror.NotFound("session is not open").
			WithRegister(sess.CashRegisterCode).WithSession(sessionID)
	}
	return s.expectedTotal(ctx, sess)
}

func (s *reconciliationService) expectedTotal(ctx context.Context, sess *model.CashRegisterSession) (decimal.Decimal, error) {
	feedCtx, cancel := context.WithTimeout(ctx, s.cfg.FeedTimeout)
	defer cancel()

	total, err := s.feed.GetExpectedTotal(feedCtx, sess.ID)
	if err != nil {
		s.metrics.SalesFeedError()
		log.Warn().Err(err).Int64("session_id", sess.ID).Msg("sales feed lookup failed")
		return decimal.Zero, apperror.Dependency("sales feed unavailable", err).
			WithRegister(sess.CashRegisterCode).WithSession(sess.ID)
	}
	return money.Round2(total), nil
}

// ── ValidateAndCommitClosing ──────────────────────────────────────────────────
// 1. normalize tenders  2. cash/denomination cross-check (self-correcting)
// 3. variance against the feed  4. compare-and-swap commit
// Nothing is written before step 4.

func (s *reconciliationService) ValidateAndCommitClosing(ctx context.Context, actor Actor, sessionID int64, in ClosingInput) (*ClosingResult, error) {
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("session not found").WithSession(sessionID)
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	switch sess.Status {
	case model.SessionClosed:
		s.metrics.CloseOutcome(metrics.OutcomeAlreadyClosed)
		return &ClosingResult{Session: sess, AlreadyClosed: true}, nil
	case model.SessionCancelled:
		return nil, apperror.InvalidState("session is cancelled").
			WithRegister(sess.CashRegisterCode).WithSession(sessionID)
	}

	tenders, err := normalizeTenders(in.Payments)
	if err != nil {
		s.metrics.CloseOutcome(metrics.OutcomeRejected)
		return nil, withSession(err, sess)
	}

	tenders, err = s.reconcileCash(sess, tenders, in.Denominations)
	if err != nil {
		s.metrics.CloseOutcome(metrics.OutcomeRejected)
		return nil, withSession(err, sess)
	}
	reportedTotal := sumTenders(tenders)

	expected, err := s.expectedTotal(ctx, sess)
	if err != nil {
		return nil, err
	}
	difference := money.Round2(reportedTotal.Sub(expected))

	if !money.IsZero(difference) && !in.ConfirmedDifference {
		s.metrics.CloseOutcome(metrics.OutcomePending)
		log.Info().
			Int64("session_id", sess.ID).
			Str("expected", expected.StringFixed(2)).
			Str("reported", reportedTotal.StringFixed(2)).
			Str("difference", difference.StringFixed(2)).
			Msg("close pending variance confirmation")
		return &ClosingResult{Pending: &dto.PendingConfirmation{
			ExpectedTotal: expected,
			ReportedTotal: reportedTotal,
			Difference:    difference,
		}}, nil
	}
	if money.IsZero(difference) {
		difference = decimal.Zero
	}

	denoms := in.Denominations
	if denoms == nil {
		denoms = []model.DenominationLine{}
	}
	rec := repository.ClosingRecord{
		ClosingAmount:        expected,
		ClosingAt:            s.clock.Now(),
		ClosingNotes:         in.Notes,
		ClosingPayments:      tenders,
		ClosingDenominations: denoms,
		ReportedTotal:        reportedTotal,
		Difference:           difference,
		ClosedBy:             actor.OperatorID,
	}
	swapped, err := s.sessions.TransitionToClosed(ctx, sess.ID, rec)
	if err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}

	current, err := s.sessions.FindByID(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("reload session: %w", err)
	}
	if !swapped {
		// Lost the race: someone else moved the session out of OPEN.
		if current.Status == model.SessionClosed {
			s.metrics.CloseOutcome(metrics.OutcomeAlreadyClosed)
			return &ClosingResult{Session: current, AlreadyClosed: true}, nil
		}
		return nil, apperror.InvalidState(fmt.Sprintf("session is %s", current.Status)).
			WithRegister(current.CashRegisterCode).WithSession(current.ID)
	}

	s.metrics.SessionClosed(difference)
	logEvt := log.Info()
	if !difference.IsZero() {
		logEvt = log.Warn()
	}
	logEvt.
		Int64("session_id", current.ID).
		Str("register_code", current.CashRegisterCode).
		Int64("closed_by", actor.OperatorID).
		Str("closing_amount", expected.StringFixed(2)).
		Str("difference", difference.StringFixed(2)).
		Msg("session closed")
	s.notifier.SessionClosed(ctx, current)

	return &ClosingResult{Session: current}, nil
}

// reconcileCash enforces the physical count for cash. When the typed CASH
// figure disagrees with the counted denominations, the count wins.
func (s *reconciliationService) reconcileCash(sess *model.CashRegisterSession, tenders []model.TenderLine, denoms []model.DenominationLine) ([]model.TenderLine, error) {
	cashIdx := -1
	for i, t := range tenders {
		if t.Method == model.TenderCash {
			cashIdx = i
			break
		}
	}

	if cashIdx < 0 {
		if len(denoms) > 0 {
			check := checkDenominationLines("closing_denominations", denoms, s.cfg.LocalCurrency)
			if !check.Valid() {
				return nil, apperror.Validation("denomination mismatch", check.Violations...)
			}
		}
		return tenders, nil
	}

	reportedCash := tenders[cashIdx].ReportedAmount
	if len(denoms) == 0 {
		return nil, apperror.Validation("closing denominations required",
			apperror.Field("closing_denominations", "required when CASH is reported"))
	}
	check := checkDenominationLines("closing_denominations", denoms, s.cfg.LocalCurrency)
	if !check.Valid() {
		return nil, apperror.Validation("denomination mismatch", check.Violations...)
	}
	if !money.Equal(check.Sum, reportedCash) {
		counted := money.Round2(check.Sum)
		log.Info().
			Int64("session_id", sess.ID).
			Str("reported_cash", reportedCash.StringFixed(2)).
			Str("counted_cash", counted.StringFixed(2)).
			Msg("cash tender corrected to counted denominations")
		tenders[cashIdx].ReportedAmount = counted
	}
	return tenders, nil
}

// normalizeTenders rejects unknown methods and negative amounts, drops zero
// lines, and collapses the rest to one line per method in canonical order.
func normalizeTenders(payments []model.TenderLine) ([]model.TenderLine, error) {
	var violations []apperror.FieldViolation
	sums := make(map[model.TenderMethod]decimal.Decimal, len(model.TenderMethods))
	for i, p := range payments {
		path := fmt.Sprintf("payments[%d]", i)
		if !p.Method.Valid() {
			violations = append(violations, apperror.Field(path+".method", "must be one of CASH, CARD, TRANSFER, OTHER"))
			continue
		}
		if p.ReportedAmount.IsNegative() {
			violations = append(violations, apperror.Field(path+".reported_amount", "must be >= 0"))
			continue
		}
		amount := money.Round2(p.ReportedAmount)
		if amount.IsZero() {
			continue
		}
		sums[p.Method] = sums[p.Method].Add(amount)
	}
	if len(violations) > 0 {
		return nil, apperror.Validation("invalid payments", violations...)
	}
	if len(sums) == 0 {
		return nil, apperror.Validation("no valid payments",
			apperror.Field("payments", "at least one payment with amount > 0 is required"))
	}

	out := make([]model.TenderLine, 0, len(sums))
	for _, m := range model.TenderMethods {
		if v, ok := sums[m]; ok {
			out = append(out, model.TenderLine{Method: m, ReportedAmount: v})
		}
	}
	return out, nil
}

func sumTenders(tenders []model.TenderLine) decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(tenders))
	for _, t := range tenders {
		amounts = append(amounts, t.ReportedAmount)
	}
	return money.Round2(money.Sum(amounts...))
}

func withSession(err error, sess *model.CashRegisterSession) error {
	var e *apperror.Error
	if errors.As(err, &e) {
		return e.WithRegister(sess.CashRegisterCode).WithSession(sess.ID)
	}
	return err
}
