package repository

import (
	"context"
	"time"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ClosingRecord is everything written by the OPEN → CLOSED transition.
type ClosingRecord struct {
	ClosingAmount        decimal.Decimal
	ClosingAt            time.Time
	ClosingNotes         *string
	ClosingPayments      []model.TenderLine
	ClosingDenominations []model.DenominationLine
	ReportedTotal        decimal.Decimal
	Difference           decimal.Decimal
	ClosedBy             int64
}

// SessionFilter narrows ListRecent. Zero values mean "any".
type SessionFilter struct {
	RegisterCode string
	OperatorID   int64
	Status       model.SessionStatus
	Page         int
	Limit        int
}

type SessionRepository interface {
	// Create inserts a new OPEN session. The partial unique index makes this
	// the single-open check; a violation surfaces as a duplicate-key error.
	Create(ctx context.Context, s *model.CashRegisterSession) error
	FindByID(ctx context.Context, id int64) (*model.CashRegisterSession, error)
	FindOpenByRegister(ctx context.Context, code string) (*model.CashRegisterSession, error)
	// TransitionToClosed is a compare-and-swap on status = OPEN. It reports
	// false with a nil error when the row was no longer OPEN.
	TransitionToClosed(ctx context.Context, id int64, rec ClosingRecord) (bool, error)
	TransitionToCancelled(ctx context.Context, id int64, by int64, reason string, at time.Time) (bool, error)
	ListRecent(ctx context.Context, f SessionFilter) ([]model.CashRegisterSession, int64, error)
	ListOpen(ctx context.Context) ([]model.CashRegisterSession, error)
	// ListLastClosed returns the most recent CLOSED session of every register.
	ListLastClosed(ctx context.Context) ([]model.CashRegisterSession, error)
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) Create(ctx context.Context, s *model.CashRegisterSession) error {
	if s.OpeningDenominations == nil {
		s.OpeningDenominations = datatypes.JSONSlice[model.DenominationLine]{}
	}
	if s.ClosingPayments == nil {
		s.ClosingPayments = datatypes.JSONSlice[model.TenderLine]{}
	}
	if s.ClosingDenominations == nil {
		s.ClosingDenominations = datatypes.JSONSlice[model.DenominationLine]{}
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id int64) (*model.CashRegisterSession, error) {
	var s model.CashRegisterSession
	err := r.db.WithContext(ctx).First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindOpenByRegister(ctx context.Context, code string) (*model.CashRegisterSession, error) {
	var s model.CashRegisterSession
	err := r.db.WithContext(ctx).
		Where("cash_register_code = ? AND status = ?", code, string(model.SessionOpen)).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) TransitionToClosed(ctx context.Context, id int64, rec ClosingRecord) (bool, error) {
	payments := datatypes.JSONSlice[model.TenderLine](rec.ClosingPayments)
	if payments == nil {
		payments = datatypes.JSONSlice[model.TenderLine]{}
	}
	denoms := datatypes.JSONSlice[model.DenominationLine](rec.ClosingDenominations)
	if denoms == nil {
		denoms = datatypes.JSONSlice[model.DenominationLine]{}
	}
	res := r.db.WithContext(ctx).Model(&model.CashRegisterSession{}).
		Where("id = ? AND status = ?", id, string(model.SessionOpen)).
		Updates(map[string]any{
			"status":                string(model.SessionClosed),
			"closing_amount":        rec.ClosingAmount,
			"closing_at":            rec.ClosingAt,
			"closing_notes":         rec.ClosingNotes,
			"closing_payments":      payments,
			"closing_denominations": denoms,
			"reported_total":        rec.ReportedTotal,
			"difference":            rec.Difference,
			"closed_by":             rec.ClosedBy,
			"updated_at":            rec.ClosingAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *sessionRepo) TransitionToCancelled(ctx context.Context, id int64, by int64, reason string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.CashRegisterSession{}).
		Where("id = ? AND status = ?", id, string(model.SessionOpen)).
		Updates(map[string]any{
			"status":        string(model.SessionCancelled),
			"cancelled_at":  at,
			"cancelled_by":  by,
			"cancel_reason": reason,
			"updated_at":    at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *sessionRepo) ListRecent(ctx context.Context, f SessionFilter) ([]model.CashRegisterSession, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.CashRegisterSession{})
	if f.RegisterCode != "" {
		q = q.Where("cash_register_code = ?", f.RegisterCode)
	}
	if f.OperatorID != 0 {
		q = q.Where("operator_id = ?", f.OperatorID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	offset := (page - 1) * limit

	var sessions []model.CashRegisterSession
	err := q.Order("opening_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}

func (r *sessionRepo) ListOpen(ctx context.Context) ([]model.CashRegisterSession, error) {
	var sessions []model.CashRegisterSession
	err := r.db.WithContext(ctx).Where("status = ?", string(model.SessionOpen)).
		Order("cash_register_code ASC").Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) ListLastClosed(ctx context.Context) ([]model.CashRegisterSession, error) {
	// Sessions of one register never overlap, so the highest CLOSED id is the latest.
	latest := r.db.Model(&model.CashRegisterSession{}).
		Select("MAX(id)").
		Where("status = ?", string(model.SessionClosed)).
		Group("cash_register_code")

	var sessions []model.CashRegisterSession
	err := r.db.WithContext(ctx).Where("id IN (?)", latest).
		Order("cash_register_code ASC").Find(&sessions).Error
	return sessions, err
}
