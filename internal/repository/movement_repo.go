package repository

import (
	"context"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MovementRepository is append-only: movements are never updated or deleted.
type MovementRepository interface {
	// Create inserts m only while its session is still OPEN, returning
	// ErrSessionNotOpen otherwise. The session row is locked for the insert
	// so a concurrent close either waits for it or is seen by it.
	Create(ctx context.Context, m *model.CashMovement) error
	ListBySession(ctx context.Context, sessionID int64) ([]model.CashMovement, error)
	SumBySession(ctx context.Context, sessionID int64) (decimal.Decimal, error)
	SumByMethod(ctx context.Context, sessionID int64) (map[model.TenderMethod]decimal.Decimal, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepo{db: db}
}

func (r *movementRepo) Create(ctx context.Context, m *model.CashMovement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sess model.CashRegisterSession
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").
			First(&sess, m.SessionID).Error
		if err != nil {
			return err
		}
		if sess.Status.Terminal() {
			return ErrSessionNotOpen
		}
		return tx.Create(m).Error
	})
}

func (r *movementRepo) ListBySession(ctx context.Context, sessionID int64) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).
		Order("id ASC").Find(&movs).Error
	return movs, err
}

// SumBySession sums in Go rather than SQL so the result stays exact on
// drivers that return SUM over decimals as a float.
func (r *movementRepo) SumBySession(ctx context.Context, sessionID int64) (decimal.Decimal, error) {
	byMethod, err := r.SumByMethod(ctx, sessionID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, v := range byMethod {
		total = total.Add(v)
	}
	return money.Round2(total), nil
}

func (r *movementRepo) SumByMethod(ctx context.Context, sessionID int64) (map[model.TenderMethod]decimal.Decimal, error) {
	var rows []struct {
		Method model.TenderMethod
		Amount decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.CashMovement{}).
		Select("method, amount").
		Where("session_id = ?", sessionID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[model.TenderMethod]decimal.Decimal, len(model.TenderMethods))
	for _, row := range rows {
		sums[row.Method] = sums[row.Method].Add(row.Amount)
	}
	for m, v := range sums {
		sums[m] = money.Round2(v)
	}
	return sums, nil
}
