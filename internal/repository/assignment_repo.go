package repository

import (
	"context"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssignmentRepository persists operator ↔ register assignments.
// Every write that touches IsDefault runs in one transaction that locks the
// operator's rows, then clears the previous default. Concurrent default
// switches for one operator therefore run one after the other.
type AssignmentRepository interface {
	Create(ctx context.Context, a *model.CashRegisterAssignment) error
	Delete(ctx context.Context, operatorID int64, code string) error
	Find(ctx context.Context, operatorID int64, code string) (*model.CashRegisterAssignment, error)
	FindDefault(ctx context.Context, operatorID int64) (*model.CashRegisterAssignment, error)
	ListByOperator(ctx context.Context, operatorID int64) ([]model.CashRegisterAssignment, error)
	ListByRegister(ctx context.Context, code string) ([]model.CashRegisterAssignment, error)
	SetDefault(ctx context.Context, operatorID int64, code string) error
}

type assignmentRepo struct{ db *gorm.DB }

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, a *model.CashRegisterAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.IsDefault {
			if err := lockOperator(tx, a.OperatorID); err != nil {
				return err
			}
			if err := clearDefault(tx, a.OperatorID); err != nil {
				return err
			}
		}
		return tx.Create(a).Error
	})
}

func (r *assignmentRepo) Delete(ctx context.Context, operatorID int64, code string) error {
	res := r.db.WithContext(ctx).
		Where("operator_id = ? AND cash_register_code = ?", operatorID, code).
		Delete(&model.CashRegisterAssignment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *assignmentRepo) Find(ctx context.Context, operatorID int64, code string) (*model.CashRegisterAssignment, error) {
	var a model.CashRegisterAssignment
	err := r.db.WithContext(ctx).
		Where("operator_id = ? AND cash_register_code = ?", operatorID, code).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) FindDefault(ctx context.Context, operatorID int64) (*model.CashRegisterAssignment, error) {
	var a model.CashRegisterAssignment
	err := r.db.WithContext(ctx).
		Where("operator_id = ? AND is_default = ?", operatorID, true).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) ListByOperator(ctx context.Context, operatorID int64) ([]model.CashRegisterAssignment, error) {
	var list []model.CashRegisterAssignment
	err := r.db.WithContext(ctx).Where("operator_id = ?", operatorID).
		Order("cash_register_code ASC").Find(&list).Error
	return list, err
}

func (r *assignmentRepo) ListByRegister(ctx context.Context, code string) ([]model.CashRegisterAssignment, error) {
	var list []model.CashRegisterAssignment
	err := r.db.WithContext(ctx).Where("cash_register_code = ?", code).
		Order("operator_id ASC").Find(&list).Error
	return list, err
}

func (r *assignmentRepo) SetDefault(ctx context.Context, operatorID int64, code string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOperator(tx, operatorID); err != nil {
			return err
		}
		if err := clearDefault(tx, operatorID); err != nil {
			return err
		}
		res := tx.Model(&model.CashRegisterAssignment{}).
			Where("operator_id = ? AND cash_register_code = ?", operatorID, code).
			Update("is_default", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// lockOperator takes row locks on every assignment of the operator. A first
// assignment has no rows to lock; the default index still rejects a racing
// second default and the caller reports it as a conflict.
func lockOperator(tx *gorm.DB, operatorID int64) error {
	var rows []model.CashRegisterAssignment
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("operator_id = ?", operatorID).
		Order("cash_register_code ASC").
		Find(&rows).Error
}

func clearDefault(tx *gorm.DB, operatorID int64) error {
	return tx.Model(&model.CashRegisterAssignment{}).
		Where("operator_id = ? AND is_default = ?", operatorID, true).
		Update("is_default", false).Error
}
