package repository

import (
	"context"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"

	"gorm.io/gorm"
)

type RegisterRepository interface {
	Create(ctx context.Context, r *model.CashRegister) error
	FindByCode(ctx context.Context, code string) (*model.CashRegister, error)
	List(ctx context.Context, activeOnly bool) ([]model.CashRegister, error)
	Update(ctx context.Context, r *model.CashRegister) error
	SetActive(ctx context.Context, code string, active bool) error
}

type registerRepo struct{ db *gorm.DB }

func NewRegisterRepository(db *gorm.DB) RegisterRepository { return &registerRepo{db: db} }

func (r *registerRepo) Create(ctx context.Context, reg *model.CashRegister) error {
	// IsActive carries a column default; an explicit false would be dropped by Create.
	return r.db.WithContext(ctx).Select("*").Create(reg).Error
}

func (r *registerRepo) FindByCode(ctx context.Context, code string) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registerRepo) List(ctx context.Context, activeOnly bool) ([]model.CashRegister, error) {
	var regs []model.CashRegister
	q := r.db.WithContext(ctx).Order("code ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&regs).Error
	return regs, err
}

func (r *registerRepo) Update(ctx context.Context, reg *model.CashRegister) error {
	return r.db.WithContext(ctx).Save(reg).Error
}

func (r *registerRepo) SetActive(ctx context.Context, code string, active bool) error {
	res := r.db.WithContext(ctx).Model(&model.CashRegister{}).Where("code = ?", code).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
