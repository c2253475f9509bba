package model

import (
	"time"
)

// CashRegisterAssignment allows an operator to work a register.
// At most one assignment per operator has IsDefault set; the partial unique
// index ux_cash_register_assignments_default backs that rule in the store.
type CashRegisterAssignment struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	OperatorID       int64  `gorm:"not null;uniqueIndex:ux_cash_register_assignments_pair"`
	CashRegisterCode string `gorm:"type:varchar(32);not null;uniqueIndex:ux_cash_register_assignments_pair;index"`
	IsDefault        bool   `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (CashRegisterAssignment) TableName() string { return "cash_register_assignments" }
