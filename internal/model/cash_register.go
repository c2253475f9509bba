package model

import (
	"time"
)

// CashRegister is a physical till bound to one warehouse.
// Registers are deactivated, never deleted, so historical sessions keep
// resolving their CashRegisterCode.
type CashRegister struct {
	Code        string `gorm:"type:varchar(32);primaryKey"`
	Name        string `gorm:"type:varchar(120);not null"`
	WarehouseID int64  `gorm:"not null;index"`
	// AllowManualWarehouseOverride lets a sale recorded at this register name
	// a different warehouse than the bound one.
	AllowManualWarehouseOverride bool    `gorm:"not null;default:false"`
	IsActive                     bool    `gorm:"not null;default:true"`
	Notes                        *string `gorm:"type:text"`
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
}

func (CashRegister) TableName() string { return "cash_registers" }
