package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind: "SALE" | "REFUND" | "MANUAL_IN" | "MANUAL_OUT"
type MovementKind string

const (
	MovementSale      MovementKind = "SALE"
	MovementRefund    MovementKind = "REFUND"
	MovementManualIn  MovementKind = "MANUAL_IN"
	MovementManualOut MovementKind = "MANUAL_OUT"
)

// Outflow reports whether the movement is stored with a negative amount.
func (k MovementKind) Outflow() bool {
	return k == MovementRefund || k == MovementManualOut
}

// CashMovement is an immutable entry in a session's ledger.
// Movements are NEVER modified or deleted; a refund is a new negative entry.
type CashMovement struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	SessionID   int64           `gorm:"not null;index"`
	Kind        MovementKind    `gorm:"type:varchar(16);not null"`
	Method      TenderMethod    `gorm:"type:varchar(16);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	WarehouseID int64           `gorm:"not null"`
	Description string          `gorm:"not null"`
	// Reference links to the originating sale or document in the caller's system.
	Reference *string `gorm:"type:varchar(64)"`
	CreatedBy int64   `gorm:"not null"`
	CreatedAt time.Time
}

func (CashMovement) TableName() string { return "cash_movements" }
