package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SessionStatus: "OPEN" | "CLOSED" | "CANCELLED"
type SessionStatus string

const (
	SessionOpen      SessionStatus = "OPEN"
	SessionClosed    SessionStatus = "CLOSED"
	SessionCancelled SessionStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed.
func (s SessionStatus) Terminal() bool {
	return s == SessionClosed || s == SessionCancelled
}

// CashRegisterSession is one open-to-close working period of a register.
// At most one row per CashRegisterCode may be OPEN; the partial unique index
// ux_cash_register_sessions_open enforces it (see infra.applySchemaPatches).
type CashRegisterSession struct {
	ID               int64         `gorm:"primaryKey;autoIncrement"`
	CashRegisterCode string        `gorm:"type:varchar(32);not null;index"`
	OperatorID       int64         `gorm:"not null;index"`
	Status           SessionStatus `gorm:"type:varchar(16);not null"`

	OpeningAmount        decimal.Decimal                       `gorm:"type:decimal(12,2);not null"`
	OpeningAt            time.Time                             `gorm:"not null"`
	OpeningNotes         *string                               `gorm:"type:text"`
	OpeningDenominations datatypes.JSONSlice[DenominationLine] `gorm:"not null"`

	// ClosingAmount is the authoritative expected total from the sales feed,
	// not what the operator declared. ReportedTotal and Difference are audit.
	ClosingAmount        *decimal.Decimal                      `gorm:"type:decimal(12,2)"`
	ClosingNotes         *string                               `gorm:"type:text"`
	ClosingPayments      datatypes.JSONSlice[TenderLine]       `gorm:"not null"`
	ClosingDenominations datatypes.JSONSlice[DenominationLine] `gorm:"not null"`
	ReportedTotal        *decimal.Decimal                      `gorm:"type:decimal(12,2)"`
	ClosingAt            *time.Time
	// Difference = reported - expected; positive is an overage, negative a shortage.
	Difference *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ClosedBy   *int64

	CancelledAt  *time.Time
	CancelledBy  *int64
	CancelReason *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CashRegisterSession) TableName() string { return "cash_register_sessions" }

// DenominationKind: "COIN" | "BILL" | "OTHER"
type DenominationKind string

const (
	DenominationCoin  DenominationKind = "COIN"
	DenominationBill  DenominationKind = "BILL"
	DenominationOther DenominationKind = "OTHER"
)

func (k DenominationKind) Valid() bool {
	switch k {
	case DenominationCoin, DenominationBill, DenominationOther:
		return true
	}
	return false
}

// DenominationLine is one (value, quantity) pair of physically counted currency.
type DenominationLine struct {
	CurrencyCode string           `json:"currency_code"`
	Kind         DenominationKind `json:"kind"`
	UnitValue    decimal.Decimal  `json:"unit_value"`
	Quantity     decimal.Decimal  `json:"quantity"`
}

// LineTotal = UnitValue × Quantity.
func (l DenominationLine) LineTotal() decimal.Decimal {
	return l.UnitValue.Mul(l.Quantity)
}

// TenderMethod: "CASH" | "CARD" | "TRANSFER" | "OTHER"
type TenderMethod string

const (
	TenderCash     TenderMethod = "CASH"
	TenderCard     TenderMethod = "CARD"
	TenderTransfer TenderMethod = "TRANSFER"
	TenderOther    TenderMethod = "OTHER"
)

// TenderMethods lists every method in canonical order.
var TenderMethods = []TenderMethod{TenderCash, TenderCard, TenderTransfer, TenderOther}

func (m TenderMethod) Valid() bool {
	switch m {
	case TenderCash, TenderCard, TenderTransfer, TenderOther:
		return true
	}
	return false
}

// TenderLine is one declared payment total at closing.
type TenderLine struct {
	Method         TenderMethod    `json:"method"`
	ReportedAmount decimal.Decimal `json:"reported_amount"`
}
