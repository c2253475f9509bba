package dto

import (
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apperror"

	"github.com/shopspring/decimal"
)

// ─── Shared ──────────────────────────────────────────────────────────────────

// DenominationLine is checked by the reconciliation engine, not by tags, so
// violations come back with their index (denominations[2].quantity).
type DenominationLine struct {
	CurrencyCode string          `json:"currency_code"`
	Kind         string          `json:"kind"`
	UnitValue    decimal.Decimal `json:"unit_value"`
	Quantity     decimal.Decimal `json:"quantity"`
}

type TenderLine struct {
	Method         string          `json:"method"`
	ReportedAmount decimal.Decimal `json:"reported_amount"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// OpenSessionRequest opens a register. An empty CashRegisterCode resolves to the
// operator's default assignment. OperatorID is honored only for supervisors and
// admins opening on behalf of someone else.
type OpenSessionRequest struct {
	CashRegisterCode     string             `json:"cash_register_code" validate:"omitempty,max=32"`
	OperatorID           *int64             `json:"operator_id"        validate:"omitempty,gt=0"`
	OpeningAmount        decimal.Decimal    `json:"opening_amount"`
	OpeningNotes         *string            `json:"opening_notes"`
	OpeningDenominations []DenominationLine `json:"opening_denominations"`
}

type CloseSessionRequest struct {
	Payments             []TenderLine       `json:"payments"`
	ClosingNotes         *string            `json:"closing_notes"`
	ClosingDenominations []DenominationLine `json:"closing_denominations"`
	ConfirmedDifference  bool               `json:"confirmed_difference"`
}

type CancelSessionRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type MovementRequest struct {
	Kind        string          `json:"kind"         validate:"required,oneof=SALE REFUND MANUAL_IN MANUAL_OUT"`
	Method      string          `json:"method"       validate:"required,oneof=CASH CARD TRANSFER OTHER"`
	Amount      decimal.Decimal `json:"amount"       validate:"required,gt=0"`
	Description string          `json:"description"  validate:"required,min=3"`
	Reference   *string         `json:"reference"    validate:"omitempty,max=64"`
	WarehouseID *int64          `json:"warehouse_id" validate:"omitempty,gt=0"`
}

// ValidateDenominationsRequest lets a client pre-check a count before submitting.
// CurrencyCode defaults to the configured local currency.
type ValidateDenominationsRequest struct {
	Lines        []DenominationLine `json:"lines"`
	TargetAmount decimal.Decimal    `json:"target_amount"`
	CurrencyCode string             `json:"currency_code" validate:"omitempty,len=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SessionResponse struct {
	ID                   int64              `json:"id"`
	CashRegisterCode     string             `json:"cash_register_code"`
	OperatorID           int64              `json:"operator_id"`
	Status               string             `json:"status"`
	OpeningAmount        decimal.Decimal    `json:"opening_amount"`
	OpeningAt            string             `json:"opening_at"`
	OpeningNotes         *string            `json:"opening_notes"`
	OpeningDenominations []DenominationLine `json:"opening_denominations"`
	ClosingAmount        *decimal.Decimal   `json:"closing_amount"`
	ClosingAt            *string            `json:"closing_at"`
	ClosingNotes         *string            `json:"closing_notes"`
	ClosingPayments      []TenderLine       `json:"closing_payments"`
	ClosingDenominations []DenominationLine `json:"closing_denominations"`
	ReportedTotal        *decimal.Decimal   `json:"reported_total"`
	Difference           *decimal.Decimal   `json:"difference"`
	ClosedBy             *int64             `json:"closed_by"`
	CancelledAt          *string            `json:"cancelled_at,omitempty"`
	CancelledBy          *int64             `json:"cancelled_by,omitempty"`
	CancelReason         *string            `json:"cancel_reason,omitempty"`
}

// Close outcomes.
const (
	OutcomeClosed              = "closed"
	OutcomeAlreadyClosed       = "already_closed"
	OutcomePendingConfirmation = "pending_confirmation"
)

// PendingConfirmation is returned, not raised, when the reported total
// differs from the expected one and the caller has not confirmed it.
type PendingConfirmation struct {
	ExpectedTotal decimal.Decimal `json:"expected_total"`
	ReportedTotal decimal.Decimal `json:"reported_total"`
	Difference    decimal.Decimal `json:"difference"`
}

type CloseSessionResponse struct {
	Outcome       string               `json:"outcome"`
	AlreadyClosed bool                 `json:"already_closed"`
	Session       *SessionResponse     `json:"session,omitempty"`
	Pending       *PendingConfirmation `json:"pending,omitempty"`
}

type ExpectedTotalResponse struct {
	SessionID     int64           `json:"session_id"`
	ExpectedTotal decimal.Decimal `json:"expected_total"`
}

type DenominationCheckResponse struct {
	Valid      bool                      `json:"valid"`
	Sum        decimal.Decimal           `json:"sum"`
	Violations []apperror.FieldViolation `json:"violations"`
}

type MovementResponse struct {
	ID          int64           `json:"id"`
	SessionID   int64           `json:"session_id"`
	Kind        string          `json:"kind"`
	Method      string          `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	WarehouseID int64           `json:"warehouse_id"`
	Description string          `json:"description"`
	Reference   *string         `json:"reference"`
	CreatedAt   string          `json:"created_at"`
}
