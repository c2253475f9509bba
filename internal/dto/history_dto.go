package dto

import "github.com/shopspring/decimal"

// SessionFilter is bound from the query string of GET /v1/sessions.
type SessionFilter struct {
	RegisterCode string `form:"register_code"`
	OperatorID   int64  `form:"operator_id"`
	Status       string `form:"status" validate:"omitempty,oneof=OPEN CLOSED CANCELLED"`
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
}

// SessionListResponse is returned by GET /v1/sessions, newest first.
type SessionListResponse struct {
	Data       []SessionResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// SessionBrief is the compact session view used by the register overview.
type SessionBrief struct {
	ID            int64            `json:"id"`
	OperatorID    int64            `json:"operator_id"`
	OperatorName  string           `json:"operator_name"`
	OpeningAmount decimal.Decimal  `json:"opening_amount"`
	OpeningAt     string           `json:"opening_at"`
	ClosingAmount *decimal.Decimal `json:"closing_amount,omitempty"`
	Difference    *decimal.Decimal `json:"difference,omitempty"`
	ClosingAt     *string          `json:"closing_at,omitempty"`
}

type RegisterOverviewItem struct {
	Register      RegisterResponse `json:"register"`
	ActiveSession *SessionBrief    `json:"active_session"`
	LastClosed    *SessionBrief    `json:"last_closed"`
}

// SessionReportResponse is the stable record a report renderer resolves by session id.
type SessionReportResponse struct {
	Session        SessionResponse            `json:"session"`
	OperatorName   string                     `json:"operator_name"`
	RegisterName   string                     `json:"register_name"`
	WarehouseID    int64                      `json:"warehouse_id"`
	TotalsByMethod map[string]decimal.Decimal `json:"totals_by_method"`
	LedgerTotal    decimal.Decimal            `json:"ledger_total"`
	MovementCount  int                        `json:"movement_count"`
	Movements      []MovementResponse         `json:"movements"`
}
