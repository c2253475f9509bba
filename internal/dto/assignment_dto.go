package dto

type AssignRequest struct {
	OperatorID       int64  `json:"operator_id"        validate:"required,gt=0"`
	CashRegisterCode string `json:"cash_register_code" validate:"required,max=32"`
	IsDefault        bool   `json:"is_default"`
}

type SetDefaultRequest struct {
	OperatorID       int64  `json:"operator_id"        validate:"required,gt=0"`
	CashRegisterCode string `json:"cash_register_code" validate:"required,max=32"`
}

type AssignmentResponse struct {
	OperatorID       int64  `json:"operator_id"`
	CashRegisterCode string `json:"cash_register_code"`
	IsDefault        bool   `json:"is_default"`
	CreatedAt        string `json:"created_at"`
}
