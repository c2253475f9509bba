// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import "github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apperror"

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
// RegisterCode and SessionID let a client redirect the user to the conflicting
// session instead of retrying blindly.
type APIError struct {
	Detail       string                    `json:"detail"`
	Code         string                    `json:"code,omitempty"`
	Fields       []apperror.FieldViolation `json:"fields,omitempty"`
	RegisterCode string                    `json:"register_code,omitempty"`
	SessionID    int64                     `json:"session_id,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// NewValidation wraps multiple field errors.
func NewValidation(fields []apperror.FieldViolation) *APIError {
	return &APIError{
		Detail: "validation error",
		Code:   apperror.KindValidation.String(),
		Fields: fields,
	}
}

// FromError renders a domain error. Internal errors never reach this point.
func FromError(e *apperror.Error) *APIError {
	return &APIError{
		Detail:       e.Message,
		Code:         e.Kind.String(),
		Fields:       e.Fields,
		RegisterCode: e.RegisterCode,
		SessionID:    e.SessionID,
	}
}
