package service

import (
	"strings"
	"time"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/dto"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"
)

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func denominationsFromDTO(in []dto.DenominationLine) []model.DenominationLine {
	out := make([]model.DenominationLine, 0, len(in))
	for _, l := range in {
		out = append(out, model.DenominationLine{
			CurrencyCode: strings.ToUpper(strings.TrimSpace(l.CurrencyCode)),
			Kind:         model.DenominationKind(strings.ToUpper(strings.TrimSpace(l.Kind))),
			UnitValue:    l.UnitValue,
			Quantity:     l.Quantity,
		})
	}
	return out
}

func denominationsToDTO(in []model.DenominationLine) []dto.DenominationLine {
	out := make([]dto.DenominationLine, 0, len(in))
	for _, l := range in {
		out = append(out, dto.DenominationLine{
			CurrencyCode: l.CurrencyCode,
			Kind:         string(l.Kind),
			UnitValue:    l.UnitValue,
			Quantity:     l.Quantity,
		})
	}
	return out
}

func tendersFromDTO(in []dto.TenderLine) []model.TenderLine {
	out := make([]model.TenderLine, 0, len(in))
	for _, t := range in {
		out = append(out, model.TenderLine{
			Method:         model.TenderMethod(strings.ToUpper(strings.TrimSpace(t.Method))),
			ReportedAmount: t.ReportedAmount,
		})
	}
	return out
}

func tendersToDTO(in []model.TenderLine) []dto.TenderLine {
	out := make([]dto.TenderLine, 0, len(in))
	for _, t := range in {
		out = append(out, dto.TenderLine{Method: string(t.Method), ReportedAmount: t.ReportedAmount})
	}
	return out
}

func toSessionResponse(s *model.CashRegisterSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		ID:                   s.ID,
		CashRegisterCode:     s.CashRegisterCode,
		OperatorID:           s.OperatorID,
		Status:               string(s.Status),
		OpeningAmount:        s.OpeningAmount,
		OpeningAt:            formatTime(s.OpeningAt),
		OpeningNotes:         s.OpeningNotes,
		OpeningDenominations: denominationsToDTO(s.OpeningDenominations),
		ClosingAmount:        s.ClosingAmount,
		ClosingAt:            formatTimePtr(s.ClosingAt),
		ClosingNotes:         s.ClosingNotes,
		ClosingPayments:      tendersToDTO(s.ClosingPayments),
		ClosingDenominations: denominationsToDTO(s.ClosingDenominations),
		ReportedTotal:        s.ReportedTotal,
		Difference:           s.Difference,
		ClosedBy:             s.ClosedBy,
		CancelledAt:          formatTimePtr(s.CancelledAt),
		CancelledBy:          s.CancelledBy,
		CancelReason:         s.CancelReason,
	}
}

func toRegisterResponse(r *model.CashRegister) *dto.RegisterResponse {
	return &dto.RegisterResponse{
		Code:                         r.Code,
		Name:                         r.Name,
		WarehouseID:                  r.WarehouseID,
		AllowManualWarehouseOverride: r.AllowManualWarehouseOverride,
		IsActive:                     r.IsActive,
		Notes:                        r.Notes,
		CreatedAt:                    formatTime(r.CreatedAt),
		UpdatedAt:                    formatTime(r.UpdatedAt),
	}
}

func toAssignmentResponse(a *model.CashRegisterAssignment) *dto.AssignmentResponse {
	return &dto.AssignmentResponse{
		OperatorID:       a.OperatorID,
		CashRegisterCode: a.CashRegisterCode,
		IsDefault:        a.IsDefault,
		CreatedAt:        formatTime(a.CreatedAt),
	}
}

func toMovementResponse(m *model.CashMovement) *dto.MovementResponse {
	return &dto.MovementResponse{
		ID:          m.ID,
		SessionID:   m.SessionID,
		Kind:        string(m.Kind),
		Method:      string(m.Method),
		Amount:      m.Amount,
		WarehouseID: m.WarehouseID,
		Description: m.Description,
		Reference:   m.Reference,
		CreatedAt:   formatTime(m.CreatedAt),
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
