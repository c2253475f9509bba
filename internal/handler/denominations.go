package handler

import (
	"net/http"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apperror"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/dto"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type DenominationsHandler struct{ recon service.ReconciliationService }

func NewDenominationsHandler(recon service.ReconciliationService) *DenominationsHandler {
	return &DenominationsHandler{recon: recon}
}

// Validate godoc
// @Summary Pre-checks a cash count against a target amount
// @Description Always 200; inspect valid and violations.
// @Tags denominations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ValidateDenominationsRequest true "Count"
// @Success 200 {object} dto.DenominationCheckResponse
// @Router /v1/denominations/validate [post]
func (h *DenominationsHandler) Validate(c *gin.Context) {
	var req dto.ValidateDenominationsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	check := h.recon.ValidateDenominationSet(req.Lines, req.TargetAmount, req.CurrencyCode)
	violations := check.Violations
	if violations == nil {
		violations = []apperror.FieldViolation{}
	}
	c.JSON(http.StatusOK, dto.DenominationCheckResponse{
		Valid:      check.Valid(),
		Sum:        check.Sum,
		Violations: violations,
	})
}
