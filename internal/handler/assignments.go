package handler

import (
	"net/http"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/dto"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type AssignmentsHandler struct{ svc service.AssignmentService }

func NewAssignmentsHandler(svc service.AssignmentService) *AssignmentsHandler {
	return &AssignmentsHandler{svc: svc}
}

// Assign godoc
// @Summary Assigns an operator to a register
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AssignRequest true "Assignment"
// @Success 201 {object} dto.AssignmentResponse
// @Failure 404 {object} apierror.APIError "unknown register"
// @Failure 409 {object} apierror.APIError "already assigned"
// @Router /v1/assignments [post]
func (h *AssignmentsHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Assign(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Unassign godoc
// @Summary Removes an assignment
// @Tags assignments
// @Security BearerAuth
// @Param operator_id path int true "Operator"
// @Param code path string true "Register code"
// @Success 204
// @Router /v1/assignments/{operator_id}/{code} [delete]
func (h *AssignmentsHandler) Unassign(c *gin.Context) {
	operatorID, ok := int64Param(c, "operator_id")
	if !ok {
		return
	}
	if err := h.svc.Unassign(c.Request.Context(), operatorID, c.Param("code")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetDefault godoc
// @Summary Makes an existing assignment the operator's default
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SetDefaultRequest true "Assignment"
// @Success 200 {object} dto.AssignmentResponse
// @Router /v1/assignments/default [put]
func (h *AssignmentsHandler) SetDefault(c *gin.Context) {
	var req dto.SetDefaultRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetDefault(c.Request.Context(), req.OperatorID, req.CashRegisterCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AssignmentsHandler) ListByOperator(c *gin.Context) {
	operatorID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListByOperator(c.Request.Context(), operatorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AssignmentsHandler) GetDefault(c *gin.Context) {
	operatorID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetDefault(c.Request.Context(), operatorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AssignmentsHandler) ListByRegister(c *gin.Context) {
	resp, err := h.svc.ListByRegister(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
