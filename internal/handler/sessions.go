package handler

import (
	"fmt"
	"net/http"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/dto"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/infra"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionsHandler struct {
	sessions service.SessionService
	recon    service.ReconciliationService
	history  service.HistoryService
}

func NewSessionsHandler(sessions service.SessionService, recon service.ReconciliationService, history service.HistoryService) *SessionsHandler {
	return &SessionsHandler{sessions: sessions, recon: recon, history: history}
}

// Open godoc
// @Summary Opens a session on a register
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenSessionRequest true "Opening float and count"
// @Success 201 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError "register already open"
// @Failure 422 {object} apierror.APIError
// @Router /v1/sessions [post]
func (h *SessionsHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sessions.Open(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetActive godoc
// @Summary Returns the OPEN session of a register
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param register_code query string true "Register code"
// @Success 200 {object} dto.SessionResponse
// @Success 204 "no open session"
// @Router /v1/sessions/active [get]
func (h *SessionsHandler) GetActive(c *gin.Context) {
	resp, err := h.sessions.GetActive(c.Request.Context(), c.Query("register_code"))
	if err != nil {
		respondError(c, err)
		return
	}
	if resp == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Returns a session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sessions/{id} [get]
func (h *SessionsHandler) Get(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	resp, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExpectedTotal godoc
// @Summary Asks the sales feed what an OPEN session should hold
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.ExpectedTotalResponse
// @Failure 503 {object} apierror.APIError "sales feed unavailable"
// @Router /v1/sessions/{id}/expected-total [get]
func (h *SessionsHandler) ExpectedTotal(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	total, err := h.recon.PrepareClosing(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ExpectedTotalResponse{SessionID: id, ExpectedTotal: total})
}

// Close godoc
// @Summary Reconciles and closes a session
// @Description A non-zero difference without confirmed_difference returns 202
// @Description with the pending figures and leaves the session OPEN.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param body body dto.CloseSessionRequest true "Declared tenders and cash count"
// @Success 200 {object} dto.CloseSessionResponse
// @Success 202 {object} dto.CloseSessionResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Failure 503 {object} apierror.APIError
// @Router /v1/sessions/{id}/close [post]
func (h *SessionsHandler) Close(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sessions.Close(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if resp.Outcome == dto.OutcomePendingConfirmation {
		status = http.StatusAccepted
	}
	c.JSON(status, resp)
}

// Cancel godoc
// @Summary Voids an OPEN session
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param body body dto.CancelSessionRequest true "Reason"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/sessions/{id}/cancel [post]
func (h *SessionsHandler) Cancel(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req dto.CancelSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sessions.Cancel(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordMovement godoc
// @Summary Records a sale, refund or manual cash movement on an OPEN session
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param body body dto.MovementRequest true "Movement"
// @Success 201 {object} dto.MovementResponse
// @Failure 409 {object} apierror.APIError "session not open"
// @Router /v1/sessions/{id}/movements [post]
func (h *SessionsHandler) RecordMovement(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req dto.MovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sessions.RecordMovement(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Report godoc
// @Summary Session report (JSON, or a printable slip with format=pdf)
// @Tags sessions
// @Produce json,application/pdf
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param format query string false "json | pdf"
// @Success 200 {object} dto.SessionReportResponse
// @Router /v1/sessions/{id}/report [get]
func (h *SessionsHandler) Report(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	rep, err := h.history.SessionReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if c.Query("format") != "pdf" {
		c.JSON(http.StatusOK, rep)
		return
	}
	pdf, err := infra.RenderSessionReportPDF(rep)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="session-%d.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// List godoc
// @Summary Recent sessions, newest first
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param register_code query string false "Register code"
// @Param operator_id query int false "Operator"
// @Param status query string false "OPEN | CLOSED | CANCELLED"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} dto.SessionListResponse
// @Router /v1/sessions [get]
func (h *SessionsHandler) List(c *gin.Context) {
	var f dto.SessionFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.history.ListRecent(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
