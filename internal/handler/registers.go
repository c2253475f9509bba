package handler

import (
	"net/http"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/dto"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type RegistersHandler struct {
	registers service.RegisterService
	history   service.HistoryService
}

func NewRegistersHandler(registers service.RegisterService, history service.HistoryService) *RegistersHandler {
	return &RegistersHandler{registers: registers, history: history}
}

// Create godoc
// @Summary Creates a register
// @Tags registers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateRegisterRequest true "Register"
// @Success 201 {object} dto.RegisterResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/registers [post]
func (h *RegistersHandler) Create(c *gin.Context) {
	var req dto.CreateRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.registers.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary Lists registers
// @Tags registers
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only active registers"
// @Success 200 {array} dto.RegisterResponse
// @Router /v1/registers [get]
func (h *RegistersHandler) List(c *gin.Context) {
	resp, err := h.registers.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RegistersHandler) Get(c *gin.Context) {
	resp, err := h.registers.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RegistersHandler) Update(c *gin.Context) {
	var req dto.UpdateRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.registers.Update(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate godoc
// @Summary Deactivates a register; an OPEN session on it is left alone
// @Tags registers
// @Security BearerAuth
// @Param code path string true "Register code"
// @Success 204
// @Router /v1/registers/{code} [delete]
func (h *RegistersHandler) Deactivate(c *gin.Context) {
	if err := h.registers.Deactivate(c.Request.Context(), c.Param("code")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RegistersHandler) Reactivate(c *gin.Context) {
	if err := h.registers.Reactivate(c.Request.Context(), c.Param("code")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Overview godoc
// @Summary Every register with its OPEN session and last CLOSED session
// @Tags registers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.RegisterOverviewItem
// @Router /v1/registers/overview [get]
func (h *RegistersHandler) Overview(c *gin.Context) {
	resp, err := h.history.RegisterOverview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
