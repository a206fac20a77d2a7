package handler

import (
	"net/http"

	"cashdesk/internal/dto"
	"cashdesk/internal/service"

	"github.com/gin-gonic/gin"
)

type DenominationHandler struct{ svc service.DenominationService }

func NewDenominationHandler(svc service.DenominationService) *DenominationHandler {
	return &DenominationHandler{svc: svc}
}

// List godoc
// @Summary Active denominations of a currency
// @Tags denominations
// @Produce json
// @Security BearerAuth
// @Param currency query string false "ISO 4217 code, defaults to the configured currency"
// @Success 200 {array} dto.DenominationResponse
// @Router /v1/denominations [get]
func (h *DenominationHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), c.Query("currency"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Breakdown godoc
// @Summary Suggest how to make up an amount, largest denomination first
// @Tags denominations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.BreakdownRequest true "Amount"
// @Success 200 {object} dto.BreakdownResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/denominations/breakdown [post]
func (h *DenominationHandler) Breakdown(c *gin.Context) {
	var req dto.BreakdownRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Suggest(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
