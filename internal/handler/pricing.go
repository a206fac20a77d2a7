package handler

import (
	"net/http"

	"cashdesk/internal/dto"
	"cashdesk/internal/service"

	"github.com/gin-gonic/gin"
)

type PricingHandler struct{ svc service.PricingService }

func NewPricingHandler(svc service.PricingService) *PricingHandler {
	return &PricingHandler{svc: svc}
}

// Totals godoc
// @Summary Price a cart: subtotal, proportional discount, tax, grand total
// @Description Stateless. Lines carry a product_id or an explicit base_price.
// @Tags pricing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.TotalsRequest true "Cart"
// @Success 200 {object} dto.TotalsResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/pricing/totals [post]
func (h *PricingHandler) Totals(c *gin.Context) {
	var req dto.TotalsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CalculateTotals(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
