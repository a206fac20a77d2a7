package handler

import (
	"net/http"

	"cashdesk/internal/dto"
	"cashdesk/internal/middleware"
	"cashdesk/internal/service"

	"github.com/gin-gonic/gin"
)

type TransactionHandler struct{ recorder service.TransactionRecorder }

func NewTransactionHandler(recorder service.TransactionRecorder) *TransactionHandler {
	return &TransactionHandler{recorder: recorder}
}

// Record godoc
// @Summary Record a sale, refund, withdrawal or deposit
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RecordTransactionRequest true "Ledger entry"
// @Success 201 {object} dto.TransactionResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError "session is closed"
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/transactions [post]
func (h *TransactionHandler) Record(c *gin.Context) {
	var req dto.RecordTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.recorder.Record(c.Request.Context(), middleware.OperatorID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
