package handler

import (
	"net/http"

	"cashdesk/internal/dto"
	"cashdesk/internal/middleware"
	"cashdesk/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct{ ledger service.RegisterLedger }

func NewSessionHandler(ledger service.RegisterLedger) *SessionHandler {
	return &SessionHandler{ledger: ledger}
}

// Open godoc
// @Summary Open a cash session for the authenticated operator
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenSessionRequest true "Opening count"
// @Success 201 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/sessions/open [post]
func (h *SessionHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.Open(c.Request.Context(), middleware.OperatorID(c), middleware.StoreID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Blind-count close of the operator's open session
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body dto.CloseSessionRequest true "Closing count"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/sessions/{id}/close [post]
func (h *SessionHandler) Close(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.Close(c.Request.Context(), id, middleware.OperatorID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History godoc
// @Summary Session history for one operator or one register, newest first
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param operator_id query string false "Operator ID"
// @Param register_id query string false "Register ID"
// @Param limit query int false "Max results"
// @Success 200 {array} dto.SessionResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/sessions/history [get]
func (h *SessionHandler) History(c *gin.Context) {
	var filter dto.SessionHistoryFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.ledger.History(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Active godoc
// @Summary The authenticated operator's open session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sessions/active [get]
func (h *SessionHandler) Active(c *gin.Context) {
	resp, err := h.ledger.Active(c.Request.Context(), middleware.OperatorID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.ledger.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Transactions godoc
// @Summary A session's ledger in creation order
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {array} dto.TransactionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sessions/{id}/transactions [get]
func (h *SessionHandler) Transactions(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.ledger.Transactions(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
