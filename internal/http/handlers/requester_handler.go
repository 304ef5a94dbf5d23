package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/domain/valueobject"
	"github.com/yaarfetch/fetch-gateway/internal/http/handlers/common"
	"github.com/yaarfetch/fetch-gateway/internal/usecase/requester"
)

// RequesterHandler - экран заказчика.
type RequesterHandler struct {
	controller *requester.Controller
}

func NewRequesterHandler(controller *requester.Controller) *RequesterHandler {
	return &RequesterHandler{controller: controller}
}

// Board GET /api/requester/board?status_filter=
func (h *RequesterHandler) Board(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	board, err := h.controller.Board(c.Request.Context(), session, c.Query("status_filter"))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

// Offers GET /api/offers
func (h *RequesterHandler) Offers(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	offers, err := h.controller.Offers(c.Request.Context(), session)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if offers == nil {
		offers = []entity.Offer{}
	}

	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// CreateOrder POST /api/requester/orders
func (h *RequesterHandler) CreateOrder(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req entity.CreateOrderInput
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	result, err := h.controller.CreateOrder(c.Request.Context(), session, req)
	common.RespondResult(c, result, err)
}

// SetStatus POST /api/requester/orders/:id/status
func (h *RequesterHandler) SetStatus(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req struct {
		Status valueobject.OrderStatus `json:"status" binding:"required"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	result, err := h.controller.SetStatus(c.Request.Context(), session, c.Param("id"), req.Status)
	common.RespondResult(c, result, err)
}

// ConfirmDelivery POST /api/requester/orders/:id/delivery-received
func (h *RequesterHandler) ConfirmDelivery(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	result, err := h.controller.ConfirmDelivery(c.Request.Context(), session, c.Param("id"))
	common.RespondResult(c, result, err)
}

// SubmitPayment POST /api/requester/orders/:id/payment
func (h *RequesterHandler) SubmitPayment(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req struct {
		TxnID string `json:"txn_id"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	result, err := h.controller.SubmitPayment(c.Request.Context(), session, c.Param("id"), req.TxnID)
	common.RespondResult(c, result, err)
}
