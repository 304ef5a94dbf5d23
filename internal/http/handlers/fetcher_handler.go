package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/domain/valueobject"
	"github.com/yaarfetch/fetch-gateway/internal/http/handlers/common"
	"github.com/yaarfetch/fetch-gateway/internal/usecase/fetcher"
)

// FetcherHandler - экран исполнителя: задачи, доступные заказы и свои объявления.
type FetcherHandler struct {
	controller *fetcher.Controller
}

func NewFetcherHandler(controller *fetcher.Controller) *FetcherHandler {
	return &FetcherHandler{controller: controller}
}

// Board GET /api/fetcher/board
func (h *FetcherHandler) Board(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	board, err := h.controller.Board(c.Request.Context(), session)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

// Accept POST /api/fetcher/orders/:id/accept
func (h *FetcherHandler) Accept(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	result, err := h.controller.Accept(c.Request.Context(), session, c.Param("id"))
	common.RespondResult(c, result, err)
}

// SetStatus POST /api/fetcher/orders/:id/status
func (h *FetcherHandler) SetStatus(c *gin.Context) {
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

// SubmitPayout POST /api/fetcher/orders/:id/payout
func (h *FetcherHandler) SubmitPayout(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req entity.PayoutDetails
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	result, err := h.controller.SubmitPayout(c.Request.Context(), session, c.Param("id"), req)
	common.RespondResult(c, result, err)
}

// CreateOffer POST /api/fetcher/offers
func (h *FetcherHandler) CreateOffer(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req entity.OfferInput
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	result, err := h.controller.CreateOffer(c.Request.Context(), session, req)
	common.RespondResult(c, result, err)
}

// UpdateOffer PATCH /api/fetcher/offers/:id
func (h *FetcherHandler) UpdateOffer(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req entity.OfferInput
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	result, err := h.controller.UpdateOffer(c.Request.Context(), session, c.Param("id"), req)
	common.RespondResult(c, result, err)
}

// DeleteOffer DELETE /api/fetcher/offers/:id
func (h *FetcherHandler) DeleteOffer(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	result, err := h.controller.DeleteOffer(c.Request.Context(), session, c.Param("id"))
	common.RespondResult(c, result, err)
}
