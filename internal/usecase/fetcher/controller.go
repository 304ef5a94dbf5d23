// Package fetcher - контроллер экрана исполнителя: задачи, адресные и
// открытые заказы, собственные объявления.
package fetcher

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/domain/lifecycle"
	"github.com/yaarfetch/fetch-gateway/internal/domain/repository"
	"github.com/yaarfetch/fetch-gateway/internal/domain/valueobject"
	"github.com/yaarfetch/fetch-gateway/internal/logger"
	"github.com/yaarfetch/fetch-gateway/internal/metrics"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/notice"
	"github.com/yaarfetch/fetch-gateway/internal/validation"
)

const role = string(valueobject.RoleFetcher)

type Gateway interface {
	repository.OrderGateway
	repository.OfferGateway
}

type Result struct {
	Board  *lifecycle.FetcherBoard `json:"board"`
	Notice *notice.Notice          `json:"notice"`
}

type Controller struct {
	gateway Gateway
	notices *notice.Builder
}

func NewController(gateway Gateway, notices *notice.Builder) *Controller {
	return &Controller{gateway: gateway, notices: notices}
}

// snapshot - заказы и объявления, загруженные для одной доски.
type snapshot struct {
	orders []entity.Order
	offers []entity.Offer
}

// load читает заказы двумя запросами: сервер отдаёт ограниченное число
// свежих заказов, и старый открытый заказ может не попасть в общий список.
// Повторы одного id сливает движок.
func (c *Controller) load(ctx context.Context, session *entity.Session) (*snapshot, error) {
	all, err := c.gateway.ListOrders(ctx, session.AccessToken, "")
	if err != nil {
		return nil, err
	}
	open, err := c.gateway.ListOrders(ctx, session.AccessToken, valueobject.OrderStatusOpen)
	if err != nil {
		return nil, err
	}
	orders := append(all, open...)
	offers, err := c.gateway.ListOffers(ctx, session.AccessToken)
	if err != nil {
		return nil, err
	}
	return &snapshot{orders: orders, offers: offers}, nil
}

// Board загружает заказы и объявления и строит доску исполнителя.
func (c *Controller) Board(ctx context.Context, session *entity.Session) (*lifecycle.FetcherBoard, error) {
	snap, err := c.load(ctx, session)
	if err != nil {
		return nil, err
	}
	board := lifecycle.BuildFetcherBoard(snap.orders, snap.offers, session.User)
	return &board, nil
}

// Accept берёт заказ. Гонку двух исполнителей решает сервер: проигравший
// получает баннер с ошибкой и доску, где заказа уже нет среди открытых.
func (c *Controller) Accept(ctx context.Context, session *entity.Session, orderID string) (*Result, error) {
	if res, err := c.authorize(ctx, session, orderID, lifecycle.ActionAccept, ""); err != nil {
		return res, err
	}

	_, err := c.gateway.AcceptOrder(ctx, session.AccessToken, orderID)
	return c.finish(ctx, session, "accept", err, "Order accepted", "Unable to accept order")
}

// SetStatus продвигает свою задачу вперёд: picked_up, затем delivered.
func (c *Controller) SetStatus(ctx context.Context, session *entity.Session, orderID string, status valueobject.OrderStatus) (*Result, error) {
	if !status.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус заказа")
	}
	if res, err := c.authorize(ctx, session, orderID, lifecycle.ActionSetStatus, status); err != nil {
		return res, err
	}

	_, err := c.gateway.PatchOrderStatus(ctx, session.AccessToken, orderID, status)
	return c.finish(ctx, session, "set_status", err, "Status updated", "Unable to update status")
}

// SubmitPayout отправляет реквизиты; после этого задача уходит с доски.
func (c *Controller) SubmitPayout(ctx context.Context, session *entity.Session, orderID string, details entity.PayoutDetails) (*Result, error) {
	details.BankName = strings.TrimSpace(details.BankName)
	details.AccountNumber = strings.TrimSpace(details.AccountNumber)
	details.AccountTitle = strings.TrimSpace(details.AccountTitle)
	if err := validation.ValidatePayoutDetails(details); err != nil {
		return nil, err
	}
	if res, err := c.authorize(ctx, session, orderID, lifecycle.ActionSubmitPayout, ""); err != nil {
		return res, err
	}

	_, err := c.gateway.SubmitPayout(ctx, session.AccessToken, orderID, details)
	return c.finish(ctx, session, "submit_payout", err, "Payout details submitted", "Unable to submit payout details")
}

func (c *Controller) CreateOffer(ctx context.Context, session *entity.Session, input entity.OfferInput) (*Result, error) {
	input = trimOffer(input)
	if err := validation.ValidateOfferInput(input); err != nil {
		return nil, err
	}

	_, err := c.gateway.CreateOffer(ctx, session.AccessToken, input)
	return c.finish(ctx, session, "create_offer", err, "Offer posted successfully!", "Failed to post offer")
}

// UpdateOffer редактирует только собственное объявление.
func (c *Controller) UpdateOffer(ctx context.Context, session *entity.Session, offerID string, input entity.OfferInput) (*Result, error) {
	input = trimOffer(input)
	if err := validation.ValidateOfferInput(input); err != nil {
		return nil, err
	}
	if err := c.ensureOwnOffer(ctx, session, offerID); err != nil {
		return nil, err
	}

	_, err := c.gateway.UpdateOffer(ctx, session.AccessToken, offerID, input)
	return c.finish(ctx, session, "update_offer", err, "Offer updated", "Failed to update offer")
}

func (c *Controller) DeleteOffer(ctx context.Context, session *entity.Session, offerID string) (*Result, error) {
	if err := c.ensureOwnOffer(ctx, session, offerID); err != nil {
		return nil, err
	}

	err := c.gateway.DeleteOffer(ctx, session.AccessToken, offerID)
	return c.finish(ctx, session, "delete_offer", err, "Offer removed", "Failed to delete offer")
}

func (c *Controller) ensureOwnOffer(ctx context.Context, session *entity.Session, offerID string) error {
	offers, err := c.gateway.ListOffers(ctx, session.AccessToken)
	if err != nil {
		return err
	}
	for i := range offers {
		if offers[i].ID != offerID {
			continue
		}
		if !offers[i].IsOwnedBy(session.User.ID) {
			return apperror.ErrForbidden
		}
		return nil
	}
	return apperror.New(apperror.ErrCodeNotFound, "объявление не найдено")
}

func (c *Controller) authorize(ctx context.Context, session *entity.Session, orderID string, action lifecycle.Action, target valueobject.OrderStatus) (*Result, error) {
	snap, err := c.load(ctx, session)
	if err != nil {
		return nil, err
	}

	board := lifecycle.BuildFetcherBoard(snap.orders, snap.offers, session.User)
	card, ok := board.Find(orderID)
	if !ok {
		metrics.RejectedActionsTotal.WithLabelValues(role, string(action)).Inc()
		return &Result{Board: &board, Notice: c.notices.Error("This order is no longer available")}, apperror.New(apperror.ErrCodeNotFound, "заказ не найден")
	}

	if err := lifecycle.AuthorizeFetcher(card.Order, session.User, snap.offers, action, target); err != nil {
		metrics.RejectedActionsTotal.WithLabelValues(role, string(action)).Inc()
		logger.L().WithFields(logrus.Fields{
			"order_id": orderID,
			"user_id":  session.User.ID,
			"action":   action,
			"category": card.Category,
		}).Info("fetcher: действие недоступно")
		return &Result{Board: &board, Notice: c.notices.Error("This action is not available for the order")}, err
	}
	return nil, nil
}

func (c *Controller) finish(ctx context.Context, session *entity.Session, action string, mutateErr error, success, fallback string) (*Result, error) {
	var n *notice.Notice
	if mutateErr != nil {
		metrics.OrderActionsTotal.WithLabelValues(role, action, outcome(mutateErr)).Inc()
		logger.L().WithFields(logrus.Fields{
			"user_id": session.User.ID,
			"action":  action,
		}).WithError(mutateErr).Warn("fetcher: удалённый API отклонил действие")
		n = c.notices.FromError(mutateErr, fallback)
	} else {
		metrics.OrderActionsTotal.WithLabelValues(role, action, metrics.OutcomeOK).Inc()
		n = c.notices.Success(success)
	}

	board, err := c.Board(ctx, session)
	if err != nil {
		logger.L().WithError(err).Warn("fetcher: не удалось обновить доску")
		if mutateErr == nil {
			n = c.notices.Info(success + ", but the board could not be refreshed")
		}
		return &Result{Notice: n}, nil
	}
	return &Result{Board: board, Notice: n}, nil
}

func outcome(err error) string {
	if apperror.IsUnavailable(err) {
		return metrics.OutcomeFailed
	}
	return metrics.OutcomeRejected
}

func trimOffer(in entity.OfferInput) entity.OfferInput {
	in.CurrentLocation = strings.TrimSpace(in.CurrentLocation)
	in.Destination = strings.TrimSpace(in.Destination)
	in.ArrivalTime = strings.TrimSpace(in.ArrivalTime)
	in.PickupCapability = strings.TrimSpace(in.PickupCapability)
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	in.EstimatedDeliveryTime = strings.TrimSpace(in.EstimatedDeliveryTime)
	return in
}
