// Package requester - контроллер экрана заказчика: загрузка доски и
// действия над своими заказами. После каждой мутации доска перечитывается.
package requester

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

const role = string(valueobject.RoleRequester)

// Gateway - часть удалённого API, нужная заказчику.
type Gateway interface {
	repository.OrderGateway
	ListOffers(ctx context.Context, token string) ([]entity.Offer, error)
}

// Result - ответ на мутацию: свежая доска и баннер.
type Result struct {
	Board  *lifecycle.RequesterBoard `json:"board"`
	Notice *notice.Notice            `json:"notice"`
}

type Controller struct {
	gateway Gateway
	notices *notice.Builder
}

func NewController(gateway Gateway, notices *notice.Builder) *Controller {
	return &Controller{gateway: gateway, notices: notices}
}

// Board загружает заказы и строит доску заказчика. statusFilter пустой - все статусы.
func (c *Controller) Board(ctx context.Context, session *entity.Session, statusFilter string) (*lifecycle.RequesterBoard, error) {
	filter, err := parseFilter(statusFilter)
	if err != nil {
		return nil, err
	}

	orders, err := c.gateway.ListOrders(ctx, session.AccessToken, filter)
	if err != nil {
		return nil, err
	}
	board := lifecycle.BuildRequesterBoard(orders, session.User)
	return &board, nil
}

// Offers - все объявления исполнителей, из них заказчик выбирает адресата.
func (c *Controller) Offers(ctx context.Context, session *entity.Session) ([]entity.Offer, error) {
	return c.gateway.ListOffers(ctx, session.AccessToken)
}

// CreateOrder публикует заявку. Для адресной заявки target_fetcher_id
// берётся из выбранного объявления.
func (c *Controller) CreateOrder(ctx context.Context, session *entity.Session, input entity.CreateOrderInput) (*Result, error) {
	input.Item = strings.TrimSpace(input.Item)
	input.DropoffLocation = strings.TrimSpace(input.DropoffLocation)
	if err := validation.ValidateOrderInput(input); err != nil {
		return nil, err
	}

	if input.TargetOfferID != nil && *input.TargetOfferID != "" {
		offer, err := c.findOffer(ctx, session, *input.TargetOfferID)
		if err != nil {
			return nil, err
		}
		fetcherID := offer.FetcherID
		input.TargetFetcherID = &fetcherID
	} else {
		input.TargetOfferID, input.TargetFetcherID = nil, nil
	}

	_, err := c.gateway.CreateOrder(ctx, session.AccessToken, input)
	return c.finish(ctx, session, "create_order", err, "Request posted", "Unable to create order")
}

func (c *Controller) findOffer(ctx context.Context, session *entity.Session, offerID string) (*entity.Offer, error) {
	offers, err := c.gateway.ListOffers(ctx, session.AccessToken)
	if err != nil {
		return nil, err
	}
	for i := range offers {
		if offers[i].ID == offerID {
			return &offers[i], nil
		}
	}
	return nil, apperror.New(apperror.ErrCodeValidation, "объявление не найдено")
}

// SetStatus - кнопка статуса на карточке. Работает только "Delivery Received".
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

// ConfirmDelivery переводит заказ в delivered от имени заказчика.
func (c *Controller) ConfirmDelivery(ctx context.Context, session *entity.Session, orderID string) (*Result, error) {
	if res, err := c.authorize(ctx, session, orderID, lifecycle.ActionDeliveryReceived, valueobject.OrderStatusDelivered); err != nil {
		return res, err
	}

	_, err := c.gateway.PatchOrderStatus(ctx, session.AccessToken, orderID, valueobject.OrderStatusDelivered)
	return c.finish(ctx, session, "delivery_received", err, "Delivery confirmed", "Unable to update status")
}

// SubmitPayment отправляет номер транзакции эскроу-оплаты.
func (c *Controller) SubmitPayment(ctx context.Context, session *entity.Session, orderID, txnID string) (*Result, error) {
	txnID = strings.TrimSpace(txnID)
	if err := validation.ValidateTxnID(txnID); err != nil {
		return nil, err
	}
	if res, err := c.authorize(ctx, session, orderID, lifecycle.ActionSubmitPayment, ""); err != nil {
		return res, err
	}

	_, err := c.gateway.SubmitPayment(ctx, session.AccessToken, orderID, txnID)
	return c.finish(ctx, session, "submit_payment", err, "Payment submitted", "Unable to submit payment")
}

// authorize сверяет действие с карточкой заказа на свежей доске.
// При отказе возвращает доску с баннером и ошибку.
func (c *Controller) authorize(ctx context.Context, session *entity.Session, orderID string, action lifecycle.Action, target valueobject.OrderStatus) (*Result, error) {
	orders, err := c.gateway.ListOrders(ctx, session.AccessToken, "")
	if err != nil {
		return nil, err
	}

	board := lifecycle.BuildRequesterBoard(orders, session.User)
	card, ok := board.Find(orderID)
	if !ok {
		metrics.RejectedActionsTotal.WithLabelValues(role, string(action)).Inc()
		logger.L().WithFields(logrus.Fields{
			"order_id": orderID,
			"user_id":  session.User.ID,
			"action":   action,
		}).Info("requester: заказ не найден на доске")
		return &Result{Board: &board, Notice: c.notices.Error("This order is no longer available")}, apperror.New(apperror.ErrCodeNotFound, "заказ не найден")
	}

	if err := lifecycle.AuthorizeRequester(card.Order, session.User, action, target); err != nil {
		metrics.RejectedActionsTotal.WithLabelValues(role, string(action)).Inc()
		logger.L().WithFields(logrus.Fields{
			"order_id": orderID,
			"user_id":  session.User.ID,
			"action":   action,
			"status":   card.Order.Status,
		}).Info("requester: действие недоступно")
		return &Result{Board: &board, Notice: c.notices.Error("This action is not available for the order")}, err
	}
	return nil, nil
}

// finish перечитывает доску после мутации. Отказ удалённого API - это
// баннер с detail сервера, а не ошибка запроса.
func (c *Controller) finish(ctx context.Context, session *entity.Session, action string, mutateErr error, success, fallback string) (*Result, error) {
	var n *notice.Notice
	if mutateErr != nil {
		metrics.OrderActionsTotal.WithLabelValues(role, action, outcome(mutateErr)).Inc()
		logger.L().WithFields(logrus.Fields{
			"user_id": session.User.ID,
			"action":  action,
		}).WithError(mutateErr).Warn("requester: удалённый API отклонил действие")
		n = c.notices.FromError(mutateErr, fallback)
	} else {
		metrics.OrderActionsTotal.WithLabelValues(role, action, metrics.OutcomeOK).Inc()
		n = c.notices.Success(success)
	}

	board, err := c.Board(ctx, session, "")
	if err != nil {
		logger.L().WithError(err).Warn("requester: не удалось обновить доску")
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

func parseFilter(raw string) (valueobject.OrderStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	return valueobject.NewOrderStatus(raw)
}
