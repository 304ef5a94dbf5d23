package lifecycle

import (
	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/domain/valueobject"
)

// Gate - доступно ли действие и почему нет.
type Gate struct {
	Open   bool   `json:"open"`
	Reason string `json:"reason,omitempty"`
}

func gateOpen() Gate {
	return Gate{Open: true}
}

func gateClosed(reason string) Gate {
	return Gate{Reason: reason}
}

// PaymentGate: заказчик отправляет номер транзакции, пока заказ accepted.
// Оплата только помечает заказ (payment_sent, txn_id) и не блокирует подтверждение доставки.
func PaymentGate(order entity.Order) Gate {
	switch {
	case !order.IsWellFormed():
		return gateClosed("order is incomplete")
	case order.Status != valueobject.OrderStatusAccepted:
		return gateClosed("payment is accepted only while the order is accepted")
	case order.IsPaymentSent():
		return gateClosed("payment already submitted")
	}
	return gateOpen()
}

// PayoutGate: исполнитель своей задачи заявляет выплату один раз после доставки.
func PayoutGate(order entity.Order, user entity.User) Gate {
	switch {
	case !order.IsWellFormed():
		return gateClosed("order is incomplete")
	case !order.IsAssignedTo(user.ID):
		return gateClosed("only the assigned fetcher can claim the payout")
	case order.Status != valueobject.OrderStatusDelivered:
		return gateClosed("payout can be claimed after delivery")
	case order.IsPayoutClaimed():
		return gateClosed("payout already claimed")
	}
	return gateOpen()
}
