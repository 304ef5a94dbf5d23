package valueobject

import "github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusDelivered OrderStatus = "delivered"
)

// OrderStatuses - все статусы в порядке продвижения заказа.
var OrderStatuses = []OrderStatus{
	OrderStatusOpen,
	OrderStatusAccepted,
	OrderStatusPickedUp,
	OrderStatusDelivered,
}

var statusLabels = map[OrderStatus]string{
	OrderStatusOpen:      "Open",
	OrderStatusAccepted:  "Accepted",
	OrderStatusPickedUp:  "Picked up",
	OrderStatusDelivered: "Delivered",
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusOpen, OrderStatusAccepted, OrderStatusPickedUp, OrderStatusDelivered:
		return true
	}
	return false
}

// Rank - позиция статуса в цепочке; -1 для неизвестного.
func (s OrderStatus) Rank() int {
	for i, st := range OrderStatuses {
		if st == s {
			return i
		}
	}
	return -1
}

// Before сообщает, что s стоит раньше other в цепочке.
func (s OrderStatus) Before(other OrderStatus) bool {
	return s.IsValid() && other.IsValid() && s.Rank() < other.Rank()
}

// CanTransitionTo - только движение вперёд; delivered терминальный.
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	return s.Before(newStatus)
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered
}

func (s OrderStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func NewOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус заказа")
	}
	return s, nil
}

// PayoutStatus - состояние заявки исполнителя на выплату.
type PayoutStatus string

const PayoutStatusPending PayoutStatus = "PENDING"

type Role string

const (
	RoleRequester Role = "requester"
	RoleFetcher   Role = "fetcher"
)

func (r Role) IsValid() bool {
	return r == RoleRequester || r == RoleFetcher
}

func NewRole(role string) (Role, error) {
	r := Role(role)
	if !r.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "роль должна быть requester или fetcher")
	}
	return r, nil
}
