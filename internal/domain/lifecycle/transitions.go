package lifecycle

import (
	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/domain/valueobject"
)

// StatusOption - кнопка статуса на карточке заказа.
type StatusOption struct {
	Status  valueobject.OrderStatus `json:"status"`
	Label   string                  `json:"label"`
	Enabled bool                    `json:"enabled"`
}

const deliveryReceivedLabel = "Delivery Received"

var fetcherStatuses = []valueobject.OrderStatus{
	valueobject.OrderStatusPickedUp,
	valueobject.OrderStatusDelivered,
}

// CanAccept: заказ открыт, принимает не заказчик, а адресный заказ —
// только владелец указанного объявления.
func CanAccept(order entity.Order, user entity.User, offers []entity.Offer) bool {
	if !order.IsWellFormed() || user.ID == "" {
		return false
	}
	if order.Status != valueobject.OrderStatusOpen || order.IsRequestedBy(user.ID) {
		return false
	}
	if !order.IsTargeted() {
		return true
	}

	for _, offer := range offers {
		if offer.ID == *order.TargetOfferID {
			return offer.IsOwnedBy(user.ID)
		}
	}
	return false
}

// LegalNextStatuses возвращает статусы, в которые роль реально может перевести заказ.
// Текущий и предыдущие статусы сюда никогда не попадают.
func LegalNextStatuses(current valueobject.OrderStatus, role valueobject.Role) []valueobject.OrderStatus {
	var next []valueobject.OrderStatus
	for _, opt := range StatusOptions(current, role) {
		if opt.Enabled {
			next = append(next, opt.Status)
		}
	}
	return next
}

// StatusOptions - полный набор кнопок статуса для роли, включая неактивные.
//
// У заказчика показываются все статусы кроме текущего, но работает только
// "Delivery Received" (в delivered) пока заказ accepted или picked_up.
// У исполнителя - picked_up и delivered, каждая гаснет, когда уже пройдена.
func StatusOptions(current valueobject.OrderStatus, role valueobject.Role) []StatusOption {
	if !current.IsValid() {
		return nil
	}

	switch role {
	case valueobject.RoleRequester:
		options := make([]StatusOption, 0, len(valueobject.OrderStatuses)-1)
		for _, s := range valueobject.OrderStatuses {
			if s == current {
				continue
			}
			opt := StatusOption{Status: s, Label: s.Label()}
			if s == valueobject.OrderStatusDelivered {
				opt.Label = deliveryReceivedLabel
				opt.Enabled = canConfirmDelivery(current)
			}
			options = append(options, opt)
		}
		return options

	case valueobject.RoleFetcher:
		if current == valueobject.OrderStatusOpen {
			return nil
		}
		options := make([]StatusOption, 0, len(fetcherStatuses))
		for _, s := range fetcherStatuses {
			options = append(options, StatusOption{
				Status:  s,
				Label:   s.Label(),
				Enabled: current.CanTransitionTo(s),
			})
		}
		return options
	}
	return nil
}

func canConfirmDelivery(current valueobject.OrderStatus) bool {
	return current == valueobject.OrderStatusAccepted || current == valueobject.OrderStatusPickedUp
}
