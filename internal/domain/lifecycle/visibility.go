// Package lifecycle - правила жизненного цикла заказа: кто что видит и какие
// действия доступны. Все функции чистые: работают только с уже загруженными данными.
package lifecycle

import (
	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/domain/valueobject"
)

// Category - в какой раздел доски попадает заказ.
type Category string

const (
	CategoryMine       Category = "mine"
	CategoryMyTask     Category = "my_task"
	CategoryTargeted   Category = "targeted"
	CategoryPublicOpen Category = "public_open"
)

type ClassifiedOrder struct {
	Order    entity.Order `json:"order"`
	Category Category     `json:"category"`
}

// VisibleOrdersFor отбирает заказы, которые роль видит на своей доске.
// Неполные заказы (без id, заказчика или с неизвестным статусом) отбрасываются.
func VisibleOrdersFor(role valueobject.Role, all []entity.Order, user entity.User, myOffers []entity.Offer) []ClassifiedOrder {
	if user.ID == "" {
		return nil
	}

	orders := dedupe(all)

	switch role {
	case valueobject.RoleRequester:
		return requesterOrders(orders, user)
	case valueobject.RoleFetcher:
		return fetcherOrders(orders, user, myOffers)
	default:
		return nil
	}
}

func requesterOrders(orders []entity.Order, user entity.User) []ClassifiedOrder {
	visible := make([]ClassifiedOrder, 0, len(orders))
	for _, o := range orders {
		if o.IsRequestedBy(user.ID) {
			visible = append(visible, ClassifiedOrder{Order: o, Category: CategoryMine})
		}
	}
	return visible
}

func fetcherOrders(orders []entity.Order, user entity.User, myOffers []entity.Offer) []ClassifiedOrder {
	offerIDs := ownedOfferIDs(myOffers, user.ID)

	visible := make([]ClassifiedOrder, 0, len(orders))
	for _, o := range orders {
		mine := o.IsAssignedTo(user.ID)
		openForMe := o.Status == valueobject.OrderStatusOpen && !o.IsRequestedBy(user.ID)
		if !mine && !openForMe {
			continue
		}

		// Выполненная задача уходит с доски только после заявки на выплату.
		if mine && o.Status == valueobject.OrderStatusDelivered && o.IsPayoutClaimed() {
			continue
		}

		visible = append(visible, ClassifiedOrder{Order: o, Category: classify(o, user, offerIDs)})
	}
	return visible
}

func classify(o entity.Order, user entity.User, offerIDs map[string]struct{}) Category {
	if o.IsAssignedTo(user.ID) {
		return CategoryMyTask
	}
	if o.IsTargeted() {
		if _, ok := offerIDs[*o.TargetOfferID]; ok {
			return CategoryTargeted
		}
	}
	return CategoryPublicOpen
}

// dedupe убирает повторы по id. Статус монотонен, поэтому из двух копий
// остаётся более продвинутая; позиция - по первому вхождению.
func dedupe(all []entity.Order) []entity.Order {
	index := make(map[string]int, len(all))
	result := make([]entity.Order, 0, len(all))

	for _, o := range all {
		if !o.IsWellFormed() {
			continue
		}
		if i, seen := index[o.ID]; seen {
			if result[i].Status.Before(o.Status) {
				result[i] = o
			}
			continue
		}
		index[o.ID] = len(result)
		result = append(result, o)
	}
	return result
}

func ownedOfferIDs(offers []entity.Offer, userID string) map[string]struct{} {
	ids := make(map[string]struct{}, len(offers))
	for _, offer := range offers {
		if offer.IsOwnedBy(userID) && offer.ID != "" {
			ids[offer.ID] = struct{}{}
		}
	}
	return ids
}
