package lifecycle

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/domain/valueobject"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
)

// Action - действие, которое карточка заказа предлагает пользователю.
type Action string

const (
	ActionAccept           Action = "accept"
	ActionSetStatus        Action = "set_status"
	ActionDeliveryReceived Action = "delivery_received"
	ActionSubmitPayment    Action = "submit_payment"
	ActionSubmitPayout     Action = "submit_payout"
	ActionChat             Action = "chat"
)

// OrderCard - заказ вместе с вычисленным набором действий.
type OrderCard struct {
	Order            entity.Order   `json:"order"`
	Category         Category       `json:"category"`
	RequesterInitial string         `json:"requester_initial"`
	FetcherInitial   string         `json:"fetcher_initial,omitempty"`
	StatusOptions    []StatusOption `json:"status_options,omitempty"`
	Actions          []Action       `json:"actions"`
	Payment          *Gate          `json:"payment,omitempty"`
	Payout           *Gate          `json:"payout,omitempty"`
}

func (c OrderCard) Allows(action Action) bool {
	for _, a := range c.Actions {
		if a == action {
			return true
		}
	}
	return false
}

type RequesterBoard struct {
	User   entity.User `json:"user"`
	Orders []OrderCard `json:"orders"`
}

func (b RequesterBoard) Find(orderID string) (OrderCard, bool) {
	return findCard(b.Orders, orderID)
}

type FetcherBoard struct {
	User       entity.User    `json:"user"`
	MyTasks    []OrderCard    `json:"my_tasks"`
	Targeted   []OrderCard    `json:"targeted"`
	PublicOpen []OrderCard    `json:"public_open"`
	MyOffers   []entity.Offer `json:"my_offers"`
}

func (b FetcherBoard) Find(orderID string) (OrderCard, bool) {
	for _, section := range [][]OrderCard{b.MyTasks, b.Targeted, b.PublicOpen} {
		if card, ok := findCard(section, orderID); ok {
			return card, true
		}
	}
	return OrderCard{}, false
}

// Count - число карточек на доске исполнителя.
func (b FetcherBoard) Count() int {
	return len(b.MyTasks) + len(b.Targeted) + len(b.PublicOpen)
}

func findCard(cards []OrderCard, orderID string) (OrderCard, bool) {
	for _, card := range cards {
		if card.Order.ID == orderID {
			return card, true
		}
	}
	return OrderCard{}, false
}

// BuildRequesterBoard собирает доску заказчика.
func BuildRequesterBoard(orders []entity.Order, user entity.User) RequesterBoard {
	visible := VisibleOrdersFor(valueobject.RoleRequester, orders, user, nil)

	board := RequesterBoard{User: user, Orders: make([]OrderCard, 0, len(visible))}
	for _, co := range visible {
		board.Orders = append(board.Orders, requesterCard(co, user))
	}
	return board
}

// BuildFetcherBoard собирает доску исполнителя; offers - все загруженные объявления.
func BuildFetcherBoard(orders []entity.Order, offers []entity.Offer, user entity.User) FetcherBoard {
	myOffers := entity.OffersOwnedBy(offers, user.ID)
	visible := VisibleOrdersFor(valueobject.RoleFetcher, orders, user, myOffers)

	board := FetcherBoard{
		User:       user,
		MyTasks:    []OrderCard{},
		Targeted:   []OrderCard{},
		PublicOpen: []OrderCard{},
		MyOffers:   myOffers,
	}
	for _, co := range visible {
		card := fetcherCard(co, user, myOffers)
		switch co.Category {
		case CategoryMyTask:
			board.MyTasks = append(board.MyTasks, card)
		case CategoryTargeted:
			board.Targeted = append(board.Targeted, card)
		default:
			board.PublicOpen = append(board.PublicOpen, card)
		}
	}
	return board
}

func requesterCard(co ClassifiedOrder, user entity.User) OrderCard {
	o := co.Order
	card := baseCard(co)
	card.StatusOptions = StatusOptions(o.Status, valueobject.RoleRequester)

	if canConfirmDelivery(o.Status) {
		card.Actions = append(card.Actions, ActionDeliveryReceived, ActionSetStatus)
	}

	payment := PaymentGate(o)
	card.Payment = &payment
	if payment.Open {
		card.Actions = append(card.Actions, ActionSubmitPayment)
	}

	if canChat(o, user) {
		card.Actions = append(card.Actions, ActionChat)
	}
	return card
}

func fetcherCard(co ClassifiedOrder, user entity.User, myOffers []entity.Offer) OrderCard {
	o := co.Order
	card := baseCard(co)

	if co.Category != CategoryMyTask {
		if CanAccept(o, user, myOffers) {
			card.Actions = append(card.Actions, ActionAccept)
		}
		return card
	}

	card.StatusOptions = StatusOptions(o.Status, valueobject.RoleFetcher)
	if len(LegalNextStatuses(o.Status, valueobject.RoleFetcher)) > 0 {
		card.Actions = append(card.Actions, ActionSetStatus)
	}

	payout := PayoutGate(o, user)
	card.Payout = &payout
	if payout.Open {
		card.Actions = append(card.Actions, ActionSubmitPayout)
	}

	if canChat(o, user) {
		card.Actions = append(card.Actions, ActionChat)
	}
	return card
}

func baseCard(co ClassifiedOrder) OrderCard {
	return OrderCard{
		Order:            co.Order,
		Category:         co.Category,
		RequesterInitial: Initial(co.Order.RequesterName),
		FetcherInitial:   fetcherInitial(co.Order),
		Actions:          []Action{},
	}
}

func fetcherInitial(o entity.Order) string {
	if !o.HasFetcher() {
		return ""
	}
	return Initial(o.FetcherName)
}

// Чат доступен участникам заказа, когда у него есть исполнитель.
func canChat(o entity.Order, user entity.User) bool {
	return o.HasFetcher() && (o.IsRequestedBy(user.ID) || o.IsAssignedTo(user.ID))
}

// Initial - первая буква имени для аватара; "?" если имени нет.
func Initial(name *string) string {
	if name == nil {
		return "?"
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(trimmed)
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

// AuthorizeRequester проверяет, что действие есть на карточке заказчика.
// target учитывается только для ActionSetStatus и ActionDeliveryReceived.
func AuthorizeRequester(order entity.Order, user entity.User, action Action, target valueobject.OrderStatus) error {
	visible := VisibleOrdersFor(valueobject.RoleRequester, []entity.Order{order}, user, nil)
	if len(visible) == 0 {
		return apperror.ErrForbidden
	}

	card := requesterCard(visible[0], user)
	if !card.Allows(action) {
		return apperror.ErrActionNotOffered
	}
	if action == ActionSetStatus && !containsStatus(LegalNextStatuses(order.Status, valueobject.RoleRequester), target) {
		return apperror.ErrActionNotOffered
	}
	return nil
}

// AuthorizeFetcher проверяет, что действие есть на карточке исполнителя.
// Это правило отображения: окончательное решение принимает сервер.
func AuthorizeFetcher(order entity.Order, user entity.User, offers []entity.Offer, action Action, target valueobject.OrderStatus) error {
	myOffers := entity.OffersOwnedBy(offers, user.ID)
	visible := VisibleOrdersFor(valueobject.RoleFetcher, []entity.Order{order}, user, myOffers)
	if len(visible) == 0 {
		return apperror.ErrForbidden
	}

	card := fetcherCard(visible[0], user, myOffers)
	if !card.Allows(action) {
		return apperror.ErrActionNotOffered
	}
	if action == ActionSetStatus && !containsStatus(LegalNextStatuses(order.Status, valueobject.RoleFetcher), target) {
		return apperror.ErrActionNotOffered
	}
	return nil
}

func containsStatus(list []valueobject.OrderStatus, s valueobject.OrderStatus) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
