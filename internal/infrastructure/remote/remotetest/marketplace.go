// Package remotetest - in-memory маркетплейс для тестов контроллеров и хендлеров.
// Повторяет правила удалённого API: accept только для open, статус меняют
// только участники, чат только для участников.
package remotetest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/domain/repository"
	"github.com/yaarfetch/fetch-gateway/internal/domain/valueobject"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
)

type Marketplace struct {
	mu       sync.Mutex
	seq      int
	users    map[string]entity.User // token -> user
	orders   []entity.Order
	offers   []entity.Offer
	messages map[string][]entity.ChatMessage
	failures map[string]error
	calls    []string
	now      func() time.Time

	// BeforeAccept вызывается внутри AcceptOrder до проверки статуса:
	// тест может подменить состояние, имитируя конкурентный accept.
	BeforeAccept func(m *Marketplace, orderID string)

	// ListLimit > 0 включает поведение сервера: ListOrders отдаёт не больше
	// ListLimit заказов, новые (добавленные позже) первыми.
	ListLimit int
}

var _ repository.MarketplaceGateway = (*Marketplace)(nil)

func New() *Marketplace {
	return &Marketplace{
		users:    make(map[string]entity.User),
		messages: make(map[string][]entity.ChatMessage),
		failures: make(map[string]error),
		now:      time.Now,
	}
}

// AddUser регистрирует пользователя и возвращает его bearer токен.
func (m *Marketplace) AddUser(user entity.User) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := "token-" + user.ID
	m.users[token] = user
	return token
}

func (m *Marketplace) AddOrder(o entity.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, o)
}

func (m *Marketplace) AddOffer(o entity.Offer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offers = append(m.offers, o)
}

func (m *Marketplace) AddMessage(orderID string, msg entity.ChatMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[orderID] = append(m.messages[orderID], msg)
}

// Fail заставляет следующий вызов op вернуть err.
func (m *Marketplace) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

// Calls - имена выполненных операций по порядку.
func (m *Marketplace) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Order возвращает копию заказа; вызывать без удержания блокировки.
func (m *Marketplace) Order(id string) (entity.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.orderIndex(id); i >= 0 {
		return m.orders[i], true
	}
	return entity.Order{}, false
}

// SetOrder заменяет заказ без блокировки: вызывать только из BeforeAccept.
func (m *Marketplace) SetOrder(o entity.Order) {
	if i := m.orderIndex(o.ID); i >= 0 {
		m.orders[i] = o
	}
}

func (m *Marketplace) begin(op, token string) (entity.User, error) {
	m.calls = append(m.calls, op)
	if err, ok := m.failures[op]; ok {
		delete(m.failures, op)
		return entity.User{}, err
	}
	if token == "" {
		return entity.User{}, nil
	}
	user, ok := m.users[token]
	if !ok {
		return entity.User{}, apperror.FromStatus(http.StatusUnauthorized, "Could not validate credentials")
	}
	return user, nil
}

func (m *Marketplace) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func (m *Marketplace) orderIndex(id string) int {
	for i := range m.orders {
		if m.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Marketplace) Register(_ context.Context, reg entity.Registration) (*entity.AuthResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.begin("register", ""); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Email == reg.Email {
			return nil, apperror.FromStatus(http.StatusBadRequest, "Email already registered")
		}
	}
	user := entity.User{ID: m.nextID("u"), Name: reg.Name, Email: reg.Email}
	token := "token-" + user.ID
	m.users[token] = user
	return &entity.AuthResult{AccessToken: token, TokenType: "bearer", User: user}, nil
}

func (m *Marketplace) Login(_ context.Context, creds entity.Credentials) (*entity.AuthResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.begin("login", ""); err != nil {
		return nil, err
	}
	for token, u := range m.users {
		if u.Email == creds.Email {
			return &entity.AuthResult{AccessToken: token, TokenType: "bearer", User: u}, nil
		}
	}
	return nil, apperror.FromStatus(http.StatusUnauthorized, "Invalid credentials")
}

func (m *Marketplace) Me(_ context.Context, token string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.begin("me", token)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (m *Marketplace) ListOrders(_ context.Context, token string, statusFilter valueobject.OrderStatus) ([]entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.begin("list_orders", token); err != nil {
		return nil, err
	}
	out := make([]entity.Order, 0, len(m.orders))
	if m.ListLimit > 0 {
		for i := len(m.orders) - 1; i >= 0 && len(out) < m.ListLimit; i-- {
			if statusFilter == "" || m.orders[i].Status == statusFilter {
				out = append(out, m.orders[i])
			}
		}
		return out, nil
	}
	for _, o := range m.orders {
		if statusFilter == "" || o.Status == statusFilter {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *Marketplace) CreateOrder(_ context.Context, token string, input entity.CreateOrderInput) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.begin("create_order", token)
	if err != nil {
		return nil, err
	}
	name := user.Name
	created := entity.NewTimestamp(m.now())
	o := entity.Order{
		ID:              m.nextID("o"),
		Item:            input.Item,
		DropoffLocation: input.DropoffLocation,
		Instructions:    input.Instructions,
		Status:          valueobject.OrderStatusOpen,
		RequesterID:     user.ID,
		RequesterName:   &name,
		TargetOfferID:   input.TargetOfferID,
		TargetFetcherID: input.TargetFetcherID,
		CreatedAt:       &created,
	}
	m.orders = append(m.orders, o)
	return &o, nil
}

func (m *Marketplace) AcceptOrder(_ context.Context, token, orderID string) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.begin("accept_order", token)
	if err != nil {
		return nil, err
	}
	if m.BeforeAccept != nil {
		m.BeforeAccept(m, orderID)
	}

	i := m.orderIndex(orderID)
	if i < 0 || m.orders[i].Status != valueobject.OrderStatusOpen {
		return nil, apperror.FromStatus(http.StatusBadRequest, "Order not available for acceptance")
	}
	fetcherID, name := user.ID, user.Name
	m.orders[i].Status = valueobject.OrderStatusAccepted
	m.orders[i].FetcherID = &fetcherID
	m.orders[i].FetcherName = &name
	o := m.orders[i]
	return &o, nil
}

func (m *Marketplace) participant(i int, userID string) bool {
	return m.orders[i].IsRequestedBy(userID) || m.orders[i].IsAssignedTo(userID)
}

func (m *Marketplace) PatchOrderStatus(_ context.Context, token, orderID string, status valueobject.OrderStatus) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.begin("patch_status", token)
	if err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, apperror.FromStatus(http.StatusBadRequest, "Invalid status value")
	}
	i := m.orderIndex(orderID)
	if i < 0 {
		return nil, apperror.FromStatus(http.StatusNotFound, "Order not found")
	}
	if !m.participant(i, user.ID) {
		return nil, apperror.FromStatus(http.StatusForbidden, "Not allowed to update this order")
	}
	m.orders[i].Status = status
	o := m.orders[i]
	return &o, nil
}

func (m *Marketplace) SubmitPayment(_ context.Context, token, orderID, txnID string) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.begin("submit_payment", token)
	if err != nil {
		return nil, err
	}
	i := m.orderIndex(orderID)
	if i < 0 {
		return nil, apperror.FromStatus(http.StatusNotFound, "Order not found")
	}
	if !m.orders[i].IsRequestedBy(user.ID) {
		return nil, apperror.FromStatus(http.StatusForbidden, "Only the requester can submit payment")
	}
	sent, txn := true, txnID
	m.orders[i].PaymentSent = &sent
	m.orders[i].TxnID = &txn
	o := m.orders[i]
	return &o, nil
}

func (m *Marketplace) SubmitPayout(_ context.Context, token, orderID string, _ entity.PayoutDetails) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.begin("submit_payout", token)
	if err != nil {
		return nil, err
	}
	i := m.orderIndex(orderID)
	if i < 0 {
		return nil, apperror.FromStatus(http.StatusNotFound, "Order not found")
	}
	if !m.orders[i].IsAssignedTo(user.ID) {
		return nil, apperror.FromStatus(http.StatusForbidden, "Only the fetcher can submit payout details")
	}
	pending := valueobject.PayoutStatusPending
	m.orders[i].PayoutStatus = &pending
	o := m.orders[i]
	return &o, nil
}

func (m *Marketplace) ListOffers(_ context.Context, token string) ([]entity.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.begin("list_offers", token); err != nil {
		return nil, err
	}
	return append([]entity.Offer{}, m.offers...), nil
}

func (m *Marketplace) CreateOffer(_ context.Context, token string, input entity.OfferInput) (*entity.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.begin("create_offer", token)
	if err != nil {
		return nil, err
	}
	offer := applyOffer(entity.Offer{ID: m.nextID("off"), FetcherID: user.ID}, input)
	m.offers = append(m.offers, offer)
	return &offer, nil
}

func (m *Marketplace) UpdateOffer(_ context.Context, token, offerID string, input entity.OfferInput) (*entity.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.begin("update_offer", token)
	if err != nil {
		return nil, err
	}
	for i := range m.offers {
		if m.offers[i].ID != offerID {
			continue
		}
		if m.offers[i].FetcherID != user.ID {
			return nil, apperror.FromStatus(http.StatusForbidden, "Not your offer")
		}
		m.offers[i] = applyOffer(m.offers[i], input)
		offer := m.offers[i]
		return &offer, nil
	}
	return nil, apperror.FromStatus(http.StatusNotFound, "Offer not found")
}

func (m *Marketplace) DeleteOffer(_ context.Context, token, offerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.begin("delete_offer", token)
	if err != nil {
		return err
	}
	for i := range m.offers {
		if m.offers[i].ID != offerID {
			continue
		}
		if m.offers[i].FetcherID != user.ID {
			return apperror.FromStatus(http.StatusForbidden, "Not your offer")
		}
		m.offers = append(m.offers[:i], m.offers[i+1:]...)
		return nil
	}
	return apperror.FromStatus(http.StatusNotFound, "Offer not found")
}

func applyOffer(o entity.Offer, in entity.OfferInput) entity.Offer {
	o.CurrentLocation = in.CurrentLocation
	o.Destination = in.Destination
	o.ArrivalTime = in.ArrivalTime
	o.PickupCapability = in.PickupCapability
	o.ContactNumber = in.ContactNumber
	o.EstimatedDeliveryTime = in.EstimatedDeliveryTime
	o.DeliveryCharge = in.DeliveryCharge
	o.Notes = in.Notes
	return o
}

func (m *Marketplace) ListMessages(_ context.Context, token, orderID string) ([]entity.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.begin("list_messages", token)
	if err != nil {
		return nil, err
	}
	if err := m.chatAllowed(orderID, user.ID); err != nil {
		return nil, err
	}
	return append([]entity.ChatMessage{}, m.messages[orderID]...), nil
}

func (m *Marketplace) SendMessage(_ context.Context, token, orderID, content string) (*entity.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.begin("send_message", token)
	if err != nil {
		return nil, err
	}
	if err := m.chatAllowed(orderID, user.ID); err != nil {
		return nil, err
	}
	name := user.Name
	msg := entity.ChatMessage{
		ID:         m.nextID("m"),
		SenderID:   user.ID,
		SenderName: &name,
		Content:    content,
		CreatedAt:  entity.NewTimestamp(m.now()),
	}
	m.messages[orderID] = append(m.messages[orderID], msg)
	return &msg, nil
}

func (m *Marketplace) chatAllowed(orderID, userID string) error {
	i := m.orderIndex(orderID)
	if i < 0 {
		return apperror.FromStatus(http.StatusNotFound, "Order not found")
	}
	if !m.participant(i, userID) {
		return apperror.FromStatus(http.StatusForbidden, "Not a participant in this order")
	}
	return nil
}
