package entity

import (
	"github.com/yaarfetch/fetch-gateway/internal/domain/valueobject"
)

// Order - заявка на доставку в том виде, в каком её отдаёт удалённый API.
// Указатели - необязательные поля, которые сервер может не прислать.
type Order struct {
	ID               string                    `json:"id"`
	Item             string                    `json:"item"`
	DropoffLocation  string                    `json:"dropoff_location"`
	Instructions     *string                   `json:"instructions,omitempty"`
	Status           valueobject.OrderStatus   `json:"status"`
	RequesterID      string                    `json:"requester_id"`
	FetcherID        *string                   `json:"fetcher_id,omitempty"`
	TargetOfferID    *string                   `json:"target_offer_id,omitempty"`
	TargetFetcherID  *string                   `json:"target_fetcher_id,omitempty"`
	RequesterName    *string                   `json:"requester_name,omitempty"`
	RequesterContact *string                   `json:"requester_contact,omitempty"`
	FetcherName      *string                   `json:"fetcher_name,omitempty"`
	FetcherContact   *string                   `json:"fetcher_contact,omitempty"`
	PaymentSent      *bool                     `json:"payment_sent,omitempty"`
	TxnID            *string                   `json:"txn_id,omitempty"`
	PayoutStatus     *valueobject.PayoutStatus `json:"payout_status,omitempty"`
	CreatedAt        *Timestamp                `json:"created_at,omitempty"`
}

// IsWellFormed проверяет обязательные поля; неполный заказ считается недоступным для действий.
func (o *Order) IsWellFormed() bool {
	return o != nil && o.ID != "" && o.RequesterID != "" && o.Status.IsValid()
}

func (o *Order) IsRequestedBy(userID string) bool {
	return userID != "" && o.RequesterID == userID
}

func (o *Order) IsAssignedTo(userID string) bool {
	return userID != "" && o.FetcherID != nil && *o.FetcherID == userID
}

func (o *Order) HasFetcher() bool {
	return o.FetcherID != nil && *o.FetcherID != ""
}

func (o *Order) IsTargeted() bool {
	return o.TargetOfferID != nil && *o.TargetOfferID != ""
}

func (o *Order) IsPaymentSent() bool {
	return o.PaymentSent != nil && *o.PaymentSent
}

func (o *Order) IsPayoutClaimed() bool {
	return o.PayoutStatus != nil && *o.PayoutStatus != ""
}

// CreateOrderInput - поля новой заявки.
type CreateOrderInput struct {
	Item            string  `json:"item"`
	DropoffLocation string  `json:"dropoff_location"`
	Instructions    *string `json:"instructions,omitempty"`
	TargetOfferID   *string `json:"target_offer_id,omitempty"`
	TargetFetcherID *string `json:"target_fetcher_id,omitempty"`
}

// PayoutDetails - реквизиты исполнителя для выплаты.
type PayoutDetails struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountTitle  string `json:"account_title"`
}
