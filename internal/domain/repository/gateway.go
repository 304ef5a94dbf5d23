package repository

import (
	"context"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/domain/valueobject"
)

// Все вызовы удалённого API принимают bearer токен текущей сессии.
// Ошибки - *apperror.AppError с detail сервера, если он был.

type AuthGateway interface {
	Register(ctx context.Context, reg entity.Registration) (*entity.AuthResult, error)
	Login(ctx context.Context, creds entity.Credentials) (*entity.AuthResult, error)
	Me(ctx context.Context, token string) (*entity.User, error)
}

type OrderGateway interface {
	// statusFilter == "" означает все статусы.
	ListOrders(ctx context.Context, token string, statusFilter valueobject.OrderStatus) ([]entity.Order, error)
	CreateOrder(ctx context.Context, token string, input entity.CreateOrderInput) (*entity.Order, error)
	AcceptOrder(ctx context.Context, token, orderID string) (*entity.Order, error)
	PatchOrderStatus(ctx context.Context, token, orderID string, status valueobject.OrderStatus) (*entity.Order, error)
	SubmitPayment(ctx context.Context, token, orderID, txnID string) (*entity.Order, error)
	SubmitPayout(ctx context.Context, token, orderID string, details entity.PayoutDetails) (*entity.Order, error)
}

type OfferGateway interface {
	ListOffers(ctx context.Context, token string) ([]entity.Offer, error)
	CreateOffer(ctx context.Context, token string, input entity.OfferInput) (*entity.Offer, error)
	UpdateOffer(ctx context.Context, token, offerID string, input entity.OfferInput) (*entity.Offer, error)
	DeleteOffer(ctx context.Context, token, offerID string) error
}

type ChatGateway interface {
	ListMessages(ctx context.Context, token, orderID string) ([]entity.ChatMessage, error)
	SendMessage(ctx context.Context, token, orderID, content string) (*entity.ChatMessage, error)
}

// MarketplaceGateway - весь удалённый API маркетплейса.
type MarketplaceGateway interface {
	AuthGateway
	OrderGateway
	OfferGateway
	ChatGateway
}
