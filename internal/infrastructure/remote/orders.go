package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/domain/valueobject"
)

func (c *Client) ListOrders(ctx context.Context, token string, statusFilter valueobject.OrderStatus) ([]entity.Order, error) {
	r := request{op: "list_orders", method: http.MethodGet, path: "/orders", token: token}
	if statusFilter != "" {
		r.query = url.Values{"status_filter": {string(statusFilter)}}
	}

	var orders []entity.Order
	if err := c.do(ctx, r, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) CreateOrder(ctx context.Context, token string, input entity.CreateOrderInput) (*entity.Order, error) {
	return c.orderCall(ctx, request{op: "create_order", method: http.MethodPost, path: "/orders", token: token, body: input})
}

func (c *Client) AcceptOrder(ctx context.Context, token, orderID string) (*entity.Order, error) {
	return c.orderCall(ctx, request{op: "accept_order", method: http.MethodPost, path: orderPath(orderID, "/accept"), token: token})
}

func (c *Client) PatchOrderStatus(ctx context.Context, token, orderID string, status valueobject.OrderStatus) (*entity.Order, error) {
	body := struct {
		Status valueobject.OrderStatus `json:"status"`
	}{Status: status}
	return c.orderCall(ctx, request{op: "patch_status", method: http.MethodPatch, path: orderPath(orderID, "/status"), token: token, body: body})
}

func (c *Client) SubmitPayment(ctx context.Context, token, orderID, txnID string) (*entity.Order, error) {
	body := struct {
		TxnID string `json:"txn_id"`
	}{TxnID: txnID}
	return c.orderCall(ctx, request{op: "submit_payment", method: http.MethodPut, path: orderPath(orderID, "/payment"), token: token, body: body})
}

func (c *Client) SubmitPayout(ctx context.Context, token, orderID string, details entity.PayoutDetails) (*entity.Order, error) {
	return c.orderCall(ctx, request{op: "submit_payout", method: http.MethodPut, path: orderPath(orderID, "/payout-details"), token: token, body: details})
}

// orderCall - мутация, которая отвечает обновлённым заказом.
func (c *Client) orderCall(ctx context.Context, r request) (*entity.Order, error) {
	var order entity.Order
	if err := c.do(ctx, r, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
