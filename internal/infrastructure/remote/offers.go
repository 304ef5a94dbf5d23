package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
)

func (c *Client) ListOffers(ctx context.Context, token string) ([]entity.Offer, error) {
	var offers []entity.Offer
	if err := c.do(ctx, request{op: "list_offers", method: http.MethodGet, path: "/offers", token: token}, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (c *Client) CreateOffer(ctx context.Context, token string, input entity.OfferInput) (*entity.Offer, error) {
	var offer entity.Offer
	if err := c.do(ctx, request{op: "create_offer", method: http.MethodPost, path: "/offers", token: token, body: input}, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

func (c *Client) UpdateOffer(ctx context.Context, token, offerID string, input entity.OfferInput) (*entity.Offer, error) {
	var offer entity.Offer
	r := request{op: "update_offer", method: http.MethodPatch, path: "/offers/" + url.PathEscape(offerID), token: token, body: input}
	if err := c.do(ctx, r, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

func (c *Client) DeleteOffer(ctx context.Context, token, offerID string) error {
	return c.do(ctx, request{op: "delete_offer", method: http.MethodDelete, path: "/offers/" + url.PathEscape(offerID), token: token}, nil)
}
