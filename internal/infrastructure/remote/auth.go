package remote

import (
	"context"
	"net/http"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
)

func (c *Client) Register(ctx context.Context, reg entity.Registration) (*entity.AuthResult, error) {
	var result entity.AuthResult
	err := c.do(ctx, request{op: "register", method: http.MethodPost, path: "/auth/register", body: reg}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Login(ctx context.Context, creds entity.Credentials) (*entity.AuthResult, error) {
	var result entity.AuthResult
	err := c.do(ctx, request{op: "login", method: http.MethodPost, path: "/auth/login", body: creds}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Me проверяет токен и возвращает его владельца.
func (c *Client) Me(ctx context.Context, token string) (*entity.User, error) {
	var user entity.User
	err := c.do(ctx, request{op: "me", method: http.MethodGet, path: "/auth/me", token: token}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
