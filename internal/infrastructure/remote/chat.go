package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
)

func chatPath(orderID string) string {
	return "/chat/" + url.PathEscape(orderID) + "/messages"
}

func (c *Client) ListMessages(ctx context.Context, token, orderID string) ([]entity.ChatMessage, error) {
	var messages []entity.ChatMessage
	if err := c.do(ctx, request{op: "list_messages", method: http.MethodGet, path: chatPath(orderID), token: token}, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) SendMessage(ctx context.Context, token, orderID, content string) (*entity.ChatMessage, error) {
	body := struct {
		Content string `json:"content"`
	}{Content: content}

	var message entity.ChatMessage
	if err := c.do(ctx, request{op: "send_message", method: http.MethodPost, path: chatPath(orderID), token: token, body: body}, &message); err != nil {
		return nil, err
	}
	return &message, nil
}
