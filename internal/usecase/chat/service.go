// Package chat - чат заказа поверх опроса удалённого API.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/domain/repository"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
	"github.com/yaarfetch/fetch-gateway/internal/validation"
)

// DefaultPollPeriod - интервал опроса открытой панели чата.
const DefaultPollPeriod = 3 * time.Second

type Service struct {
	gateway repository.ChatGateway
	period  time.Duration
}

func NewService(gateway repository.ChatGateway, period time.Duration) *Service {
	if period <= 0 {
		period = DefaultPollPeriod
	}
	return &Service{gateway: gateway, period: period}
}

// List возвращает сообщения заказа по возрастанию времени.
func (s *Service) List(ctx context.Context, session *entity.Session, orderID string) ([]entity.ChatMessage, error) {
	messages, err := s.gateway.ListMessages(ctx, session.AccessToken, orderID)
	if err != nil {
		return nil, err
	}
	entity.SortMessages(messages)
	return messages, nil
}

func (s *Service) Send(ctx context.Context, session *entity.Session, orderID, content string) (*entity.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if err := validation.ValidateMessage(content); err != nil {
		return nil, err
	}
	return s.gateway.SendMessage(ctx, session.AccessToken, orderID, content)
}

// NewChannel создаёт ещё не смонтированную панель чата.
func (s *Service) NewChannel() *Channel {
	return &Channel{service: s}
}

var errNotMounted = apperror.New(apperror.ErrCodeConflict, "панель чата не открыта")
