package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session - сессия входа: текущий пользователь и bearer токен удалённого API.
// Создаётся при логине, удаляется при выходе; передаётся контроллерам явно.
type Session struct {
	ID          uuid.UUID
	User        User
	AccessToken string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

func NewSession(user User, accessToken string, expiresAt time.Time) *Session {
	return &Session{
		ID:          uuid.New(),
		User:        user,
		AccessToken: accessToken,
		CreatedAt:   time.Now(),
		ExpiresAt:   expiresAt,
	}
}

func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
