package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
)

// SessionStore хранит сессии входа. Get возвращает apperror.ErrSessionNotFound
// для отсутствующей или истёкшей сессии.
type SessionStore interface {
	Save(ctx context.Context, session *entity.Session) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
