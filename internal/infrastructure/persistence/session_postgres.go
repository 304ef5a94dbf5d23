package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/domain/repository"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
)

// TokenSealer шифрует bearer токен перед записью в базу.
type TokenSealer interface {
	Seal(plaintext string) (string, error)
	Open(ciphertext string) (string, error)
}

// PostgresSessionStore хранит сессии в таблице gateway_sessions.
type PostgresSessionStore struct {
	db     *sqlx.DB
	sealer TokenSealer
}

var _ repository.SessionStore = (*PostgresSessionStore)(nil)

func NewPostgresSessionStore(db *sqlx.DB, sealer TokenSealer) *PostgresSessionStore {
	return &PostgresSessionStore{db: db, sealer: sealer}
}

type sessionRow struct {
	ID             uuid.UUID `db:"id"`
	UserID         string    `db:"user_id"`
	UserName       string    `db:"user_name"`
	UserEmail      string    `db:"user_email"`
	AccessTokenEnc string    `db:"access_token_enc"`
	CreatedAt      time.Time `db:"created_at"`
	ExpiresAt      time.Time `db:"expires_at"`
}

func (s *PostgresSessionStore) Save(ctx context.Context, session *entity.Session) error {
	sealed, err := s.sealer.Seal(session.AccessToken)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось зашифровать токен")
	}

	query := `
		INSERT INTO gateway_sessions (id, user_id, user_name, user_email, access_token_enc, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			access_token_enc = EXCLUDED.access_token_enc,
			expires_at = EXCLUDED.expires_at
	`
	_, err = s.db.ExecContext(ctx, query,
		session.ID,
		session.User.ID,
		session.User.Name,
		session.User.Email,
		sealed,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить сессию")
	}
	return nil
}

func (s *PostgresSessionStore) Get(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	var row sessionRow
	query := `SELECT id, user_id, user_name, user_email, access_token_enc, created_at, expires_at
		FROM gateway_sessions WHERE id = $1 AND expires_at > NOW()`

	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrSessionNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить сессию")
	}

	token, err := s.sealer.Open(row.AccessTokenEnc)
	if err != nil {
		// Секрет сменился: старые сессии больше не расшифровать.
		return nil, apperror.ErrSessionNotFound
	}

	return &entity.Session{
		ID:          row.ID,
		User:        entity.User{ID: row.UserID, Name: row.UserName, Email: row.UserEmail},
		AccessToken: token,
		CreatedAt:   row.CreatedAt,
		ExpiresAt:   row.ExpiresAt,
	}, nil
}

func (s *PostgresSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM gateway_sessions WHERE id = $1`, id); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось удалить сессию")
	}
	return nil
}

func (s *PostgresSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM gateway_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось удалить истёкшие сессии")
	}
	return res.RowsAffected()
}
