package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/domain/repository"
	"github.com/yaarfetch/fetch-gateway/internal/logger"
	"github.com/yaarfetch/fetch-gateway/internal/metrics"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
	"github.com/yaarfetch/fetch-gateway/internal/validation"
)

// SessionObserver узнаёт о завершении сессии (например, чтобы закрыть открытые чаты).
type SessionObserver interface {
	SessionClosed(sessionID uuid.UUID)
}

// AuthService создаёт и уничтожает сессии входа.
type AuthService struct {
	gateway   repository.AuthGateway
	sessions  repository.SessionStore
	tokens    *TokenManager
	observers []SessionObserver
	now       func() time.Time
}

// AuthResult - итог входа или регистрации.
type AuthResult struct {
	Session      *entity.Session
	SessionToken string
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(gateway repository.AuthGateway, sessions repository.SessionStore, tokens *TokenManager, observers ...SessionObserver) *AuthService {
	return &AuthService{
		gateway:   gateway,
		sessions:  sessions,
		tokens:    tokens,
		observers: observers,
		now:       time.Now,
	}
}

// Register регистрирует пользователя в удалённом API и открывает сессию.
func (s *AuthService) Register(ctx context.Context, in entity.Registration) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateRegistration(in); err != nil {
		return nil, err
	}

	res, err := s.gateway.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, res)
}

// Login проверяет учётные данные через удалённый API и открывает сессию.
func (s *AuthService) Login(ctx context.Context, in entity.Credentials) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateCredentials(in); err != nil {
		return nil, err
	}

	res, err := s.gateway.Login(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, res)
}

func (s *AuthService) open(ctx context.Context, res *entity.AuthResult) (*AuthResult, error) {
	if res == nil || res.AccessToken == "" || res.User.ID == "" {
		return nil, apperror.New(apperror.ErrCodeUnavailable, "удалённый API вернул пустой токен")
	}

	now := s.now()
	session := entity.NewSession(res.User, res.AccessToken, s.tokens.ExpiresAt(res.AccessToken, now))
	session.CreatedAt = now

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("auth service: не удалось сохранить сессию: %w", err)
	}

	token, err := s.tokens.Issue(session)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось выпустить токен: %w", err)
	}

	metrics.SessionsCreatedTotal.Inc()
	logger.L().WithFields(logrus.Fields{
		"session_id": session.ID,
		"user_id":    session.User.ID,
	}).Info("auth service: сессия открыта")

	return &AuthResult{Session: session, SessionToken: token}, nil
}

// Authenticate находит живую сессию по токену cookie.
func (s *AuthService) Authenticate(ctx context.Context, sessionToken string) (*entity.Session, error) {
	if sessionToken == "" {
		return nil, apperror.ErrUnauthorized
	}

	id, err := s.tokens.Parse(sessionToken)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "недействительный токен сессии")
	}

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(s.now()) {
		_ = s.sessions.Delete(ctx, id)
		return nil, apperror.ErrSessionNotFound
	}
	return session, nil
}

// Me сверяет сессию с удалённым API. Если API больше не принимает токен,
// сессия закрывается.
func (s *AuthService) Me(ctx context.Context, session *entity.Session) (*entity.User, error) {
	user, err := s.gateway.Me(ctx, session.AccessToken)
	if err != nil {
		if apperror.IsUnauthorized(err) {
			if logoutErr := s.Logout(ctx, session.ID); logoutErr != nil {
				logger.L().WithError(logoutErr).Warn("auth service: не удалось закрыть сессию")
			}
		}
		return nil, err
	}
	return user, nil
}

// Logout удаляет сессию и оповещает наблюдателей.
func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("auth service: не удалось удалить сессию: %w", err)
	}

	for _, o := range s.observers {
		o.SessionClosed(sessionID)
	}

	logger.L().WithField("session_id", sessionID).Info("auth service: сессия закрыта")
	return nil
}

// PurgeExpired удаляет истёкшие сессии; вызывается периодически из main.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}
