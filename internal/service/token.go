package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
)

// TokenManager выпускает и проверяет JWT сессионной cookie.
// В токене только id сессии: bearer удалённого API остаётся на сервере.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL - максимальное время жизни сессии.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue подписывает токен сессии; срок действия совпадает со сроком сессии.
func (m *TokenManager) Issue(session *entity.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   session.ID.String(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse проверяет подпись и срок и возвращает id сессии.
func (m *TokenManager) Parse(token string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	return uuid.Parse(claims.Subject)
}

// ExpiresAt считает срок новой сессии: не дольше ttl и не дольше
// срока bearer токена удалённого API, если его удаётся прочитать.
func (m *TokenManager) ExpiresAt(upstreamToken string, now time.Time) time.Time {
	expiresAt := now.Add(m.ttl)
	if upstream, ok := UpstreamExpiry(upstreamToken); ok && upstream.Before(expiresAt) {
		return upstream
	}
	return expiresAt
}

// UpstreamExpiry читает exp из bearer токена удалённого API без проверки
// подписи: ключа у шлюза нет, токен проверяет сам API.
func UpstreamExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
