package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
)

// Context ключи для gin.Context.
const (
	ContextSessionKey = "session"
)

// SessionAuthenticator восстанавливает сессию по токену cookie.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, sessionToken string) (*entity.Session, error)
}

// AuthMiddleware находит сессию по заголовку Authorization или cookie.
func AuthMiddleware(auth SessionAuthenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := sessionToken(c, cookieName)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}

		session, err := auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(apperror.StatusOf(err), gin.H{"error": apperror.PublicMessage(err)})
			return
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

func sessionToken(c *gin.Context, cookieName string) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}
