package common

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/http/middleware"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
)

// CurrentSession извлекает сессию, которую положил AuthMiddleware.
func CurrentSession(c *gin.Context) (*entity.Session, error) {
	raw, exists := c.Get(middleware.ContextSessionKey)
	if !exists {
		return nil, apperror.ErrUnauthorized
	}

	session, ok := raw.(*entity.Session)
	if !ok || session == nil {
		return nil, apperror.ErrUnauthorized
	}

	return session, nil
}

// BindJSON разбирает тело запроса; ошибка разбора - ошибка валидации.
func BindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, "некорректное тело запроса")
	}
	return nil
}

// RespondError отправляет ошибку с её HTTP статусом и оставляет её в c.Errors для логирования.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(apperror.StatusOf(err), gin.H{"error": apperror.PublicMessage(err)})
}

// RespondResult отправляет результат мутации. Если действие отклонено
// локально, тело содержит свежую доску и баннер, а статус берётся из ошибки.
func RespondResult[R any](c *gin.Context, result *R, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case result != nil:
		_ = c.Error(err)
		c.JSON(apperror.StatusOf(err), result)
	default:
		RespondError(c, err)
	}
}

// RespondUnauthorized отправляет 401.
func RespondUnauthorized(c *gin.Context) {
	RespondError(c, apperror.ErrUnauthorized)
}
