package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yaarfetch/fetch-gateway/internal/logger"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
)

// ErrorHandler логирует ошибки запроса и отвечает за хэндлер, если тот
// ещё ничего не записал. Внутренние ошибки маскируются, detail удалённого
// API отдаётся как есть.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := apperror.StatusOf(err)

		entry := logger.L().WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": status,
		})
		if status >= 500 {
			entry.Error("http: ошибка запроса")
		} else {
			entry.Debug("http: запрос отклонён")
		}

		if c.Writer.Written() {
			return
		}

		c.JSON(status, gin.H{"error": apperror.PublicMessage(err)})
	}
}
