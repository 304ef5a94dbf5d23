package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxIDLength = 64

// IDValidator проверяет, что параметр пути - идентификатор удалённого API:
// непустой, не длиннее 64 символов, из букв, цифр, '-' и '_'.
// Использование: router.POST("/orders/:id/accept", IDValidator("id"), handler.Accept)
func IDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param(paramName)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "параметр " + paramName + " обязателен",
			})
			return
		}

		if !validID(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "параметр " + paramName + " содержит недопустимые символы",
			})
			return
		}

		c.Next()
	}
}

func validID(id string) bool {
	if len(id) > maxIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
