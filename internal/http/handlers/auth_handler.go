package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/http/handlers/common"
	"github.com/yaarfetch/fetch-gateway/internal/service"
)

// CookieConfig - параметры cookie сессии.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler предоставляет HTTP слой для входа, регистрации и выхода.
type AuthHandler struct {
	auth   *service.AuthService
	cookie CookieConfig
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth *service.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie}
}

type sessionResponse struct {
	User      entity.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Register обрабатывает POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req entity.Registration
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	h.setCookie(c, result)
	c.JSON(http.StatusCreated, newSessionResponse(result))
}

// Login обрабатывает POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req entity.Credentials
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	h.setCookie(c, result)
	c.JSON(http.StatusOK, newSessionResponse(result))
}

// Logout обрабатывает POST /api/auth/logout: сессия удаляется,
// открытые панели чата закрываются.
func (h *AuthHandler) Logout(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), session.ID); err != nil {
		common.RespondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.Status(http.StatusNoContent)
}

// Me обрабатывает GET /api/me. Сессия сверяется с удалённым API.
func (h *AuthHandler) Me(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	user, err := h.auth.Me(c.Request.Context(), session)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) setCookie(c *gin.Context, result *service.AuthResult) {
	maxAge := int(time.Until(result.Session.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, result.SessionToken, maxAge, "/", "", h.cookie.Secure, true)
}

func newSessionResponse(result *service.AuthResult) sessionResponse {
	return sessionResponse{
		User:      result.Session.User,
		Token:     result.SessionToken,
		ExpiresAt: result.Session.ExpiresAt,
	}
}
