package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yaarfetch/fetch-gateway/internal/config"
	"github.com/yaarfetch/fetch-gateway/internal/http/handlers"
	"github.com/yaarfetch/fetch-gateway/internal/http/middleware"
)

// Handlers - все HTTP хэндлеры шлюза.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Requester *handlers.RequesterHandler
	Fetcher   *handlers.FetcherHandler
	Chat      *handlers.ChatHandler
	Health    *handlers.HealthHandler
}

func SetupRouter(cfg *config.Config, h Handlers, auth middleware.SessionAuthenticator) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
	}

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(auth, cfg.CookieName))
	{
		protected.POST("/auth/logout", h.Auth.Logout)
		protected.GET("/me", h.Auth.Me)
		protected.GET("/offers", h.Requester.Offers)

		requester := protected.Group("/requester")
		{
			requester.GET("/board", h.Requester.Board)
			requester.POST("/orders", h.Requester.CreateOrder)
			requester.POST("/orders/:id/status", middleware.IDValidator("id"), h.Requester.SetStatus)
			requester.POST("/orders/:id/delivery-received", middleware.IDValidator("id"), h.Requester.ConfirmDelivery)
			requester.POST("/orders/:id/payment", middleware.IDValidator("id"), h.Requester.SubmitPayment)
		}

		fetcher := protected.Group("/fetcher")
		{
			fetcher.GET("/board", h.Fetcher.Board)
			fetcher.POST("/orders/:id/accept", middleware.IDValidator("id"), h.Fetcher.Accept)
			fetcher.POST("/orders/:id/status", middleware.IDValidator("id"), h.Fetcher.SetStatus)
			fetcher.POST("/orders/:id/payout", middleware.IDValidator("id"), h.Fetcher.SubmitPayout)
			fetcher.POST("/offers", h.Fetcher.CreateOffer)
			fetcher.PATCH("/offers/:id", middleware.IDValidator("id"), h.Fetcher.UpdateOffer)
			fetcher.DELETE("/offers/:id", middleware.IDValidator("id"), h.Fetcher.DeleteOffer)
		}

		chatGroup := protected.Group("/chat/:orderId")
		chatGroup.Use(middleware.IDValidator("orderId"))
		{
			chatGroup.GET("/messages", h.Chat.List)
			chatGroup.POST("/messages", h.Chat.Send)
			chatGroup.GET("/ws", h.Chat.Panel)
		}
	}

	return r
}
