package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yaarfetch/fetch-gateway/internal/config"
	"github.com/yaarfetch/fetch-gateway/internal/db"
	"github.com/yaarfetch/fetch-gateway/internal/domain/repository"
	"github.com/yaarfetch/fetch-gateway/internal/goroutine"
	httpHandlers "github.com/yaarfetch/fetch-gateway/internal/http/handlers"
	httpRouter "github.com/yaarfetch/fetch-gateway/internal/http/router"
	"github.com/yaarfetch/fetch-gateway/internal/infrastructure/persistence"
	"github.com/yaarfetch/fetch-gateway/internal/infrastructure/remote"
	"github.com/yaarfetch/fetch-gateway/internal/logger"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/notice"
	"github.com/yaarfetch/fetch-gateway/internal/service"
	"github.com/yaarfetch/fetch-gateway/internal/usecase/chat"
	"github.com/yaarfetch/fetch-gateway/internal/usecase/fetcher"
	"github.com/yaarfetch/fetch-gateway/internal/usecase/requester"
	"github.com/yaarfetch/fetch-gateway/internal/ws"
)

const sessionPurgePeriod = 10 * time.Minute

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Хранилище сессий: postgres, если задан DATABASE_URL, иначе память процесса.
	var (
		dbConn   *sqlx.DB
		sessions repository.SessionStore
	)
	if cfg.DatabaseURL != "" {
		dbConn, err = db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("main: ошибка подключения к базе: %v", err)
		}
		defer safeClose(dbConn)

		if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
			log.Fatalf("main: ошибка миграций: %v", err)
		}
		sessions = persistence.NewPostgresSessionStore(dbConn, service.NewTokenCipher(cfg.SessionSecret))
	} else {
		logger.L().Warn("main: DATABASE_URL не задан, сессии хранятся в памяти")
		sessions = persistence.NewMemorySessionStore()
	}

	// Удалённый API.
	apiBase := cfg.APIBaseURL()
	client := remote.NewClient(apiBase, cfg.APITimeout)
	logger.L().WithField("api_base", apiBase).Info("main: удалённый API")

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	goroutine.SafeGo(hub.Run)

	// Сервисы.
	tokenManager := service.NewTokenManager(cfg.SessionSecret, cfg.SessionTTL)
	authService := service.NewAuthService(client, sessions, tokenManager, hub)
	notices := notice.NewBuilder(cfg.NoticeTTL)
	chatService := chat.NewService(client, cfg.ChatPollPeriod)

	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		purgeSessions(ctx, authService)
	})

	// HTTP хэндлеры.
	handlers := httpRouter.Handlers{
		Auth: httpHandlers.NewAuthHandler(authService, httpHandlers.CookieConfig{
			Name:   cfg.CookieName,
			Secure: cfg.CookieSecure,
		}),
		Requester: httpHandlers.NewRequesterHandler(requester.NewController(client, notices)),
		Fetcher:   httpHandlers.NewFetcherHandler(fetcher.NewController(client, notices)),
		Chat:      httpHandlers.NewChatHandler(chatService, hub, notices, cfg.AllowedOrigins),
		Health:    httpHandlers.NewHealthHandler(dbConn),
	}

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, handlers, authService)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.L().WithError(err).Error("main: ошибка остановки http сервера")
		}
	})

	logger.L().Infof("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// purgeSessions периодически удаляет истёкшие сессии.
func purgeSessions(ctx context.Context, auth *service.AuthService) {
	ticker := time.NewTicker(sessionPurgePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := auth.PurgeExpired(ctx)
			if err != nil {
				logger.L().WithError(err).Warn("main: не удалось удалить истёкшие сессии")
				continue
			}
			if n > 0 {
				logger.L().WithField("count", n).Debug("main: истёкшие сессии удалены")
			}
		}
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
