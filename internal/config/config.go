package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

const defaultAPIBase = "http://localhost:8000"

// Config хранит все параметры запуска шлюза.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	// Адрес удалённого API: API_URL, затем API_BASE, затем локальный dev-адрес.
	APIURL         string        `env:"API_URL"`
	APIBase        string        `env:"API_BASE"`
	APITimeout     time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
	ChatPollPeriod time.Duration `env:"CHAT_POLL_PERIOD" envDefault:"3s"`
	NoticeTTL      time.Duration `env:"NOTICE_TTL" envDefault:"3500ms"`

	// Пустой DATABASE_URL - сессии хранятся в памяти процесса.
	DatabaseURL    string `env:"DATABASE_URL"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"./migrations"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CookieName    string        `env:"SESSION_COOKIE" envDefault:"fetch_session"`
	CookieSecure  bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	RateLimitLimit  int64         `env:"RATE_LIMIT_LIMIT" envDefault:"10"`
	RateLimitPeriod time.Duration `env:"RATE_LIMIT_PERIOD" envDefault:"1m"`
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("config: .env не найден, используем переменные окружения: %v", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: не удалось разобрать окружение: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.SessionSecret == "" || len(c.SessionSecret) < 32 {
		if c.Env == "production" {
			return fmt.Errorf("config: SESSION_SECRET обязателен и должен быть не менее 32 символов в production")
		}
		if c.SessionSecret == "" {
			c.SessionSecret = "fetch-gateway-development-only-session-secret"
			log.Printf("config: WARNING - используется дефолтный SESSION_SECRET, измените в production!")
		}
	}

	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, origin := range c.AllowedOrigins {
		if o := strings.TrimSpace(origin); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		if c.Env == "production" {
			return fmt.Errorf("config: CORS_ALLOWED_ORIGINS обязателен в production")
		}
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	c.AllowedOrigins = origins

	if c.ChatPollPeriod <= 0 {
		c.ChatPollPeriod = 3 * time.Second
	}
	return nil
}

// APIBaseURL возвращает адрес удалённого API без завершающего слэша.
func (c *Config) APIBaseURL() string {
	base := c.APIURL
	if base == "" {
		base = c.APIBase
	}
	if base == "" {
		base = defaultAPIBase
	}
	return strings.TrimRight(base, "/")
}
