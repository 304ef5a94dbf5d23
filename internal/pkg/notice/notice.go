// Package notice - временный баннер статуса, который возвращается вместе с доской.
package notice

import (
	"strings"
	"time"

	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
)

type Tone string

const (
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
)

// DefaultTTL - через сколько баннер скрывается сам.
const DefaultTTL = 3500 * time.Millisecond

type Notice struct {
	Message   string    `json:"message"`
	Tone      Tone      `json:"tone"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Builder выпускает баннеры с одинаковым временем жизни.
type Builder struct {
	ttl time.Duration
	now func() time.Time
}

func NewBuilder(ttl time.Duration) *Builder {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Builder{ttl: ttl, now: time.Now}
}

func (b *Builder) make(message string, tone Tone) *Notice {
	return &Notice{Message: message, Tone: tone, ExpiresAt: b.now().Add(b.ttl)}
}

func (b *Builder) Info(message string) *Notice {
	return b.make(message, ToneInfo)
}

func (b *Builder) Success(message string) *Notice {
	return b.make(message, ToneSuccess)
}

func (b *Builder) Error(message string) *Notice {
	return b.make(message, ToneError)
}

// FromError показывает detail сервера как есть; без detail (сеть, таймаут,
// внутренняя ошибка) - общий текст fallback для этого действия.
func (b *Builder) FromError(err error, fallback string) *Notice {
	return b.Error(MessageFor(err, fallback))
}

// MessageFor выбирает текст ошибки для пользователя.
func MessageFor(err error, fallback string) string {
	if detail, ok := apperror.DetailOf(err); ok && strings.TrimSpace(detail) != "" {
		return detail
	}
	return fallback
}

// Expired сообщает, что баннер пора убрать.
func (n *Notice) Expired(now time.Time) bool {
	return n == nil || !now.Before(n.ExpiresAt)
}
