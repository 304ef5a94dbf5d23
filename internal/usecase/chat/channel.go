package chat

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/goroutine"
	"github.com/yaarfetch/fetch-gateway/internal/logger"
	"github.com/yaarfetch/fetch-gateway/internal/metrics"
)

// Render - новое состояние панели. ScrollToID - самое свежее сообщение,
// к которому панель прокручивается.
type Render struct {
	OrderID    string               `json:"order_id"`
	Messages   []entity.ChatMessage `json:"messages"`
	ScrollToID string               `json:"scroll_to_id,omitempty"`
}

// Sink получает отрисовки смонтированной панели. Render вызывается под
// замком канала, поэтому он не должен блокироваться и обращаться к Channel.
type Sink interface {
	Render(r Render)
}

// Channel - одна открытая панель чата. Пока она смонтирована, список
// сообщений перечитывается по таймеру и отдаётся в Sink только при изменении.
type Channel struct {
	service *Service

	mu         sync.Mutex
	mounted    bool
	generation uint64
	session    *entity.Session
	orderID    string
	sink       Sink
	stop       chan struct{}
	kick       chan struct{}

	rendered bool
	count    int
	lastID   string
}

// Mount запускает опрос. Повторный Mount сначала размонтирует прежний заказ.
// ctx ограничивает жизнь панели (например, websocket соединения).
func (c *Channel) Mount(ctx context.Context, session *entity.Session, orderID string, sink Sink) {
	c.mu.Lock()
	c.unmountLocked()

	c.generation++
	c.mounted = true
	c.session = session
	c.orderID = orderID
	c.sink = sink
	c.stop = make(chan struct{})
	c.kick = make(chan struct{}, 1)
	c.rendered, c.count, c.lastID = false, 0, ""

	gen, stop, kick := c.generation, c.stop, c.kick
	c.mu.Unlock()

	metrics.ChatPanelsMounted.Inc()
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		c.run(ctx, gen, stop, kick)
	})
}

// Unmount останавливает таймер. Запрос, который уже в пути, не
// прерывается: его ответ будет отброшен.
func (c *Channel) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unmountLocked()
}

// unmountGeneration снимает панель, только если она не была перемонтирована.
func (c *Channel) unmountGeneration(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == gen {
		c.unmountLocked()
	}
}

func (c *Channel) unmountLocked() {
	if !c.mounted {
		return
	}
	c.mounted = false
	c.generation++
	close(c.stop)
	c.sink = nil
	metrics.ChatPanelsMounted.Dec()
}

// Mounted сообщает, идёт ли опрос.
func (c *Channel) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted
}

// Send отправляет сообщение и сразу перечитывает список, не дожидаясь таймера.
func (c *Channel) Send(ctx context.Context, content string) (*entity.ChatMessage, error) {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return nil, errNotMounted
	}
	session, orderID, kick := c.session, c.orderID, c.kick
	c.mu.Unlock()

	msg, err := c.service.Send(ctx, session, orderID, content)
	if err != nil {
		return nil, err
	}

	select {
	case kick <- struct{}{}:
	default:
	}
	return msg, nil
}

func (c *Channel) run(ctx context.Context, gen uint64, stop <-chan struct{}, kick <-chan struct{}) {
	// Ответ, пришедший после размонтирования, не должен зависеть от отмены контекста.
	fetchCtx := context.WithoutCancel(ctx)

	c.poll(fetchCtx, gen)

	ticker := time.NewTicker(c.service.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			c.unmountGeneration(gen)
			return
		case <-ticker.C:
			c.poll(fetchCtx, gen)
		case <-kick:
			c.poll(fetchCtx, gen)
		}
	}
}

// poll - один цикл: загрузка, проверка поколения, сравнение, отрисовка.
func (c *Channel) poll(ctx context.Context, gen uint64) {
	c.mu.Lock()
	if !c.mounted || c.generation != gen {
		c.mu.Unlock()
		return
	}
	session, orderID := c.session, c.orderID
	c.mu.Unlock()

	messages, err := c.service.List(ctx, session, orderID)
	if err != nil {
		metrics.ChatPollErrorsTotal.Inc()
		logger.L().WithFields(logrus.Fields{
			"order_id": orderID,
			"user_id":  session.User.ID,
		}).WithError(err).Warn("chat: не удалось загрузить сообщения")
		return
	}

	c.mu.Lock()
	if !c.mounted || c.generation != gen {
		c.mu.Unlock()
		return
	}
	if !c.changedLocked(messages) {
		c.mu.Unlock()
		return
	}
	c.rendered = true
	c.count = len(messages)
	c.lastID = newestID(messages)

	// Отрисовка под замком: после возврата Unmount старый sink больше не вызывается.
	c.sink.Render(Render{
		OrderID:    orderID,
		Messages:   messages,
		ScrollToID: c.lastID,
	})
	c.mu.Unlock()
}

// Список только дополняется, поэтому достаточно сравнить длину и последний id.
func (c *Channel) changedLocked(messages []entity.ChatMessage) bool {
	return !c.rendered || len(messages) != c.count || newestID(messages) != c.lastID
}

func newestID(messages []entity.ChatMessage) string {
	if len(messages) == 0 {
		return ""
	}
	return messages[len(messages)-1].ID
}
