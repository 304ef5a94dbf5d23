package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yaarfetch/fetch-gateway/internal/goroutine"
	"github.com/yaarfetch/fetch-gateway/internal/logger"
	"github.com/yaarfetch/fetch-gateway/internal/usecase/chat"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 16 * 1024
)

// Event - сообщение для браузера: "type" содержит имя события, "data" - полезную нагрузку.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Command - сообщение от браузера в открытую панель.
type Command struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// CommandHandler обрабатывает команды панели.
type CommandHandler func(ctx context.Context, cmd Command)

// Client - одно websocket подключение панели чата.
type Client struct {
	conn      *websocket.Conn
	hub       *Hub
	sessionID uuid.UUID
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient создаёт нового клиента.
func NewClient(conn *websocket.Conn, hub *Hub, sessionID uuid.UUID) *Client {
	return &Client{
		conn:      conn,
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 16),
		done:      make(chan struct{}),
	}
}

// Render реализует chat.Sink: новое состояние панели уходит в браузер.
func (c *Client) Render(r chat.Render) {
	c.Emit("messages", r)
}

// Emit ставит событие в очередь отправки. Переполненная очередь
// означает зависший браузер, такое соединение закрывается.
func (c *Client) Emit(eventType string, data any) {
	raw, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		logger.L().WithError(err).Error("ws: не удалось сериализовать событие")
		return
	}

	select {
	case c.send <- raw:
	default:
		goroutine.SafeGo(c.Close)
	}
}

// Run обслуживает соединение до его закрытия.
func (c *Client) Run(ctx context.Context, onCommand CommandHandler) {
	goroutine.SafeGo(c.writePump)
	c.readPump(ctx, onCommand)
}

// Close закрывает соединение.
func (c *Client) Close() {
	c.hub.Unregister(c)
	c.closeConn()
}

func (c *Client) closeConn() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) readPump(ctx context.Context, onCommand CommandHandler) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.L().WithFields(logrus.Fields{"session_id": c.sessionID}).WithError(err).Debug("ws: соединение оборвано")
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.Emit("error", "некорректное сообщение")
			continue
		}
		if onCommand != nil {
			onCommand(ctx, cmd)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
