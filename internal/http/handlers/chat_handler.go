package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/http/handlers/common"
	"github.com/yaarfetch/fetch-gateway/internal/http/middleware"
	"github.com/yaarfetch/fetch-gateway/internal/logger"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/notice"
	"github.com/yaarfetch/fetch-gateway/internal/usecase/chat"
	"github.com/yaarfetch/fetch-gateway/internal/ws"
)

const sendFailedMessage = "Unable to send message"

// ChatHandler - чат заказа: REST для списка и отправки, websocket для открытой панели.
type ChatHandler struct {
	chat     *chat.Service
	hub      *ws.Hub
	notices  *notice.Builder
	upgrader websocket.Upgrader
}

// NewChatHandler создаёт хэндлер. Websocket принимается только с разрешённых origins.
func NewChatHandler(service *chat.Service, hub *ws.Hub, notices *notice.Builder, allowedOrigins []string) *ChatHandler {
	return &ChatHandler{
		chat:    service,
		hub:     hub,
		notices: notices,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return middleware.AllowedOrigin(allowedOrigins, r.Header.Get("Origin"))
			},
		},
	}
}

// List GET /api/chat/:orderId/messages
func (h *ChatHandler) List(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	messages, err := h.chat.List(c.Request.Context(), session, c.Param("orderId"))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if messages == nil {
		messages = []entity.ChatMessage{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// Send POST /api/chat/:orderId/messages
func (h *ChatHandler) Send(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	message, err := h.chat.Send(c.Request.Context(), session, c.Param("orderId"), req.Content)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// Panel GET /api/chat/:orderId/ws - открытая панель чата. Пока соединение
// живо, сообщения перечитываются по таймеру и приходят событием "messages".
// Браузер отправляет {"type":"send","content":"..."}.
func (h *ChatHandler) Panel(c *gin.Context) {
	session, err := common.CurrentSession(c)
	if err != nil {
		common.RespondUnauthorized(c)
		return
	}
	orderID := c.Param("orderId")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.L().WithError(err).Debug("ws: апгрейд не удался")
		return
	}

	client := ws.NewClient(conn, h.hub, session.ID)
	h.hub.Register(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := h.chat.NewChannel()
	channel.Mount(ctx, session, orderID, client)
	defer channel.Unmount()

	logger.L().WithFields(logrus.Fields{"session_id": session.ID, "order_id": orderID}).Debug("ws: панель чата открыта")

	client.Run(ctx, func(ctx context.Context, cmd ws.Command) {
		switch cmd.Type {
		case "send":
			if _, err := channel.Send(ctx, cmd.Content); err != nil {
				client.Emit("notice", h.notices.FromError(err, sendFailedMessage))
			}
		default:
			client.Emit("error", "неизвестная команда")
		}
	})
}
