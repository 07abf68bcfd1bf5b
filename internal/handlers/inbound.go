package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/harborai/harbor/internal/channel"
	"github.com/harborai/harbor/internal/channel/adapters/web"
	"github.com/harborai/harbor/internal/channel/adapters/whatsapp"
)

// InboundHandler serves the web surface inbound endpoint, the web reply
// socket, and the WhatsApp bridge socket.
type InboundHandler struct {
	web         *web.Adapter
	bridge      *whatsapp.Hub
	bridgeToken string
	logger      *slog.Logger
}

func NewInboundHandler(log *slog.Logger, webAdapter *web.Adapter, bridge *whatsapp.Hub, bridgeToken string) *InboundHandler {
	return &InboundHandler{
		web:         webAdapter,
		bridge:      bridge,
		bridgeToken: bridgeToken,
		logger:      log.With(slog.String("handler", "inbound")),
	}
}

func (h *InboundHandler) Register(e *echo.Echo) {
	e.POST("/inbound/web", h.WebInbound)
	e.GET("/ws/web", h.WebSocket)
	e.GET("/bridge/whatsapp", h.BridgeSocket)
}

// WebInboundRequest is one web-surface message.
type WebInboundRequest struct {
	SessionID  string `json:"session_id"`
	From       string `json:"from"`
	SenderName string `json:"sender_name"`
	Body       string `json:"body"`
}

// WebInboundResponse acknowledges acceptance; replies arrive on the
// session's websocket.
type WebInboundResponse struct {
	MessageID string `json:"message_id"`
	SessionID string `json:"session_id"`
}

// WebInbound accepts one message on the web surface. Processing is
// asynchronous; the response only acknowledges the enqueue.
func (h *InboundHandler) WebInbound(c echo.Context) error {
	if h.web == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "web surface disabled")
	}
	var req WebInboundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Body) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "body is required"})
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	from := strings.TrimSpace(req.From)
	if from == "" {
		from = sessionID
	}
	msg := channel.InboundMessage{
		Surface:     channel.SurfaceWeb,
		From:        from,
		SenderName:  strings.TrimSpace(req.SenderName),
		Body:        req.Body,
		MessageID:   uuid.NewString(),
		ChatType:    channel.ChatDirect,
		ReplyTarget: sessionID,
		ReceivedAt:  time.Now().UTC(),
	}
	if err := h.web.Inbound(c.Request().Context(), msg); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusAccepted, WebInboundResponse{
		MessageID: msg.MessageID,
		SessionID: sessionID,
	})
}

// WebSocket upgrades a reply socket for one web session.
func (h *InboundHandler) WebSocket(c echo.Context) error {
	if h.web == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "web surface disabled")
	}
	sessionID := strings.TrimSpace(c.QueryParam("session_id"))
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}
	conn, err := websocket.Accept(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("web socket accept failed", slog.Any("error", err))
		return nil
	}
	h.web.HandleSession(c.Request().Context(), sessionID, conn)
	return nil
}

// BridgeSocket upgrades a WhatsApp bridge session. The bridge authenticates
// with its own bearer token, not the API JWT.
func (h *InboundHandler) BridgeSocket(c echo.Context) error {
	if h.bridge == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "whatsapp bridge disabled")
	}
	if h.bridgeToken != "" {
		token := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.bridgeToken)) != 1 {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "invalid bridge token"})
		}
	}
	conn, err := websocket.Accept(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("bridge accept failed", slog.Any("error", err))
		return nil
	}
	h.bridge.HandleSession(c.Request().Context(), conn)
	return nil
}
