package whatsapp

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/harborai/harbor/internal/channel"
)

// Frame is the wire envelope exchanged with a bridge client. Inbound frames
// carry type "message"; outbound frames carry "send" or "typing".
type Frame struct {
	Type        string               `json:"type"`
	From        string               `json:"from,omitempty"`
	To          string               `json:"to,omitempty"`
	SenderName  string               `json:"sender_name,omitempty"`
	Body        string               `json:"body,omitempty"`
	MessageID   string               `json:"message_id,omitempty"`
	GroupID     string               `json:"group_id,omitempty"`
	Target      string               `json:"target,omitempty"`
	Text        string               `json:"text,omitempty"`
	Attachments []channel.Attachment `json:"attachments,omitempty"`
}

// ErrNoBridge is returned when an outbound frame has no connected bridge to
// carry it.
var ErrNoBridge = errors.New("no whatsapp bridge connected")

// Hub tracks connected bridge sessions. Each session is an explicit
// registration with its own id; sends go to every connected session and
// inbound frames from any session reach the one registered handler.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	conns   map[string]*websocket.Conn
	handler channel.InboundHandler
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		logger: log.With(slog.String("adapter", "whatsapp")),
		conns:  make(map[string]*websocket.Conn),
	}
}

// SetHandler installs the inbound handler. Frames that arrive before a
// handler is set are dropped.
func (h *Hub) SetHandler(handler channel.InboundHandler) {
	h.mu.Lock()
	h.handler = handler
	h.mu.Unlock()
}

// SessionCount reports the number of live bridge sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// HandleSession owns one accepted bridge socket until it closes: it
// registers the session, reads inbound frames, and unregisters on exit.
func (h *Hub) HandleSession(ctx context.Context, conn *websocket.Conn) {
	id := uuid.NewString()
	h.mu.Lock()
	h.conns[id] = conn
	h.mu.Unlock()
	h.logger.Info("bridge session opened", slog.String("session_id", id))

	defer func() {
		h.mu.Lock()
		delete(h.conns, id)
		h.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
		h.logger.Info("bridge session closed", slog.String("session_id", id))
	}()

	for {
		var frame Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) == -1 {
				h.logger.Warn("bridge read failed", slog.String("session_id", id), slog.Any("error", err))
			}
			return
		}
		if frame.Type != "message" {
			continue
		}
		h.dispatch(ctx, frame)
	}
}

func (h *Hub) dispatch(ctx context.Context, frame Frame) {
	h.mu.RLock()
	handler := h.handler
	h.mu.RUnlock()
	if handler == nil {
		h.logger.Debug("inbound frame dropped, no handler")
		return
	}
	body := strings.TrimSpace(frame.Body)
	if body == "" {
		return
	}
	chatType := channel.ChatDirect
	if frame.GroupID != "" {
		chatType = channel.ChatGroup
	}
	msg := channel.InboundMessage{
		Surface:     channel.SurfaceWhatsApp,
		From:        frame.From,
		To:          frame.To,
		SenderName:  frame.SenderName,
		Body:        body,
		MessageID:   frame.MessageID,
		ChatType:    chatType,
		GroupID:     frame.GroupID,
		ReplyTarget: frame.From,
		ReceivedAt:  time.Now().UTC(),
	}
	if chatType == channel.ChatGroup {
		msg.ReplyTarget = frame.GroupID
	}
	go func() {
		if err := handler(ctx, msg); err != nil {
			h.logger.Error("handle inbound failed", slog.Any("error", err))
		}
	}()
}

// Broadcast writes a frame to every live session. Sessions whose write
// fails are dropped. Returns ErrNoBridge when no session is connected.
func (h *Hub) Broadcast(ctx context.Context, frame Frame) error {
	h.mu.RLock()
	conns := make(map[string]*websocket.Conn, len(h.conns))
	for id, conn := range h.conns {
		conns[id] = conn
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return ErrNoBridge
	}

	var failed []string
	for id, conn := range conns {
		if err := wsjson.Write(ctx, conn, frame); err != nil {
			h.logger.Warn("bridge write failed", slog.String("session_id", id), slog.Any("error", err))
			failed = append(failed, id)
		}
	}
	if len(failed) > 0 {
		h.mu.Lock()
		for _, id := range failed {
			if conn, ok := h.conns[id]; ok {
				conn.Close(websocket.StatusInternalError, "write failed")
				delete(h.conns, id)
			}
		}
		h.mu.Unlock()
	}
	if len(failed) == len(conns) {
		return ErrNoBridge
	}
	return nil
}
