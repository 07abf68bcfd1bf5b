// Package web is the generic web surface: inbound messages arrive over the
// gateway's HTTP endpoint and replies are pushed to websocket sessions
// keyed by the caller's session id.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/harborai/harbor/internal/channel"
)

// Adapter is the web surface adapter.
type Adapter struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*websocket.Conn
	handler  channel.InboundHandler
}

func New(log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger:   log.With(slog.String("adapter", "web")),
		sessions: make(map[string]*websocket.Conn),
	}
}

func (a *Adapter) Surface() channel.Surface {
	return channel.SurfaceWeb
}

func (a *Adapter) Descriptor() channel.Descriptor {
	return channel.Descriptor{
		Surface:        channel.SurfaceWeb,
		DisplayName:    "Web",
		TextChunkLimit: 0,
		SupportsTyping: false,
	}
}

// Connect installs the inbound handler used by the HTTP layer.
func (a *Adapter) Connect(ctx context.Context, handler channel.InboundHandler) (channel.Connection, error) {
	a.mu.Lock()
	a.handler = handler
	a.mu.Unlock()
	stop := func(context.Context) error {
		a.mu.Lock()
		a.handler = nil
		a.mu.Unlock()
		return nil
	}
	return channel.NewConnection(channel.SurfaceWeb, stop), nil
}

// Inbound hands one message from the HTTP endpoint to the router. It fails
// when the surface has not been started.
func (a *Adapter) Inbound(ctx context.Context, msg channel.InboundMessage) error {
	a.mu.RLock()
	handler := a.handler
	a.mu.RUnlock()
	if handler == nil {
		return fmt.Errorf("web surface not started")
	}
	return handler(ctx, msg)
}

// HandleSession owns one reply socket for a session id until it closes.
// A new socket for the same session replaces the old one.
func (a *Adapter) HandleSession(ctx context.Context, sessionID string, conn *websocket.Conn) {
	a.mu.Lock()
	if old, ok := a.sessions[sessionID]; ok {
		old.Close(websocket.StatusPolicyViolation, "replaced")
	}
	a.sessions[sessionID] = conn
	a.mu.Unlock()
	a.logger.Info("reply session opened", slog.String("session_id", sessionID))

	// Reads drain client frames (pings, closes); inbound text goes over
	// the HTTP endpoint, not this socket.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	a.mu.Lock()
	if a.sessions[sessionID] == conn {
		delete(a.sessions, sessionID)
	}
	a.mu.Unlock()
	conn.Close(websocket.StatusNormalClosure, "")
	a.logger.Info("reply session closed", slog.String("session_id", sessionID))
}

// Send pushes a reply to the target session's socket. A reply with no live
// session is dropped; the web surface keeps no mailbox.
func (a *Adapter) Send(ctx context.Context, msg channel.OutboundMessage) error {
	a.mu.RLock()
	conn, ok := a.sessions[msg.Target]
	a.mu.RUnlock()
	if !ok {
		a.logger.Debug("reply dropped, no session", slog.String("session_id", msg.Target))
		return nil
	}
	return wsjson.Write(ctx, conn, msg)
}
