// Package whatsapp adapts an external WhatsApp bridge, connected over a
// websocket endpoint on the gateway, to the channel contract.
package whatsapp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/harborai/harbor/internal/channel"
	"github.com/harborai/harbor/internal/config"
)

// Adapter is the WhatsApp surface adapter. It does not talk to WhatsApp
// directly; an external bridge client connects to the gateway's websocket
// endpoint and relays both directions through the Hub.
type Adapter struct {
	logger *slog.Logger
	cfg    config.WhatsAppConfig
	hub    *Hub
}

func New(log *slog.Logger, cfg config.WhatsAppConfig, hub *Hub) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger: log.With(slog.String("adapter", "whatsapp")),
		cfg:    cfg,
		hub:    hub,
	}
}

func (a *Adapter) Surface() channel.Surface {
	return channel.SurfaceWhatsApp
}

func (a *Adapter) Descriptor() channel.Descriptor {
	return channel.Descriptor{
		Surface:        channel.SurfaceWhatsApp,
		DisplayName:    "WhatsApp",
		TextChunkLimit: 4096,
		SupportsTyping: true,
	}
}

// Hub exposes the session hub so the HTTP layer can hand accepted bridge
// sockets to it.
func (a *Adapter) Hub() *Hub {
	return a.hub
}

// Connect installs the inbound handler. Bridge sessions attach and detach
// independently through the hub, so the connection itself has no socket to
// close.
func (a *Adapter) Connect(ctx context.Context, handler channel.InboundHandler) (channel.Connection, error) {
	a.hub.SetHandler(handler)
	a.logger.Info("awaiting bridge sessions")
	stop := func(context.Context) error {
		a.hub.SetHandler(nil)
		return nil
	}
	return channel.NewConnection(channel.SurfaceWhatsApp, stop), nil
}

// Send relays an outbound message to the connected bridge sessions.
func (a *Adapter) Send(ctx context.Context, msg channel.OutboundMessage) error {
	return a.hub.Broadcast(ctx, Frame{
		Type:        "send",
		Target:      msg.Target,
		Text:        msg.Text,
		Attachments: msg.Attachments,
	})
}

// NotifyTyping relays a typing signal. A missing bridge is not an error
// worth surfacing for a presence hint.
func (a *Adapter) NotifyTyping(ctx context.Context, target string) error {
	err := a.hub.Broadcast(ctx, Frame{Type: "typing", Target: target})
	if errors.Is(err, ErrNoBridge) {
		return nil
	}
	return err
}
