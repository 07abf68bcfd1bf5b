package channel_test

import (
	"context"
	"testing"

	"github.com/harborai/harbor/internal/channel"
)

// fullAdapter sends, receives, and renders typing state.
type fullAdapter struct {
	surface channel.Surface
	sent    []channel.OutboundMessage
	typed   []string
	handler channel.InboundHandler
}

func (a *fullAdapter) Surface() channel.Surface { return a.surface }

func (a *fullAdapter) Descriptor() channel.Descriptor {
	return channel.Descriptor{
		Surface:        a.surface,
		TextChunkLimit: 4000,
		SupportsTyping: true,
	}
}

func (a *fullAdapter) Send(_ context.Context, msg channel.OutboundMessage) error {
	a.sent = append(a.sent, msg)
	return nil
}

func (a *fullAdapter) Connect(_ context.Context, handler channel.InboundHandler) (channel.Connection, error) {
	a.handler = handler
	return channel.NewConnection(a.surface, nil), nil
}

func (a *fullAdapter) NotifyTyping(_ context.Context, target string) error {
	a.typed = append(a.typed, target)
	return nil
}

// sendOnlyAdapter has no inbound stream and no typing support.
type sendOnlyAdapter struct {
	surface channel.Surface
}

func (a *sendOnlyAdapter) Surface() channel.Surface { return a.surface }

func (a *sendOnlyAdapter) Descriptor() channel.Descriptor {
	return channel.Descriptor{Surface: a.surface, SupportsTyping: false}
}

func (a *sendOnlyAdapter) Send(context.Context, channel.OutboundMessage) error { return nil }

func TestRegistryRegister(t *testing.T) {
	t.Parallel()
	registry := channel.NewRegistry()
	if err := registry.Register(&fullAdapter{surface: channel.SurfaceTelegram}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := registry.Register(&fullAdapter{surface: channel.SurfaceTelegram}); err == nil {
		t.Fatal("duplicate surface registered without error")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatal("nil adapter registered without error")
	}
	if err := registry.Register(&fullAdapter{surface: channel.SurfaceUnknown}); err == nil {
		t.Fatal("unknown surface registered without error")
	}
}

func TestRegistryCapabilityLookup(t *testing.T) {
	t.Parallel()
	registry := channel.NewRegistry()
	registry.MustRegister(&fullAdapter{surface: channel.SurfaceTelegram})
	registry.MustRegister(&sendOnlyAdapter{surface: channel.SurfaceSlack})

	if _, ok := registry.GetSender(channel.SurfaceTelegram); !ok {
		t.Fatal("telegram sender missing")
	}
	if _, ok := registry.GetReceiver(channel.SurfaceTelegram); !ok {
		t.Fatal("telegram receiver missing")
	}
	if _, ok := registry.GetTypingNotifier(channel.SurfaceTelegram); !ok {
		t.Fatal("telegram typing notifier missing")
	}

	if _, ok := registry.GetSender(channel.SurfaceSlack); !ok {
		t.Fatal("slack sender missing")
	}
	if _, ok := registry.GetReceiver(channel.SurfaceSlack); ok {
		t.Fatal("send-only adapter reported a receiver")
	}
	if _, ok := registry.GetTypingNotifier(channel.SurfaceSlack); ok {
		t.Fatal("send-only adapter reported a typing notifier")
	}

	if _, ok := registry.GetSender(channel.SurfaceDiscord); ok {
		t.Fatal("unregistered surface reported a sender")
	}
	desc, ok := registry.GetDescriptor(channel.SurfaceTelegram)
	if !ok || desc.TextChunkLimit != 4000 {
		t.Fatalf("descriptor = %+v, %v", desc, ok)
	}
}

func TestParseSurface(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want channel.Surface
	}{
		{"whatsapp", channel.SurfaceWhatsApp},
		{" Telegram ", channel.SurfaceTelegram},
		{"DISCORD", channel.SurfaceDiscord},
		{"slack", channel.SurfaceSlack},
		{"web", channel.SurfaceWeb},
		{"matrix", channel.SurfaceUnknown},
		{"", channel.SurfaceUnknown},
	}
	for _, tc := range cases {
		if got := channel.ParseSurface(tc.in); got != tc.want {
			t.Fatalf("ParseSurface(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
