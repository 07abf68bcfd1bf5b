package channel_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/harborai/harbor/internal/channel"
)

// recordingAdapter is safe for use from dispatcher goroutines.
type recordingAdapter struct {
	surface channel.Surface

	mu   sync.Mutex
	sent []channel.OutboundMessage
}

func (a *recordingAdapter) Surface() channel.Surface { return a.surface }

func (a *recordingAdapter) Descriptor() channel.Descriptor {
	return channel.Descriptor{Surface: a.surface, TextChunkLimit: 0}
}

func (a *recordingAdapter) Send(_ context.Context, msg channel.OutboundMessage) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, msg)
	return nil
}

func (a *recordingAdapter) sentCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sent)
}

type echoProcessor struct{}

func (echoProcessor) HandleInbound(ctx context.Context, msg channel.InboundMessage, sender channel.ReplySender) error {
	return sender.Send(ctx, channel.OutboundMessage{Target: msg.ReplyTarget, Text: "echo: " + msg.Body})
}

func TestManagerDispatchDelivers(t *testing.T) {
	t.Parallel()
	adapter := &recordingAdapter{surface: channel.SurfaceWeb}
	registry := channel.NewRegistry()
	registry.MustRegister(adapter)
	manager := channel.NewManager(nil, registry, echoProcessor{})

	err := manager.Dispatch(context.Background(), channel.SurfaceWeb, channel.OutboundMessage{
		Target: "s1",
		Text:   "hello",
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	waitFor(t, func() bool { return adapter.sentCount() == 1 })
}

func TestManagerNotifyWhenIdle(t *testing.T) {
	t.Parallel()
	adapter := &recordingAdapter{surface: channel.SurfaceWeb}
	registry := channel.NewRegistry()
	registry.MustRegister(adapter)
	manager := channel.NewManager(nil, registry, echoProcessor{})

	// Nothing pending yet, so the callback fires immediately.
	immediate := make(chan struct{})
	manager.NotifyWhenIdle(channel.SurfaceWeb, func() { close(immediate) })
	select {
	case <-immediate:
	case <-time.After(time.Second):
		t.Fatal("idle callback never fired on an empty queue")
	}

	if err := manager.Dispatch(context.Background(), channel.SurfaceWeb, channel.OutboundMessage{Target: "s1", Text: "one"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	drained := make(chan struct{})
	manager.NotifyWhenIdle(channel.SurfaceWeb, func() { close(drained) })
	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("idle callback never fired after drain")
	}
	if adapter.sentCount() != 1 {
		t.Fatalf("sent = %d, want 1", adapter.sentCount())
	}
}

func TestManagerNotifyWhenIdle_NoSender(t *testing.T) {
	t.Parallel()
	registry := channel.NewRegistry()
	manager := channel.NewManager(nil, registry, echoProcessor{})
	fired := false
	manager.NotifyWhenIdle(channel.SurfaceSlack, func() { fired = true })
	if !fired {
		t.Fatal("idle callback skipped for surface without a sender")
	}
}

func TestManagerHandleInbound(t *testing.T) {
	t.Parallel()
	adapter := &recordingAdapter{surface: channel.SurfaceWeb}
	registry := channel.NewRegistry()
	registry.MustRegister(adapter)
	manager := channel.NewManager(nil, registry, echoProcessor{})

	err := manager.HandleInbound(context.Background(), channel.InboundMessage{
		Surface:     channel.SurfaceWeb,
		From:        "user-1",
		Body:        "ping",
		ChatType:    channel.ChatDirect,
		ReplyTarget: "user-1",
	})
	if err != nil {
		t.Fatalf("HandleInbound: %v", err)
	}
	waitFor(t, func() bool { return adapter.sentCount() == 1 })
	adapter.mu.Lock()
	got := adapter.sent[0]
	adapter.mu.Unlock()
	if got.Target != "user-1" || got.Text != "echo: ping" {
		t.Fatalf("sent = %+v", got)
	}
}

// receivingAdapter records the connection context handed to Connect.
type receivingAdapter struct {
	recordingAdapter

	mu      sync.Mutex
	connCtx context.Context
}

func (a *receivingAdapter) Connect(ctx context.Context, _ channel.InboundHandler) (channel.Connection, error) {
	a.mu.Lock()
	a.connCtx = ctx
	a.mu.Unlock()
	return channel.NewConnection(a.surface, nil), nil
}

func (a *receivingAdapter) connectionCtx() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connCtx
}

// Lifecycle start contexts carry a deadline that expires once startup
// completes. Workers and connections must outlive it.
func TestManagerSurvivesExpiredStartContext(t *testing.T) {
	t.Parallel()
	adapter := &receivingAdapter{recordingAdapter: recordingAdapter{surface: channel.SurfaceWeb}}
	registry := channel.NewRegistry()
	registry.MustRegister(adapter)
	manager := channel.NewManager(nil, registry, echoProcessor{})

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	manager.Start(startCtx)
	t.Cleanup(func() { manager.Stop(context.Background()) })

	<-startCtx.Done()
	time.Sleep(20 * time.Millisecond)

	if connCtx := adapter.connectionCtx(); connCtx == nil || connCtx.Err() != nil {
		t.Fatalf("connection context died with the start context: %v", connCtx)
	}
	err := manager.HandleInbound(context.Background(), channel.InboundMessage{
		Surface:     channel.SurfaceWeb,
		From:        "user-1",
		Body:        "still here?",
		ChatType:    channel.ChatDirect,
		ReplyTarget: "user-1",
	})
	if err != nil {
		t.Fatalf("HandleInbound after start context expiry: %v", err)
	}
	waitFor(t, func() bool { return adapter.sentCount() == 1 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition never met")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
