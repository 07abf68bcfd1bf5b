package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/harborai/harbor/internal/channel"
	"github.com/harborai/harbor/internal/config"
)

// First use happens concurrently from Connect and the dispatcher; the
// initialization result must be the same on every path.
func TestAPIConcurrentFirstUse(t *testing.T) {
	t.Parallel()
	adapter := New(nil, config.TelegramConfig{})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = adapter.api()
		}()
	}
	wg.Wait()
	for i, err := range errs {
		if err == nil || !strings.Contains(err.Error(), "token is required") {
			t.Fatalf("api()[%d] = %v, want token error", i, err)
		}
	}
}

func TestSendWithoutToken(t *testing.T) {
	t.Parallel()
	adapter := New(nil, config.TelegramConfig{})
	err := adapter.Send(context.Background(), channel.OutboundMessage{Target: "42", Text: "hi"})
	if err == nil || !strings.Contains(err.Error(), "token is required") {
		t.Fatalf("Send = %v, want token error", err)
	}
}
