package typing_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harborai/harbor/internal/typing"
)

func TestSingleLatchNeverStops(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		mark func(*typing.Controller)
	}{
		{"run complete only", func(c *typing.Controller) { c.MarkRunComplete() }},
		{"dispatch idle only", func(c *typing.Controller) { c.MarkDispatchIdle() }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := typing.NewController(func(context.Context) {}, 5*time.Millisecond, time.Minute)
			c.Start(context.Background())
			tc.mark(c)
			time.Sleep(30 * time.Millisecond)
			if c.Stopped() {
				t.Fatal("controller stopped with a single latch set")
			}
			c.Stop()
		})
	}
}

func TestBothLatchesStopInEitherOrder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		mark func(*typing.Controller)
	}{
		{"run then dispatch", func(c *typing.Controller) {
			c.MarkRunComplete()
			c.MarkDispatchIdle()
		}},
		{"dispatch then run", func(c *typing.Controller) {
			c.MarkDispatchIdle()
			c.MarkRunComplete()
		}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := typing.NewController(func(context.Context) {}, 5*time.Millisecond, time.Minute)
			c.Start(context.Background())
			tc.mark(c)
			if !c.Stopped() {
				t.Fatal("controller still running after both latches set")
			}
		})
	}
}

func TestTTLForcesStop(t *testing.T) {
	t.Parallel()
	c := typing.NewController(func(context.Context) {}, 5*time.Millisecond, 20*time.Millisecond)
	c.Start(context.Background())
	deadline := time.After(time.Second)
	for !c.Stopped() {
		select {
		case <-deadline:
			t.Fatal("controller never stopped after TTL")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStartFiresImmediatelyAndTicks(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	c := typing.NewController(func(context.Context) { calls.Add(1) }, 10*time.Millisecond, time.Minute)
	c.Start(context.Background())
	if calls.Load() < 1 {
		t.Fatal("callback not fired on start")
	}
	deadline := time.After(time.Second)
	for calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("callback fired %d times, want at least 3", calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	c.Stop()
}

func TestStartIdempotent(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	c := typing.NewController(func(context.Context) { calls.Add(1) }, time.Minute, time.Minute)
	c.Start(context.Background())
	c.Start(context.Background())
	if got := calls.Load(); got != 1 {
		t.Fatalf("callback fired %d times after double start, want 1", got)
	}
	c.Stop()
}

func TestContextCancelStops(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	c := typing.NewController(func(context.Context) {}, 5*time.Millisecond, time.Minute)
	c.Start(ctx)
	cancel()
	deadline := time.After(time.Second)
	for !c.Stopped() {
		select {
		case <-deadline:
			t.Fatal("controller never stopped after context cancel")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
