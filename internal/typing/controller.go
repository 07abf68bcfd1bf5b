// Package typing keeps a surface "typing" indicator alive while a reply is
// being generated.
package typing

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Controller re-fires a typing callback on an interval until both completion
// latches are set: the reply run finishing and the outbound dispatcher
// draining. Setting only one never stops the indicator; the order of the two
// is irrelevant. A TTL bounds the indicator's lifetime even when neither
// latch is ever set, so a stalled run cannot leave a stuck "typing" state.
//
// Exactly one Controller exists per in-flight reply cycle. The callback is
// best-effort: a send already in flight when the controller stops may still
// land one tick late.
type Controller struct {
	onReplyStart func(ctx context.Context)
	interval     time.Duration
	ttl          time.Duration

	runComplete  atomic.Bool
	dispatchIdle atomic.Bool
	started      atomic.Bool
	stopOnce     sync.Once
	stopped      chan struct{}
}

// NewController creates a controller that invokes onReplyStart once per tick.
func NewController(onReplyStart func(ctx context.Context), interval, ttl time.Duration) *Controller {
	if interval <= 0 {
		interval = 6 * time.Second
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Controller{
		onReplyStart: onReplyStart,
		interval:     interval,
		ttl:          ttl,
		stopped:      make(chan struct{}),
	}
}

// Start fires the callback immediately and arms the repeating tick. It is a
// no-op when called twice or after Stop.
func (c *Controller) Start(ctx context.Context) {
	if c.onReplyStart == nil || !c.started.CompareAndSwap(false, true) {
		return
	}
	select {
	case <-c.stopped:
		return
	default:
	}
	c.onReplyStart(ctx)
	go c.loop(ctx)
}

func (c *Controller) loop(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(c.ttl)
	defer deadline.Stop()
	for {
		select {
		case <-ctx.Done():
			c.Stop()
			return
		case <-c.stopped:
			return
		case <-deadline.C:
			// TTL safety net: force-stop without requiring both latches.
			c.Stop()
			return
		case <-ticker.C:
			if c.shouldStop() {
				c.Stop()
				return
			}
			c.onReplyStart(ctx)
		}
	}
}

// MarkRunComplete records that the reply run has finished.
func (c *Controller) MarkRunComplete() {
	c.runComplete.Store(true)
	if c.shouldStop() {
		c.Stop()
	}
}

// MarkDispatchIdle records that the outbound dispatcher has drained.
func (c *Controller) MarkDispatchIdle() {
	c.dispatchIdle.Store(true)
	if c.shouldStop() {
		c.Stop()
	}
}

// Stop cancels the tick unconditionally.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopped) })
}

// Stopped reports whether the tick has been cancelled.
func (c *Controller) Stopped() bool {
	select {
	case <-c.stopped:
		return true
	default:
		return false
	}
}

func (c *Controller) shouldStop() bool {
	return c.runComplete.Load() && c.dispatchIdle.Load()
}
