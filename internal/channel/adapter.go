package channel

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrStopNotSupported is returned by connections without a stop hook.
var ErrStopNotSupported = errors.New("channel connection stop not supported")

// InboundHandler receives normalized inbound messages from a connected
// adapter.
type InboundHandler func(ctx context.Context, msg InboundMessage) error

// Adapter is the minimal surface adapter contract. Optional capabilities
// (Sender, Receiver, TypingNotifier) are discovered by interface assertion.
type Adapter interface {
	Surface() Surface
	Descriptor() Descriptor
}

// Sender delivers outbound messages on a surface.
type Sender interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// Receiver starts the surface's inbound stream.
type Receiver interface {
	Connect(ctx context.Context, handler InboundHandler) (Connection, error)
}

// TypingNotifier renders a best-effort "typing" state on a surface. Each
// call is idempotent; a send that lands after the reply is tolerated.
type TypingNotifier interface {
	NotifyTyping(ctx context.Context, target string) error
}

// Connection is a live inbound stream for one surface.
type Connection interface {
	Surface() Surface
	Stop(ctx context.Context) error
	Running() bool
}

// BaseConnection is the common Connection implementation used by adapters.
type BaseConnection struct {
	surface Surface
	stop    func(ctx context.Context) error
	running atomic.Bool
}

// NewConnection wraps a stop hook into a running Connection.
func NewConnection(surface Surface, stop func(ctx context.Context) error) *BaseConnection {
	conn := &BaseConnection{surface: surface, stop: stop}
	conn.running.Store(true)
	return conn
}

func (c *BaseConnection) Surface() Surface {
	return c.surface
}

func (c *BaseConnection) Stop(ctx context.Context) error {
	if c.stop == nil {
		return ErrStopNotSupported
	}
	err := c.stop(ctx)
	if err == nil {
		c.running.Store(false)
	}
	return err
}

func (c *BaseConnection) Running() bool {
	return c.running.Load()
}
