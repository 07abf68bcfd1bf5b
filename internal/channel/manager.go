package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// InboundProcessor routes one inbound message and produces replies through
// the given sender.
type InboundProcessor interface {
	HandleInbound(ctx context.Context, msg InboundMessage, sender ReplySender) error
}

// ReplySender is the per-message handle a processor uses to deliver replies,
// render typing state, and observe dispatch-queue drain for the originating
// surface.
type ReplySender interface {
	Send(ctx context.Context, msg OutboundMessage) error
	Typing(ctx context.Context, target string) error
	// NotifyWhenIdle invokes fn once the surface's outbound queue has
	// drained. When the queue is already empty, fn runs immediately.
	NotifyWhenIdle(fn func())
}

type inboundTask struct {
	ctx context.Context
	msg InboundMessage
}

type outboundTask struct {
	ctx context.Context
	msg OutboundMessage
}

// Manager owns live surface connections, the inbound worker pool, and the
// per-surface outbound dispatchers.
type Manager struct {
	registry  *Registry
	processor InboundProcessor
	logger    *slog.Logger

	inboundQueue   chan inboundTask
	inboundWorkers int
	inboundOnce    sync.Once
	inboundCtx     context.Context
	inboundCancel  context.CancelFunc

	mu          sync.Mutex
	connections map[Surface]Connection
	dispatchers map[Surface]*surfaceDispatcher
}

// NewManager creates a Manager over the given registry and processor.
func NewManager(log *slog.Logger, registry *Registry, processor InboundProcessor) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		registry:       registry,
		processor:      processor,
		logger:         log.With(slog.String("component", "channel")),
		inboundQueue:   make(chan inboundTask, 256),
		inboundWorkers: 4,
		connections:    map[Surface]Connection{},
		dispatchers:    map[Surface]*surfaceDispatcher{},
	}
}

// Start connects every registered receiver and starts the worker pool.
// Individual connect failures are logged and skipped so one broken surface
// does not take down the rest. The start context is deliberately ignored:
// workers and surface connections live until Stop, never tied to a caller
// deadline (fx start contexts expire once startup completes).
func (m *Manager) Start(_ context.Context) {
	m.startInboundWorkers()
	for _, adapter := range m.registry.List() {
		receiver, ok := adapter.(Receiver)
		if !ok {
			continue
		}
		surface := adapter.Surface()
		conn, err := receiver.Connect(m.inboundCtx, m.HandleInbound)
		if err != nil {
			m.logger.Error("surface connect failed", slog.String("surface", surface.String()), slog.Any("error", err))
			continue
		}
		m.mu.Lock()
		m.connections[surface] = conn
		m.mu.Unlock()
		m.logger.Info("surface connected", slog.String("surface", surface.String()))
	}
}

// Stop stops all connections and the worker pool.
func (m *Manager) Stop(ctx context.Context) {
	if m.inboundCancel != nil {
		m.inboundCancel()
	}
	m.mu.Lock()
	conns := make([]Connection, 0, len(m.connections))
	for _, conn := range m.connections {
		conns = append(conns, conn)
	}
	m.connections = map[Surface]Connection{}
	m.mu.Unlock()
	for _, conn := range conns {
		if err := conn.Stop(ctx); err != nil && !errors.Is(err, ErrStopNotSupported) {
			m.logger.Warn("surface stop failed", slog.String("surface", conn.Surface().String()), slog.Any("error", err))
		}
	}
}

// HandleInbound enqueues an inbound message for asynchronous processing by
// the worker pool. It is the InboundHandler given to adapters.
func (m *Manager) HandleInbound(ctx context.Context, msg InboundMessage) error {
	if m.processor == nil {
		return errors.New("inbound processor not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	m.startInboundWorkers()
	if m.inboundCtx != nil && m.inboundCtx.Err() != nil {
		return errors.New("inbound dispatcher stopped")
	}
	task := inboundTask{ctx: context.WithoutCancel(ctx), msg: msg}
	select {
	case m.inboundQueue <- task:
		return nil
	default:
		return errors.New("inbound queue full")
	}
}

// NewReplySender returns the ReplySender bound to the given surface.
func (m *Manager) NewReplySender(surface Surface) ReplySender {
	return &replySender{manager: m, surface: surface}
}

func (m *Manager) startInboundWorkers() {
	m.inboundOnce.Do(func() {
		m.inboundCtx, m.inboundCancel = context.WithCancel(context.Background())
		for range m.inboundWorkers {
			go m.runInboundWorker(m.inboundCtx)
		}
	})
}

func (m *Manager) runInboundWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-m.inboundQueue:
			sender := m.NewReplySender(task.msg.Surface)
			if err := m.processor.HandleInbound(task.ctx, task.msg, sender); err != nil {
				m.logger.Error("inbound processing failed",
					slog.String("surface", task.msg.Surface.String()),
					slog.Any("error", err),
				)
			}
		}
	}
}

func (m *Manager) dispatcher(surface Surface) (*surfaceDispatcher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.dispatchers[surface]; ok {
		return d, nil
	}
	sender, ok := m.registry.GetSender(surface)
	if !ok {
		return nil, fmt.Errorf("surface cannot send: %s", surface)
	}
	desc, _ := m.registry.GetDescriptor(surface)
	d := newSurfaceDispatcher(m.logger, surface, sender, desc.TextChunkLimit)
	ctx := m.inboundCtx
	if ctx == nil {
		ctx = context.Background()
	}
	go d.run(ctx)
	m.dispatchers[surface] = d
	return d, nil
}

// Dispatch enqueues one outbound message for rate-limited delivery.
func (m *Manager) Dispatch(ctx context.Context, surface Surface, msg OutboundMessage) error {
	d, err := m.dispatcher(surface)
	if err != nil {
		return err
	}
	return d.enqueue(ctx, msg)
}

// NotifyWhenIdle registers fn to run once the surface's outbound queue has
// drained.
func (m *Manager) NotifyWhenIdle(surface Surface, fn func()) {
	d, err := m.dispatcher(surface)
	if err != nil {
		// Nothing can ever be pending on a surface that cannot send.
		fn()
		return
	}
	d.notifyWhenIdle(fn)
}

type replySender struct {
	manager *Manager
	surface Surface
}

func (s *replySender) Send(ctx context.Context, msg OutboundMessage) error {
	return s.manager.Dispatch(ctx, s.surface, msg)
}

func (s *replySender) Typing(ctx context.Context, target string) error {
	notifier, ok := s.manager.registry.GetTypingNotifier(s.surface)
	if !ok {
		return nil
	}
	return notifier.NotifyTyping(ctx, target)
}

func (s *replySender) NotifyWhenIdle(fn func()) {
	s.manager.NotifyWhenIdle(s.surface, fn)
}

// surfaceDispatcher serializes outbound sends for one surface behind a rate
// limiter and tracks queue drain for idle notification.
type surfaceDispatcher struct {
	surface    Surface
	sender     Sender
	limiter    *rate.Limiter
	chunkLimit int
	queue      chan outboundTask
	logger     *slog.Logger

	mu      sync.Mutex
	pending int
	idleFns []func()
}

func newSurfaceDispatcher(log *slog.Logger, surface Surface, sender Sender, chunkLimit int) *surfaceDispatcher {
	return &surfaceDispatcher{
		surface:    surface,
		sender:     sender,
		limiter:    rate.NewLimiter(rate.Limit(1), 3),
		chunkLimit: chunkLimit,
		queue:      make(chan outboundTask, 64),
		logger:     log.With(slog.String("surface", surface.String())),
	}
}

func (d *surfaceDispatcher) enqueue(ctx context.Context, msg OutboundMessage) error {
	if msg.IsEmpty() {
		return nil
	}
	d.mu.Lock()
	d.pending++
	d.mu.Unlock()
	task := outboundTask{ctx: context.WithoutCancel(ctx), msg: msg}
	select {
	case d.queue <- task:
		return nil
	default:
		d.taskDone()
		return errors.New("outbound queue full")
	}
}

func (d *surfaceDispatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-d.queue:
			d.deliver(task)
			d.taskDone()
		}
	}
}

func (d *surfaceDispatcher) deliver(task outboundTask) {
	for _, part := range SplitOutbound(task.msg, d.chunkLimit) {
		if err := d.limiter.Wait(task.ctx); err != nil {
			d.logger.Warn("outbound wait canceled", slog.Any("error", err))
			return
		}
		if err := d.sender.Send(task.ctx, part); err != nil {
			d.logger.Error("outbound send failed", slog.String("target", part.Target), slog.Any("error", err))
			return
		}
	}
}

func (d *surfaceDispatcher) taskDone() {
	d.mu.Lock()
	d.pending--
	var fns []func()
	if d.pending == 0 {
		fns = d.idleFns
		d.idleFns = nil
	}
	d.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (d *surfaceDispatcher) notifyWhenIdle(fn func()) {
	d.mu.Lock()
	if d.pending == 0 {
		d.mu.Unlock()
		fn()
		return
	}
	d.idleFns = append(d.idleFns, fn)
	d.mu.Unlock()
}
