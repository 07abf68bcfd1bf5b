package channel

import (
	"errors"
	"fmt"
	"sync"
)

// Registry holds all registered surface adapters and provides capability
// lookups. It must be created via NewRegistry and passed explicitly to
// components that need it.
type Registry struct {
	mu       sync.RWMutex
	adapters map[Surface]Adapter
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[Surface]Adapter{}}
}

// Register adds an adapter to the registry.
func (r *Registry) Register(adapter Adapter) error {
	if adapter == nil {
		return errors.New("adapter is nil")
	}
	surface := adapter.Surface()
	if surface == "" || surface == SurfaceUnknown {
		return errors.New("adapter surface is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[surface]; exists {
		return fmt.Errorf("surface already registered: %s", surface)
	}
	r.adapters[surface] = adapter
	return nil
}

// MustRegister calls Register and panics on error.
func (r *Registry) MustRegister(adapter Adapter) {
	if err := r.Register(adapter); err != nil {
		panic(err)
	}
}

// Get returns the adapter for the given surface.
func (r *Registry) Get(surface Surface) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[surface]
	return adapter, ok
}

// List returns all registered adapters.
func (r *Registry) List() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]Adapter, 0, len(r.adapters))
	for _, adapter := range r.adapters {
		items = append(items, adapter)
	}
	return items
}

// Surfaces returns all registered surfaces.
func (r *Registry) Surfaces() []Surface {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]Surface, 0, len(r.adapters))
	for surface := range r.adapters {
		items = append(items, surface)
	}
	return items
}

// GetDescriptor returns the descriptor for the given surface.
func (r *Registry) GetDescriptor(surface Surface) (Descriptor, bool) {
	adapter, ok := r.Get(surface)
	if !ok {
		return Descriptor{}, false
	}
	return adapter.Descriptor(), true
}

// GetSender returns the Sender for the given surface, or false if the
// surface cannot send.
func (r *Registry) GetSender(surface Surface) (Sender, bool) {
	adapter, ok := r.Get(surface)
	if !ok {
		return nil, false
	}
	sender, ok := adapter.(Sender)
	return sender, ok
}

// GetReceiver returns the Receiver for the given surface, or false if the
// surface has no inbound stream.
func (r *Registry) GetReceiver(surface Surface) (Receiver, bool) {
	adapter, ok := r.Get(surface)
	if !ok {
		return nil, false
	}
	receiver, ok := adapter.(Receiver)
	return receiver, ok
}

// GetTypingNotifier returns the TypingNotifier for the given surface, or
// false if the surface cannot render typing state.
func (r *Registry) GetTypingNotifier(surface Surface) (TypingNotifier, bool) {
	adapter, ok := r.Get(surface)
	if !ok {
		return nil, false
	}
	notifier, ok := adapter.(TypingNotifier)
	return notifier, ok
}
