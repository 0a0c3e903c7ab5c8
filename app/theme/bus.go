package theme

import "sync"

// Listener receives the name of a broadcast event.
type Listener func(event string)

// Bus is a synchronous publish/subscribe list. Publish calls every listener
// in registration order and returns once all of them are done.
type Bus struct {
	mu        sync.Mutex
	listeners []Listener
}

// NewBus makes a bus with optional initial listeners, nil ones are skipped.
func NewBus(listeners ...Listener) *Bus {
	b := &Bus{}
	for _, l := range listeners {
		b.Subscribe(l)
	}
	return b
}

// Subscribe adds a listener to the end of the list.
func (b *Bus) Subscribe(l Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	b.listeners = append(b.listeners, l)
	b.mu.Unlock()
}

// Publish broadcasts the event to all current listeners. No listeners is fine.
func (b *Bus) Publish(event string) {
	b.mu.Lock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	// called outside the lock, a listener may subscribe more listeners
	for _, l := range listeners {
		l(event)
	}
}

// Len returns the number of registered listeners.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
