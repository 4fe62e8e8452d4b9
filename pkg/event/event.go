// Package event is the single notification channel of a client.
//
// Stores fire named events on a Bus; the UI (the CLI here) listens and turns
// them into toasts and navigation hints. Each client owns its own Bus, so
// tests never share listeners.
package event

import (
	"sync"
)

// Well-known event names.
const (
	// Notify carries a Toast for the user.
	Notify = "notify"
	// LoginRequired fires once when the session is invalidated by a 401.
	LoginRequired = "login.required"
	// CartChanged fires after every persisted cart mutation.
	CartChanged = "cart.changed"
	// OrderSubmitted carries the new order id.
	OrderSubmitted = "order.submitted"
	// OrderStatusChanged carries a StatusChange.
	OrderStatusChanged = "order.status_changed"
	// SessionChanged fires when a token is set or cleared.
	SessionChanged = "session.changed"
)

// Level grades a Toast.
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Error   Level = "error"
)

// Toast is the payload of Notify.
type Toast struct {
	Level   Level
	Message string
}

// Handler is a function that receives an event payload.
type Handler func(payload interface{})

// Bus dispatches events to listeners.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus returns a Bus without listeners.
func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers a handler for the given event name.
func (b *Bus) Listen(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// Fire dispatches an event synchronously to all registered listeners.
// A nil Bus drops the event.
func (b *Bus) Fire(event string, payload interface{}) {
	if b == nil {
		return
	}
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[event]))
	copy(hs, b.handlers[event])
	b.mu.RUnlock()

	for _, h := range hs {
		h(payload)
	}
}

// Toast fires Notify with the given level and message.
func (b *Bus) Toast(level Level, message string) {
	b.Fire(Notify, Toast{Level: level, Message: message})
}

// Flush removes all listeners (useful in tests).
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}
