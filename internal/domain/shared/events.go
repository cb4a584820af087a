package shared

import (
	"sync"
	"time"
)

// DomainEvent represents an event that has occurred in the domain
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// EventHandler handles domain events
type EventHandler func(event DomainEvent) error

// EventDispatcher dispatches domain events to handlers
type EventDispatcher interface {
	Dispatch(event DomainEvent) error
	Register(eventName string, handler EventHandler)
}

// InMemoryDispatcher is a synchronous, concurrency-safe EventDispatcher
type InMemoryDispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

// NewInMemoryDispatcher creates an empty dispatcher
func NewInMemoryDispatcher() *InMemoryDispatcher {
	return &InMemoryDispatcher{handlers: make(map[string][]EventHandler)}
}

// Register adds a handler for the named event
func (d *InMemoryDispatcher) Register(eventName string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventName] = append(d.handlers[eventName], handler)
}

// Dispatch runs every handler registered for the event, returning the first error.
// All handlers run even if an earlier one fails.
func (d *InMemoryDispatcher) Dispatch(event DomainEvent) error {
	d.mu.RLock()
	handlers := append([]EventHandler(nil), d.handlers[event.EventName()]...)
	d.mu.RUnlock()

	var first error
	for _, h := range handlers {
		if err := h(event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
