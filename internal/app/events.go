package app

import (
	"sync"
	"time"

	"practice_reminder_service/internal/domain/task"
)

// EventType names a lifecycle transition.
type EventType string

const (
	EventInstanceCreated     EventType = "INSTANCE_CREATED"
	EventInstanceStarted     EventType = "INSTANCE_STARTED"
	EventInstancePaused      EventType = "INSTANCE_PAUSED"
	EventInstanceCompleted   EventType = "INSTANCE_COMPLETED"
	EventInstanceOverdue     EventType = "INSTANCE_OVERDUE"
	EventInstanceRescheduled EventType = "INSTANCE_RESCHEDULED"
)

// Event is emitted by the lifecycle manager after a transition has been
// persisted. External collaborators (in-app notifications, workspace sync)
// subscribe instead of hooking persistence internals.
type Event struct {
	Type     EventType
	FirmID   int64
	Instance *task.Instance
	At       time.Time
}

// EventHandler observes lifecycle events. Handlers run synchronously on the
// publishing goroutine and must not block.
type EventHandler func(Event)

// Bus is a minimal in-process observer registry.
type Bus struct {
	mu       sync.RWMutex
	handlers []EventHandler
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all subsequent events.
func (b *Bus) Subscribe(h EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers the event to every handler in registration order.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()
	for _, h := range handlers {
		h(e)
	}
}
