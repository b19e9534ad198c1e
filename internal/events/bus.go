// Package events provides a typed publish/subscribe bus for cross-component
// notification. Subscribers register for enumerated event kinds and hold a
// subscription handle they must release when their owner shuts down.
package events

import (
	"log"
	"sync"
	"time"
)

// Kind enumerates every event the application can emit.
type Kind string

const (
	SchemaLoaded  Kind = "schema.loaded"
	SchemaSaved   Kind = "schema.saved"
	SchemaDeleted Kind = "schema.deleted"

	BatchCreated  Kind = "batch.created"
	BatchModified Kind = "batch.modified"
	FileAdded     Kind = "batch.file_added"
	FileRemoved   Kind = "batch.file_removed"

	AssignmentCreated Kind = "assignment.created"
	AssignmentRemoved Kind = "assignment.removed"

	ProcessingStarted   Kind = "processing.started"
	ProcessingProgress  Kind = "processing.progress"
	ProcessingCompleted Kind = "processing.completed"
	ProcessingCancelled Kind = "processing.cancelled"
	ProcessingFailed    Kind = "processing.failed"

	MonitorFileDetected Kind = "monitor.file_detected"
)

// Event is a single notification. Payload shape depends on the Kind.
type Event struct {
	Kind      Kind
	Payload   any
	Timestamp time.Time
}

// Handler receives events for the kinds its subscription covers.
type Handler func(Event)

// Subscription identifies one registered handler.
type Subscription struct {
	id   uint64
	kind Kind
}

// Bus fans events out to registered subscribers. Delivery is synchronous and
// in registration order; handlers must not block.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Kind][]busEntry
}

type busEntry struct {
	id      uint64
	handler Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Kind][]busEntry)}
}

// Subscribe registers a handler for one event kind.
func (b *Bus) Subscribe(kind Kind, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs[kind] = append(b.subs[kind], busEntry{id: b.nextID, handler: handler})
	return Subscription{id: b.nextID, kind: kind}
}

// Unsubscribe removes a previously registered handler. Unknown subscriptions
// are ignored.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.subs[sub.kind]
	for i, e := range entries {
		if e.id == sub.id {
			b.subs[sub.kind] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// Publish delivers an event to every subscriber of its kind. A panicking
// handler is logged and does not affect the remaining subscribers.
func (b *Bus) Publish(kind Kind, payload any) {
	b.mu.RLock()
	entries := append([]busEntry(nil), b.subs[kind]...)
	b.mu.RUnlock()

	ev := Event{Kind: kind, Payload: payload, Timestamp: time.Now()}
	for _, e := range entries {
		b.deliver(e, ev)
	}
}

func (b *Bus) deliver(entry busEntry, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Bus.Publish: handler for %s panicked: %v", ev.Kind, r)
		}
	}()
	entry.handler(ev)
}

// SubscriberCount reports how many handlers are registered for a kind.
func (b *Bus) SubscriberCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}
