// Package events fans out schedule-change notifications to live clients.
// Publishing is fire-and-forget: it never blocks or fails the mutation that
// triggered it.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const subscriberBuffer = 64

// Event is one live-update notification.
type Event struct {
	Type string         `json:"type"`
	TS   int64          `json:"ts"`
	Data map[string]any `json:"data,omitempty"`
}

// Broker keeps the subscriber registry.
type Broker struct {
	mu   sync.Mutex
	subs map[uuid.UUID]chan Event
	now  func() time.Time
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[uuid.UUID]chan Event),
		now:  time.Now,
	}
}

// Subscribe registers a new subscriber and returns its id and channel.
func (b *Broker) Subscribe() (uuid.UUID, <-chan Event) {
	id := uuid.New()
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	return id, ch
}

// Unsubscribe removes a subscriber. Safe to call twice.
func (b *Broker) Unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers event to every subscriber without blocking. A subscriber
// whose channel is full is dropped rather than allowed to stall the caller.
func (b *Broker) Publish(event Event) {
	if event.TS == 0 {
		event.TS = b.now().Unix()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			delete(b.subs, id)
			close(ch)
		}
	}
}

// SubscriberCount reports the number of live subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
