package infrastructure

import (
	"context"
	"sync"

	"luckydraw/events"

	log "github.com/sirupsen/logrus"
)

const subscriberBuffer = 16

// Broadcaster fans committed events out to live display subscribers.
// Delivery is best-effort: a subscriber whose buffer is full misses the event.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[int]chan events.Event
	nextID      int
	closed      bool
}

// NewBroadcaster creates a new broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[int]chan events.Event),
	}
}

// Subscribe attaches the broadcaster to the bus
func (b *Broadcaster) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeOutcomeProduced, b.handle)
	bus.Subscribe(events.EventTypePoolReset, b.handle)
}

func (b *Broadcaster) handle(_ context.Context, event events.Event) {
	b.Broadcast(event)
}

// Listen registers a subscriber. The returned func unregisters it and closes the channel.
func (b *Broadcaster) Listen() (<-chan events.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan events.Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(ch)
		}
	}
}

// Close ends every subscription so open streams return. Later Listen calls get a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Broadcast sends event to every subscriber without blocking
func (b *Broadcaster) Broadcast(event events.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			log.WithFields(log.Fields{
				"subscriber": id,
				"eventType":  event.Type(),
			}).Warn("Dropping event for slow display subscriber")
		}
	}
}

// SubscriberCount returns the number of connected subscribers
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
