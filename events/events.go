package events

import (
	"context"
	"sync"
	"time"

	"luckydraw/domain/entities"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeOutcomeProduced EventType = "outcome_produced"
	EventTypePoolReset       EventType = "pool_reset"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// OutcomeProducedEvent is emitted after a draw or redraw commits a new winner
type OutcomeProducedEvent struct {
	OutcomeID         string                 `json:"outcomeId"`
	PrizeID           string                 `json:"prizeId"`
	PrizeName         string                 `json:"prizeName"`
	PrizeCategory     entities.PrizeCategory `json:"prizeCategory"`
	ParticipantID     string                 `json:"participantId"`
	WinnerName        string                 `json:"winnerName"`
	EmployeeID        string                 `json:"employeeId"`
	Department        string                 `json:"department"`
	ReplacesOutcomeID string                 `json:"replacesOutcomeId,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
}

func (e OutcomeProducedEvent) Type() EventType {
	return EventTypeOutcomeProduced
}

// IsRedraw returns true when the outcome replaced a voided one
func (e OutcomeProducedEvent) IsRedraw() bool {
	return e.ReplacesOutcomeID != ""
}

// NewOutcomeProducedEvent flattens an outcome detail into an event payload
func NewOutcomeProducedEvent(detail *entities.OutcomeDetail) OutcomeProducedEvent {
	e := OutcomeProducedEvent{
		OutcomeID:     detail.Outcome.ID,
		PrizeID:       detail.Prize.ID,
		PrizeName:     detail.Prize.Name,
		PrizeCategory: detail.Prize.Category,
		ParticipantID: detail.Participant.ID,
		WinnerName:    detail.Participant.FullName,
		EmployeeID:    detail.Participant.EmployeeID,
		Department:    detail.Participant.Department,
		CreatedAt:     detail.Outcome.CreatedAt,
	}
	if detail.Outcome.ReplacesOutcomeID != nil {
		e.ReplacesOutcomeID = *detail.Outcome.ReplacesOutcomeID
	}
	return e
}

// PoolResetEvent is emitted after all stock was restored and the outcome log purged
type PoolResetEvent struct {
	PrizesRestored int64     `json:"prizesRestored"`
	OutcomesPurged int64     `json:"outcomesPurged"`
	ResetAt        time.Time `json:"resetAt"`
}

func (e PoolResetEvent) Type() EventType {
	return EventTypePoolReset
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit delivers an event to every registered handler.
// Handlers run on their own goroutines; a panicking handler is logged and does not affect the others.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until it commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes an event until Flush
func (b *TransactionalBus) Publish(e Event) error {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
	return nil
}

// Pending returns the number of events waiting for Flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush emits the pending events; called after a successful commit.
// Delivery uses a background context so handlers outlive the request that produced the event.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events to main event bus")

	eventCtx := context.WithoutCancel(ctx)
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops the pending events; called after a rollback.
func (b *TransactionalBus) Discard() {
	if len(b.pending) > 0 {
		log.WithField("discardedEventCount", len(b.pending)).Debug("Discarding pending events")
	}
	b.pending = nil
}
