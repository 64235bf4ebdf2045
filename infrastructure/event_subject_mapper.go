package infrastructure

import (
	"fmt"

	"luckydraw/events"
)

// Stream and subjects the service publishes to
const (
	EventStreamName        = "luckydraw_events"
	SubjectOutcomeProduced = "luckydraw.outcome.produced"
	SubjectPoolReset       = "luckydraw.pool.reset"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeOutcomeProduced:
		return SubjectOutcomeProduced
	case events.EventTypePoolReset:
		return SubjectPoolReset
	default:
		return fmt.Sprintf("luckydraw.unknown.%s", event.Type())
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{SubjectOutcomeProduced, SubjectPoolReset}
}
