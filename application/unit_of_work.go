package application

import (
	"context"

	"luckydraw/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and then releases buffered events
	Commit() error

	// Rollback rolls back the transaction and drops buffered events.
	// It is a no-op after a successful Commit.
	Rollback() error

	// Repository getters
	PrizeRepository() interfaces.PrizeRepository
	ParticipantRepository() interfaces.ParticipantRepository
	OutcomeRepository() interfaces.OutcomeRepository
	DrawRequestRepository() interfaces.DrawRequestRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
