package interfaces

import (
	"context"
	"errors"

	"luckydraw/domain/entities"
	"luckydraw/events"
)

// Storage-level conflicts reported by repositories
var (
	// ErrParticipantAlreadyWon is returned by OutcomeRepository.Create when the
	// participant already holds a non-voided outcome.
	ErrParticipantAlreadyWon = errors.New("participant already holds a live outcome")

	// ErrDuplicateIdempotencyKey is returned by DrawRequestRepository.Create when
	// the key was already recorded by another transaction.
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already recorded")
)

// PrizeRepository defines the interface for prize ledger access.
// Only Remaining is ever written, and only through DecrementRemaining and RestoreAllStock.
type PrizeRepository interface {
	// GetByID returns nil, nil when the prize does not exist
	GetByID(ctx context.Context, id string) (*entities.Prize, error)

	// DecrementRemaining atomically takes one unit if any is left.
	// Returns false when the prize was already at zero.
	DecrementRemaining(ctx context.Context, id string) (bool, error)

	// RestoreAllStock sets remaining back to stock for every prize and returns the number of prizes touched
	RestoreAllStock(ctx context.Context) (int64, error)
}

// ParticipantRepository defines the read-only interface to the participant directory
type ParticipantRepository interface {
	// GetByID returns nil, nil when the participant does not exist
	GetByID(ctx context.Context, id string) (*entities.Participant, error)

	// List returns participants matching the filter
	List(ctx context.Context, filter entities.ParticipantFilter) ([]*entities.Participant, error)
}

// OutcomeRepository defines the interface for the append-only outcome log
type OutcomeRepository interface {
	// Create appends a new live outcome and fills in CreatedAt.
	// Returns ErrParticipantAlreadyWon if the participant already holds one.
	Create(ctx context.Context, outcome *entities.Outcome) error

	// GetByID returns nil, nil when the outcome does not exist
	GetByID(ctx context.Context, id string) (*entities.Outcome, error)

	// GetByIDForUpdate is GetByID with a row lock held until the transaction ends
	GetByIDForUpdate(ctx context.Context, id string) (*entities.Outcome, error)

	// Void marks a live outcome as overturned. Returns false if it was already voided or missing.
	Void(ctx context.Context, id string) (bool, error)

	// ListActiveWinnerIDs returns the participant IDs holding a live outcome
	ListActiveWinnerIDs(ctx context.Context) ([]string, error)

	// ListActiveViews returns live outcomes with display fields, newest first
	ListActiveViews(ctx context.Context) ([]*entities.OutcomeView, error)

	// ListHistoryViews returns every outcome including voided ones, oldest first
	ListHistoryViews(ctx context.Context) ([]*entities.OutcomeView, error)

	// PurgeAll deletes the whole log and returns the number of rows removed
	PurgeAll(ctx context.Context) (int64, error)
}

// DrawRequestRepository records idempotency keys for draws
type DrawRequestRepository interface {
	// GetByKey returns nil, nil when the key has not been used
	GetByKey(ctx context.Context, key string) (*entities.DrawRecord, error)

	// Create stores the key. Returns ErrDuplicateIdempotencyKey if it already exists.
	Create(ctx context.Context, record *entities.DrawRecord) error

	// PurgeAll deletes every recorded key
	PurgeAll(ctx context.Context) (int64, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}
