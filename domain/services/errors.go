package services

import "errors"

// Validation errors
var (
	ErrInvalidPrizeID   = errors.New("prize id is required")
	ErrInvalidOutcomeID = errors.New("outcome id is required")

	// ErrIdempotencyKeyReused means a key was replayed against a different prize
	ErrIdempotencyKeyReused = errors.New("idempotency key was already used for another prize")
)

// State errors
var (
	ErrPrizeNotFound        = errors.New("prize not found")
	ErrPrizeInactive        = errors.New("prize is not active")
	ErrPrizeExhausted       = errors.New("prize has no remaining stock")
	ErrOutcomeNotFound      = errors.New("outcome not found")
	ErrOutcomeAlreadyVoided = errors.New("outcome has already been redrawn")

	// ErrNoCandidates means the eligible set is empty
	ErrNoCandidates = errors.New("no eligible participants")

	// ErrNoCheckedInParticipants is the grand-tier flavour of ErrNoCandidates;
	// errors.Is(err, ErrNoCandidates) holds for both.
	ErrNoCheckedInParticipants error = &noCheckedInError{}
)

// Concurrency errors
var (
	// ErrStockRaceLost means the prize had stock when read but another draw took the last unit first
	ErrStockRaceLost = errors.New("another draw took the last unit of this prize")

	// ErrWinnerConflict means a concurrent draw committed the same participant first
	ErrWinnerConflict = errors.New("participant was awarded by a concurrent draw")

	// ErrDuplicateRequest means a concurrent call with the same idempotency key committed first
	ErrDuplicateRequest = errors.New("a draw with this idempotency key is already committed")
)

type noCheckedInError struct{}

func (e *noCheckedInError) Error() string {
	return "no checked-in participants are eligible for a grand prize"
}

func (e *noCheckedInError) Unwrap() error {
	return ErrNoCandidates
}

// IsRetryable reports whether the operation failed only because of a concurrent caller
// and may succeed if run again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStockRaceLost) ||
		errors.Is(err, ErrWinnerConflict) ||
		errors.Is(err, ErrDuplicateRequest)
}
