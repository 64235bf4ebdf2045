package repository

import (
	"context"
	"errors"
	"fmt"

	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const drawRequestsPrimaryKey = "draw_requests_pkey"

// DrawRequestRepository stores idempotency keys for draws
type DrawRequestRepository struct {
	q queryable
}

func newDrawRequestRepositoryWithTx(tx queryable) *DrawRequestRepository {
	return &DrawRequestRepository{q: tx}
}

// GetByKey looks up a previously recorded key
func (r *DrawRequestRepository) GetByKey(ctx context.Context, key string) (*entities.DrawRecord, error) {
	query := `
		SELECT idempotency_key, prize_id, outcome_id, created_at
		FROM draw_requests
		WHERE idempotency_key = $1
	`

	var record entities.DrawRecord
	err := r.q.QueryRow(ctx, query, key).Scan(
		&record.IdempotencyKey,
		&record.PrizeID,
		&record.OutcomeID,
		&record.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw request: %w", err)
	}

	return &record, nil
}

// Create records a key in the current transaction
func (r *DrawRequestRepository) Create(ctx context.Context, record *entities.DrawRecord) error {
	query := `
		INSERT INTO draw_requests (idempotency_key, prize_id, outcome_id)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query, record.IdempotencyKey, record.PrizeID, record.OutcomeID).Scan(&record.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, drawRequestsPrimaryKey) {
			return fmt.Errorf("key %q: %w", record.IdempotencyKey, interfaces.ErrDuplicateIdempotencyKey)
		}
		return fmt.Errorf("failed to create draw request: %w", err)
	}

	return nil
}

// PurgeAll deletes every recorded key
func (r *DrawRequestRepository) PurgeAll(ctx context.Context) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM draw_requests`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge draw requests: %w", err)
	}
	return result.RowsAffected(), nil
}
