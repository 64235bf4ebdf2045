package repository

import (
	"context"
	"errors"
	"fmt"

	"luckydraw/database"
	"luckydraw/domain/entities"

	"github.com/jackc/pgx/v5"
)

const prizeColumns = `id, name, description, category, stock, remaining, is_active, created_at`

// PrizeRepository implements prize ledger access
type PrizeRepository struct {
	q queryable
}

// NewPrizeRepository creates a new prize repository
func NewPrizeRepository(db *database.DB) *PrizeRepository {
	return &PrizeRepository{q: db.Pool}
}

// newPrizeRepositoryWithTx creates a new prize repository bound to a transaction
func newPrizeRepositoryWithTx(tx queryable) *PrizeRepository {
	return &PrizeRepository{q: tx}
}

func scanPrize(row pgx.Row) (*entities.Prize, error) {
	var prize entities.Prize
	err := row.Scan(
		&prize.ID,
		&prize.Name,
		&prize.Description,
		&prize.Category,
		&prize.Stock,
		&prize.Remaining,
		&prize.IsActive,
		&prize.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &prize, nil
}

// GetByID retrieves a prize by its ID
func (r *PrizeRepository) GetByID(ctx context.Context, id string) (*entities.Prize, error) {
	query := `SELECT ` + prizeColumns + ` FROM prizes WHERE id = $1`

	prize, err := scanPrize(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prize %s: %w", id, err)
	}

	return prize, nil
}

// DecrementRemaining takes one unit of stock if any is left.
// The row lock taken by the UPDATE serialises concurrent draws on the same prize.
func (r *PrizeRepository) DecrementRemaining(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE prizes
		SET remaining = remaining - 1
		WHERE id = $1 AND remaining > 0
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to decrement remaining for prize %s: %w", id, err)
	}

	return result.RowsAffected() == 1, nil
}

// RestoreAllStock sets remaining back to stock for every prize
func (r *PrizeRepository) RestoreAllStock(ctx context.Context) (int64, error) {
	result, err := r.q.Exec(ctx, `UPDATE prizes SET remaining = stock`)
	if err != nil {
		return 0, fmt.Errorf("failed to restore prize stock: %w", err)
	}
	return result.RowsAffected(), nil
}
