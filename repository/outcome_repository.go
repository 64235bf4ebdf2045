package repository

import (
	"context"
	"errors"
	"fmt"

	"luckydraw/database"
	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const (
	outcomeColumns = `id, prize_id, participant_id, is_redraw, voided_at, replaces_outcome_id, created_at`

	// liveWinnerIndex is the partial unique index allowing one live outcome per participant
	liveWinnerIndex = "outcomes_one_live_win_per_participant"

	outcomeViewSelect = `
		SELECT o.id, o.prize_id, o.participant_id,
		       p.full_name, p.employee_id, p.department,
		       z.name, z.category,
		       o.is_redraw, o.replaces_outcome_id, o.created_at
		FROM outcomes o
		JOIN participants p ON p.id = o.participant_id
		JOIN prizes z ON z.id = o.prize_id
	`
)

// OutcomeRepository implements the outcome log
type OutcomeRepository struct {
	q queryable
}

// NewOutcomeRepository creates a new outcome repository
func NewOutcomeRepository(db *database.DB) *OutcomeRepository {
	return &OutcomeRepository{q: db.Pool}
}

func newOutcomeRepositoryWithTx(tx queryable) *OutcomeRepository {
	return &OutcomeRepository{q: tx}
}

func scanOutcome(row pgx.Row) (*entities.Outcome, error) {
	var o entities.Outcome
	err := row.Scan(
		&o.ID,
		&o.PrizeID,
		&o.ParticipantID,
		&o.IsRedraw,
		&o.VoidedAt,
		&o.ReplacesOutcomeID,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create appends a live outcome
func (r *OutcomeRepository) Create(ctx context.Context, outcome *entities.Outcome) error {
	query := `
		INSERT INTO outcomes (id, prize_id, participant_id, replaces_outcome_id)
		VALUES ($1, $2, $3, $4)
		RETURNING is_redraw, created_at
	`

	err := r.q.QueryRow(ctx, query,
		outcome.ID,
		outcome.PrizeID,
		outcome.ParticipantID,
		outcome.ReplacesOutcomeID,
	).Scan(&outcome.IsRedraw, &outcome.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, liveWinnerIndex) {
			return fmt.Errorf("participant %s: %w", outcome.ParticipantID, interfaces.ErrParticipantAlreadyWon)
		}
		return fmt.Errorf("failed to create outcome: %w", err)
	}

	return nil
}

// GetByID retrieves an outcome by ID
func (r *OutcomeRepository) GetByID(ctx context.Context, id string) (*entities.Outcome, error) {
	query := `SELECT ` + outcomeColumns + ` FROM outcomes WHERE id = $1`

	o, err := scanOutcome(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outcome %s: %w", id, err)
	}

	return o, nil
}

// GetByIDForUpdate retrieves an outcome and locks its row
func (r *OutcomeRepository) GetByIDForUpdate(ctx context.Context, id string) (*entities.Outcome, error) {
	query := `SELECT ` + outcomeColumns + ` FROM outcomes WHERE id = $1 FOR UPDATE`

	o, err := scanOutcome(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outcome %s for update: %w", id, err)
	}

	return o, nil
}

// Void marks a live outcome as redrawn
func (r *OutcomeRepository) Void(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE outcomes
		SET is_redraw = TRUE, voided_at = clock_timestamp()
		WHERE id = $1 AND is_redraw = FALSE
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to void outcome %s: %w", id, err)
	}

	return result.RowsAffected() == 1, nil
}

// ListActiveWinnerIDs returns participants currently holding a live outcome
func (r *OutcomeRepository) ListActiveWinnerIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT participant_id FROM outcomes WHERE is_redraw = FALSE`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active winners: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan active winners: %w", err)
	}

	return ids, nil
}

// ListActiveViews returns live outcomes with display fields, newest first
func (r *OutcomeRepository) ListActiveViews(ctx context.Context) ([]*entities.OutcomeView, error) {
	query := outcomeViewSelect + `
		WHERE o.is_redraw = FALSE
		ORDER BY o.created_at DESC, o.id DESC
	`
	return r.listViews(ctx, query)
}

// ListHistoryViews returns the full log, oldest first
func (r *OutcomeRepository) ListHistoryViews(ctx context.Context) ([]*entities.OutcomeView, error) {
	query := outcomeViewSelect + `
		ORDER BY o.created_at ASC, o.id ASC
	`
	return r.listViews(ctx, query)
}

func (r *OutcomeRepository) listViews(ctx context.Context, query string) ([]*entities.OutcomeView, error) {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcome views: %w", err)
	}
	defer rows.Close()

	views := make([]*entities.OutcomeView, 0)
	for rows.Next() {
		var v entities.OutcomeView
		if err := rows.Scan(
			&v.ID,
			&v.PrizeID,
			&v.ParticipantID,
			&v.WinnerName,
			&v.EmployeeID,
			&v.Department,
			&v.PrizeName,
			&v.PrizeCategory,
			&v.IsRedraw,
			&v.ReplacesOutcomeID,
			&v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outcome view: %w", err)
		}
		views = append(views, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outcome views: %w", err)
	}

	return views, nil
}

// PurgeAll deletes every outcome
func (r *OutcomeRepository) PurgeAll(ctx context.Context) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM outcomes`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge outcomes: %w", err)
	}
	return result.RowsAffected(), nil
}
