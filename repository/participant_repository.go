package repository

import (
	"context"
	"errors"
	"fmt"

	"luckydraw/database"
	"luckydraw/domain/entities"

	"github.com/jackc/pgx/v5"
)

const participantColumns = `id, employee_id, full_name, department, checked_in, checked_in_at, created_at`

// ParticipantRepository reads the participant directory
type ParticipantRepository struct {
	q queryable
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *database.DB) *ParticipantRepository {
	return &ParticipantRepository{q: db.Pool}
}

func newParticipantRepositoryWithTx(tx queryable) *ParticipantRepository {
	return &ParticipantRepository{q: tx}
}

func scanParticipant(row pgx.Row) (*entities.Participant, error) {
	var p entities.Participant
	err := row.Scan(
		&p.ID,
		&p.EmployeeID,
		&p.FullName,
		&p.Department,
		&p.CheckedIn,
		&p.CheckedInAt,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a participant by ID
func (r *ParticipantRepository) GetByID(ctx context.Context, id string) (*entities.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`

	p, err := scanParticipant(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant %s: %w", id, err)
	}

	return p, nil
}

// List returns participants in a stable order so a given pick index is reproducible
func (r *ParticipantRepository) List(ctx context.Context, filter entities.ParticipantFilter) ([]*entities.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE (NOT $1::boolean OR checked_in)
		ORDER BY employee_id, id
	`

	rows, err := r.q.Query(ctx, query, filter.CheckedInOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*entities.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}
