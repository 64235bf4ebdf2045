package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"luckydraw/database"
	"luckydraw/domain/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// CreateTestPrize builds an active prize with full stock
func CreateTestPrize(name string, category entities.PrizeCategory, stock int) *entities.Prize {
	return &entities.Prize{
		ID:        uuid.NewString(),
		Name:      name,
		Category:  category,
		Stock:     stock,
		Remaining: stock,
		IsActive:  true,
	}
}

// CreateTestParticipant builds a participant with a unique employee id
func CreateTestParticipant(fullName string, checkedIn bool) *entities.Participant {
	id := uuid.NewString()
	p := &entities.Participant{
		ID:         id,
		EmployeeID: "E-" + id[:8],
		FullName:   fullName,
		Department: "Operations",
		CheckedIn:  checkedIn,
	}
	if checkedIn {
		now := time.Now().UTC()
		p.CheckedInAt = &now
	}
	return p
}

// InsertPrizes stores prizes directly, standing in for the prize admin tooling
func InsertPrizes(t *testing.T, db *database.DB, prizes ...*entities.Prize) {
	t.Helper()
	err := db.WithTransaction(context.Background(), func(tx pgx.Tx) error {
		for _, p := range prizes {
			err := tx.QueryRow(context.Background(), `
				INSERT INTO prizes (id, name, description, category, stock, remaining, is_active)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING created_at
			`, p.ID, p.Name, p.Description, string(p.Category), p.Stock, p.Remaining, p.IsActive).Scan(&p.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert prize %s: %w", p.Name, err)
			}
		}
		return nil
	})
	require.NoError(t, err)
}

// InsertParticipants stores participants directly, standing in for registration
func InsertParticipants(t *testing.T, db *database.DB, participants ...*entities.Participant) {
	t.Helper()
	err := db.WithTransaction(context.Background(), func(tx pgx.Tx) error {
		for _, p := range participants {
			err := tx.QueryRow(context.Background(), `
				INSERT INTO participants (id, employee_id, full_name, department, checked_in, checked_in_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING created_at
			`, p.ID, p.EmployeeID, p.FullName, p.Department, p.CheckedIn, p.CheckedInAt).Scan(&p.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert participant %s: %w", p.FullName, err)
			}
		}
		return nil
	})
	require.NoError(t, err)
}

// CreateParticipants inserts n participants named after prefix
func CreateParticipants(t *testing.T, db *database.DB, prefix string, n int, checkedIn bool) []*entities.Participant {
	t.Helper()
	participants := make([]*entities.Participant, 0, n)
	for i := 0; i < n; i++ {
		participants = append(participants, CreateTestParticipant(fmt.Sprintf("%s %03d", prefix, i), checkedIn))
	}
	InsertParticipants(t, db, participants...)
	return participants
}

// RemainingStock reads remaining for a prize straight from the table
func RemainingStock(t *testing.T, db *database.DB, prizeID string) int {
	t.Helper()
	var remaining int
	err := db.QueryRow(context.Background(), `SELECT remaining FROM prizes WHERE id = $1`, prizeID).Scan(&remaining)
	require.NoError(t, err)
	return remaining
}

// CountOutcomes counts outcomes for a prize, live ones only unless includeVoided
func CountOutcomes(t *testing.T, db *database.DB, prizeID string, includeVoided bool) int {
	t.Helper()
	var count int
	err := db.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM outcomes
		WHERE prize_id = $1 AND ($2::boolean OR is_redraw = FALSE)
	`, prizeID, includeVoided).Scan(&count)
	require.NoError(t, err)
	return count
}

// SetPrizeActive flips the active flag, standing in for the prize admin tooling
func SetPrizeActive(t *testing.T, db *database.DB, prizeID string, active bool) {
	t.Helper()
	_, err := db.Exec(context.Background(), `UPDATE prizes SET is_active = $2 WHERE id = $1`, prizeID, active)
	require.NoError(t, err)
}
