package entities

import "time"

// Outcome records that a participant won one unit of a prize.
// A voided outcome (IsRedraw) stays in the log for audit but no longer counts as a win.
type Outcome struct {
	ID                string     `db:"id" json:"id"`
	PrizeID           string     `db:"prize_id" json:"prizeId"`
	ParticipantID     string     `db:"participant_id" json:"participantId"`
	IsRedraw          bool       `db:"is_redraw" json:"isRedraw"`
	VoidedAt          *time.Time `db:"voided_at" json:"voidedAt,omitempty"`
	ReplacesOutcomeID *string    `db:"replaces_outcome_id" json:"replacesOutcomeId,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
}

// IsVoided returns true once the outcome has been overturned by a redraw
func (o *Outcome) IsVoided() bool {
	return o.IsRedraw
}

// IsReplacement returns true if the outcome was produced by a redraw
func (o *Outcome) IsReplacement() bool {
	return o.ReplacesOutcomeID != nil
}

// OutcomeDetail is an outcome together with the winner and prize it references
type OutcomeDetail struct {
	Outcome     *Outcome     `json:"outcome"`
	Participant *Participant `json:"participant"`
	Prize       *Prize       `json:"prize"`
}

// OutcomeView is the flattened display row for results boards
type OutcomeView struct {
	ID                string        `json:"id"`
	PrizeID           string        `json:"prize_id"`
	ParticipantID     string        `json:"participant_id"`
	WinnerName        string        `json:"winner_name"`
	EmployeeID        string        `json:"employeeId"`
	Department        string        `json:"department"`
	PrizeName         string        `json:"prize_name"`
	PrizeCategory     PrizeCategory `json:"prize_category"`
	IsRedraw          bool          `json:"is_redraw"`
	ReplacesOutcomeID *string       `json:"replaces_outcome_id,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// DrawRequest asks for one unit of a prize to be drawn.
// A non-empty IdempotencyKey makes retries of the same request return the original outcome.
type DrawRequest struct {
	PrizeID        string
	IdempotencyKey string
}

// ResetResult summarises a pool reset
type ResetResult struct {
	PrizesRestored int64 `json:"prizesRestored"`
	OutcomesPurged int64 `json:"outcomesPurged"`
}

// DrawRecord ties an idempotency key to the outcome it produced
type DrawRecord struct {
	IdempotencyKey string    `db:"idempotency_key"`
	PrizeID        string    `db:"prize_id"`
	OutcomeID      string    `db:"outcome_id"`
	CreatedAt      time.Time `db:"created_at"`
}
