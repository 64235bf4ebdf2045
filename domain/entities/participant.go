package entities

import "time"

// Participant is an event attendee eligible to win prizes.
// Participants are owned by the registration side; the draw engine only reads them.
type Participant struct {
	ID          string     `db:"id" json:"id"`
	EmployeeID  string     `db:"employee_id" json:"employeeId"`
	FullName    string     `db:"full_name" json:"fullName"`
	Department  string     `db:"department" json:"department"`
	CheckedIn   bool       `db:"checked_in" json:"checkedIn"`
	CheckedInAt *time.Time `db:"checked_in_at" json:"checkedInAt,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}

// ParticipantFilter narrows a participant listing
type ParticipantFilter struct {
	CheckedInOnly bool
}
