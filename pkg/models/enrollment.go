package models

import (
	"time"
)

// EnrollmentStatus is the lifecycle state of a program enrollment
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusWithdrawn EnrollmentStatus = "withdrawn"
)

// ClientProgramEnrollment records a client's participation in a program over
// a date range. A nil EndDate means the enrollment is open-ended. Multiple
// rows may exist per (client, program) pair; the interval reconciler collapses
// ones that overlap or are date-adjacent, archiving the rest.
type ClientProgramEnrollment struct {
	ID         string           `json:"id" db:"id"`
	ClientID   string           `json:"client_id" db:"client_id"`
	ProgramID  string           `json:"program_id" db:"program_id"`
	StartDate  time.Time        `json:"start_date" db:"start_date"`
	EndDate    *time.Time       `json:"end_date,omitempty" db:"end_date"`
	Status     EnrollmentStatus `json:"status" db:"status"`
	Notes      string           `json:"notes" db:"notes"`
	IsArchived bool             `json:"is_archived" db:"is_archived"`
	ArchivedAt *time.Time       `json:"archived_at,omitempty" db:"archived_at"`
	UpdatedBy  *string          `json:"updated_by,omitempty" db:"updated_by"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" db:"updated_at"`
}

// IsOpenEnded reports whether the enrollment has no end date
func (e *ClientProgramEnrollment) IsOpenEnded() bool {
	return e.EndDate == nil
}

// CoversDate reports whether the enrollment range contains the given date
func (e *ClientProgramEnrollment) CoversDate(date time.Time) bool {
	if date.Before(e.StartDate) {
		return false
	}
	return e.EndDate == nil || !date.After(*e.EndDate)
}
