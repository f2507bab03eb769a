package models

import (
	"time"
)

// Dependent entities reference a client and are rewritten to the surviving
// client during a merge. Only the fields the merge engine touches are modeled.

// ClientIntake is an intake assessment tied to a client
type ClientIntake struct {
	ID         string    `json:"id" db:"id"`
	ClientID   string    `json:"client_id" db:"client_id"`
	IntakeDate time.Time `json:"intake_date" db:"intake_date"`
	Notes      string    `json:"notes" db:"notes"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ClientDischarge records a client's exit from the platform or a program
type ClientDischarge struct {
	ID            string    `json:"id" db:"id"`
	ClientID      string    `json:"client_id" db:"client_id"`
	DischargeDate time.Time `json:"discharge_date" db:"discharge_date"`
	Reason        *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ServiceRestriction bars a client from a service for a period
type ServiceRestriction struct {
	ID        string     `json:"id" db:"id"`
	ClientID  string     `json:"client_id" db:"client_id"`
	ServiceID string     `json:"service_id" db:"service_id"`
	StartDate time.Time  `json:"start_date" db:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty" db:"end_date"`
	Reason    *string    `json:"reason,omitempty" db:"reason"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// StaffClientAssignment links a staff member to a client caseload
type StaffClientAssignment struct {
	ID         string     `json:"id" db:"id"`
	StaffID    string     `json:"staff_id" db:"staff_id"`
	ClientID   string     `json:"client_id" db:"client_id"`
	AssignedAt time.Time  `json:"assigned_at" db:"assigned_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}
