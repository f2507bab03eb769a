package models

import (
	"time"

	"github.com/Ramsey-B/laurel/pkg/database"
)

// SourceSystem identifies the originating system of a client record
type SourceSystem string

const (
	SourceSMIS    SourceSystem = "SMIS"
	SourceEMHware SourceSystem = "EMHware"
	SourceManual  SourceSystem = "manual"
	SourceUpload  SourceSystem = "upload"
)

// LegacyClientID is one entry of a client's provenance trail. Entries are
// append-only: once recorded a (source, client_id) pair is never removed.
type LegacyClientID struct {
	Source   string `json:"source"`
	ClientID string `json:"client_id"`
}

// Client is an identity record for a person served by the platform
type Client struct {
	ID                string                           `json:"id" db:"id"`
	FirstName         string                           `json:"first_name" db:"first_name" validate:"required"`
	LastName          string                           `json:"last_name" db:"last_name" validate:"required"`
	Email             *string                          `json:"email,omitempty" db:"email"`
	Phone             *string                          `json:"phone,omitempty" db:"phone"`
	DateOfBirth       *time.Time                       `json:"date_of_birth,omitempty" db:"date_of_birth"`
	ClientID          *string                          `json:"client_id,omitempty" db:"client_id"` // external system key
	Source            SourceSystem                     `json:"source" db:"source"`
	LegacyClientIDs   database.JSONB[[]LegacyClientID] `json:"legacy_client_ids" db:"legacy_client_ids"`
	SecondarySourceID *string                          `json:"secondary_source_id,omitempty" db:"secondary_source_id"` // external id of the last merged-in duplicate
	IsInactive        bool                             `json:"is_inactive" db:"is_inactive"`
	UpdatedBy         *string                          `json:"updated_by,omitempty" db:"updated_by"`
	CreatedAt         time.Time                        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time                        `json:"updated_at" db:"updated_at"`
}

// FullName joins first and last name the way the scorer compares them
func (c *Client) FullName() string {
	return c.FirstName + " " + c.LastName
}

// HasLegacyID reports whether the provenance trail already holds the exact
// (source, client_id) pair.
func (c *Client) HasLegacyID(source, clientID string) bool {
	for _, entry := range c.LegacyClientIDs.GetValue() {
		if entry.Source == source && entry.ClientID == clientID {
			return true
		}
	}
	return false
}
