package models

import "time"

// ClientRecord is the wire format upstream source systems publish when a
// client is created or updated on their side.
type ClientRecord struct {
	SourceSystem    string           `json:"source_system" validate:"required"`
	SourceClientID  string           `json:"source_client_id" validate:"required"`
	FirstName       string           `json:"first_name" validate:"required"`
	LastName        string           `json:"last_name" validate:"required"`
	Email           *string          `json:"email,omitempty"`
	Phone           *string          `json:"phone,omitempty"`
	DateOfBirth     *string          `json:"date_of_birth,omitempty"` // YYYY-MM-DD
	LegacyClientIDs []LegacyClientID `json:"legacy_client_ids,omitempty"`
	UpdatedBy       *string          `json:"updated_by,omitempty"`
}

// ParseDateOfBirth parses the record's date of birth, if present
func (r *ClientRecord) ParseDateOfBirth() (*time.Time, error) {
	if r.DateOfBirth == nil || *r.DateOfBirth == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *r.DateOfBirth)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
