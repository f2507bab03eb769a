// Package merging consolidates a duplicate client record into a surviving
// primary: field-level reconciliation, legacy-ID provenance, and the cascade
// that rewrites every dependent entity to the survivor.
package merging

import (
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
)

// MergeField names one field a reviewer may pick a side for. The set is
// closed: selections naming anything else are rejected at the boundary.
type MergeField string

const (
	FieldFirstName   MergeField = "first_name"
	FieldLastName    MergeField = "last_name"
	FieldEmail       MergeField = "email"
	FieldPhone       MergeField = "phone"
	FieldDateOfBirth MergeField = "date_of_birth"
)

// MergeableFields lists the closed set of selectable fields
func MergeableFields() []MergeField {
	return []MergeField{FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldDateOfBirth}
}

// ApplyFieldSelections copies the chosen side's value onto the primary for
// each selected field. Unselected fields keep the primary's value. A
// selection pointing at an empty duplicate value is ignored: a merge never
// overwrites data with emptiness.
func ApplyFieldSelections(primary, duplicate *models.Client, selections map[string]models.FieldSelection) error {
	for field, selection := range selections {
		if !isMergeField(field) {
			return &models.UnknownMergeFieldError{Field: field}
		}
		if selection.Source != models.MergeSourcePrimary && selection.Source != models.MergeSourceDuplicate {
			return &models.InvalidMergeSourceError{Field: field, Source: selection.Source}
		}

		if selection.Source == models.MergeSourcePrimary {
			// Primary already holds its own value
			continue
		}

		switch MergeField(field) {
		case FieldFirstName:
			if duplicate.FirstName != "" {
				primary.FirstName = duplicate.FirstName
			}
		case FieldLastName:
			if duplicate.LastName != "" {
				primary.LastName = duplicate.LastName
			}
		case FieldEmail:
			if duplicate.Email != nil && *duplicate.Email != "" {
				primary.Email = duplicate.Email
			}
		case FieldPhone:
			if duplicate.Phone != nil && *duplicate.Phone != "" {
				primary.Phone = duplicate.Phone
			}
		case FieldDateOfBirth:
			if duplicate.DateOfBirth != nil {
				primary.DateOfBirth = duplicate.DateOfBirth
			}
		}
	}

	return nil
}

func isMergeField(field string) bool {
	for _, known := range MergeableFields() {
		if MergeField(field) == known {
			return true
		}
	}
	return false
}

// ConsolidateLegacyIDs folds both sides' external identifiers into the
// primary's provenance trail. Order of insertion: existing entries first,
// then the primary's own entry if newly added, then the duplicate's. A
// (source, client_id) pair already present is never duplicated. When the
// duplicate carries an external client_id, it becomes the primary's
// secondary_source_id regardless of whether its source is known.
func ConsolidateLegacyIDs(primary, duplicate *models.Client) {
	entries := primary.LegacyClientIDs.GetValue()

	if primary.ClientID != nil && *primary.ClientID != "" && primary.Source != "" {
		if !primary.HasLegacyID(string(primary.Source), *primary.ClientID) {
			entries = append(entries, models.LegacyClientID{Source: string(primary.Source), ClientID: *primary.ClientID})
			primary.LegacyClientIDs = database.NewJSONB(entries)
		}
	}

	if duplicate.ClientID != nil && *duplicate.ClientID != "" && duplicate.Source != "" {
		if !primary.HasLegacyID(string(duplicate.Source), *duplicate.ClientID) {
			entries = append(entries, models.LegacyClientID{Source: string(duplicate.Source), ClientID: *duplicate.ClientID})
			primary.LegacyClientIDs = database.NewJSONB(entries)
		}
	}

	if duplicate.ClientID != nil && *duplicate.ClientID != "" {
		primary.SecondarySourceID = duplicate.ClientID
	}
}
