package models

import (
	"time"
)

// CandidateStatus is the review state of a duplicate candidate
type CandidateStatus string

const (
	// CandidateStatusPending is the initial state set by the detector
	CandidateStatusPending CandidateStatus = "pending"
	// CandidateStatusConfirmed marks a reviewer-confirmed duplicate pair
	CandidateStatusConfirmed CandidateStatus = "confirmed_duplicate"
	// CandidateStatusNotDuplicate permanently suppresses re-proposal of the pair
	CandidateStatusNotDuplicate CandidateStatus = "not_duplicate"
)

// MatchType tags how a candidate pairing was produced
type MatchType string

const (
	MatchTypeSimilarity MatchType = "similarity"
	MatchTypeNickname   MatchType = "nickname"
	MatchTypeExactEmail MatchType = "exact-email"
	MatchTypeExactPhone MatchType = "exact-phone"
	MatchTypeNameDOB    MatchType = "name-dob"
)

// IsExact reports whether the match type is definitional rather than
// heuristic. Exact matches are always classified high confidence.
func (m MatchType) IsExact() bool {
	switch m {
	case MatchTypeExactEmail, MatchTypeExactPhone, MatchTypeNameDOB:
		return true
	}
	return false
}

// ConfidenceLevel is the coarse classification derived from a similarity score
type ConfidenceLevel string

const (
	ConfidenceHigh    ConfidenceLevel = "high"
	ConfidenceMedium  ConfidenceLevel = "medium"
	ConfidenceLow     ConfidenceLevel = "low"
	ConfidenceVeryLow ConfidenceLevel = "very_low"
)

// DetectionSource records which pipeline proposed the candidate
type DetectionSource string

const (
	DetectionSourceScan   DetectionSource = "scan"
	DetectionSourceUpload DetectionSource = "upload"
	DetectionSourceManual DetectionSource = "manual"
)

// ClientDuplicateCandidate is a persisted proposal that two client records
// denote the same person. The pair is directional: the primary survives a
// confirmed merge. At most one row may exist per ordered (primary, duplicate)
// pair; merge deletes the row rather than retaining a terminal state.
type ClientDuplicateCandidate struct {
	ID                string          `json:"id" db:"id"`
	PrimaryClientID   string          `json:"primary_client_id" db:"primary_client_id"`
	DuplicateClientID string          `json:"duplicate_client_id" db:"duplicate_client_id"`
	SimilarityScore   float64         `json:"similarity_score" db:"similarity_score"`
	MatchType         MatchType       `json:"match_type" db:"match_type"`
	ConfidenceLevel   ConfidenceLevel `json:"confidence_level" db:"confidence_level"`
	Status            CandidateStatus `json:"status" db:"status"`
	DetectionSource   DetectionSource `json:"detection_source" db:"detection_source"`
	ReviewedBy        *string         `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt        *time.Time      `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewNotes       *string         `json:"review_notes,omitempty" db:"review_notes"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// ReviewRequest carries a reviewer decision for mark-duplicate and
// mark-not-duplicate actions
type ReviewRequest struct {
	Notes string `json:"notes"`
}

// MergeFieldSource selects which side of a pair supplies a merged field value
type MergeFieldSource string

const (
	MergeSourcePrimary   MergeFieldSource = "primary"
	MergeSourceDuplicate MergeFieldSource = "duplicate"
)

// FieldSelection picks the source for one mergeable field
type FieldSelection struct {
	Source MergeFieldSource `json:"source" validate:"required,oneof=primary duplicate"`
}

// MergeRequest is the request body for the merge review action
type MergeRequest struct {
	FieldSelections map[string]FieldSelection `json:"field_selections"`
	Notes           string                    `json:"notes"`
}
