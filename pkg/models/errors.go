package models

import (
	"errors"
	"fmt"
)

// ErrStaleCandidate indicates the duplicate client or candidate row vanished
// between detection and merge, usually because a concurrent merge already
// resolved the pair. The operation performs no writes.
var ErrStaleCandidate = errors.New("duplicate candidate is stale")

// InvalidTransitionError is returned when a review action is applied to a
// candidate whose current status does not permit it.
type InvalidTransitionError struct {
	From   CandidateStatus
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a candidate in status %q", e.Action, e.From)
}

// UnknownMergeFieldError is returned when a merge field selection names a
// field outside the closed set of mergeable fields.
type UnknownMergeFieldError struct {
	Field string
}

func (e *UnknownMergeFieldError) Error() string {
	return fmt.Sprintf("unknown merge field %q", e.Field)
}

// InvalidMergeSourceError is returned when a field selection names a source
// other than primary or duplicate.
type InvalidMergeSourceError struct {
	Field  string
	Source MergeFieldSource
}

func (e *InvalidMergeSourceError) Error() string {
	return fmt.Sprintf("invalid merge source %q for field %q", e.Source, e.Field)
}
