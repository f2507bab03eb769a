// Package events handles event emission for reconciliation outcomes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/kafka"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// EventType defines the type of event
type EventType string

const (
	EventTypeClientMerged          EventType = "client.merged"
	EventTypeEnrollmentReconciled  EventType = "enrollment.reconciled"
	EventTypeCandidateCreated      EventType = "candidate.created"
	EventTypeCandidateNotDuplicate EventType = "candidate.not_duplicate"
)

// Emitter publishes reconciliation outcomes for downstream consumers
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitClientMerged emits a client merged event. The duplicate's record no
// longer exists when this fires, so its ID rides along in related_ids.
func (e *Emitter) EmitClientMerged(ctx context.Context, primary *models.Client, duplicateID string, reviewer string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitClientMerged")
	defer span.End()

	data := map[string]any{
		"schema_version":      SchemaVersion,
		"first_name":          primary.FirstName,
		"last_name":           primary.LastName,
		"legacy_client_ids":   primary.LegacyClientIDs.GetValue(),
		"secondary_source_id": primary.SecondarySourceID,
	}
	dataJSON, _ := json.Marshal(data)

	event := &kafka.ReconciliationEvent{
		EventType:  string(EventTypeClientMerged),
		ClientID:   primary.ID,
		RelatedIDs: []string{duplicateID},
		Actor:      reviewer,
		Data:       dataJSON,
	}

	if err := e.producer.PublishReconciliationEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit client.merged event")
		return err
	}

	return nil
}

// EmitEnrollmentReconciled emits an enrollment reconciled event for one merged cluster
func (e *Emitter) EmitEnrollmentReconciled(ctx context.Context, base *models.ClientProgramEnrollment, archivedIDs []string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitEnrollmentReconciled")
	defer span.End()

	data := map[string]any{
		"schema_version": SchemaVersion,
		"enrollment_id":  base.ID,
		"program_id":     base.ProgramID,
		"start_date":     base.StartDate,
		"end_date":       base.EndDate,
	}
	dataJSON, _ := json.Marshal(data)

	event := &kafka.ReconciliationEvent{
		EventType:  string(EventTypeEnrollmentReconciled),
		ClientID:   base.ClientID,
		RelatedIDs: archivedIDs,
		Data:       dataJSON,
	}

	if err := e.producer.PublishReconciliationEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit enrollment.reconciled event")
		return err
	}

	return nil
}

// EmitCandidateCreated emits an event when a duplicate candidate is identified
func (e *Emitter) EmitCandidateCreated(ctx context.Context, candidate *models.ClientDuplicateCandidate) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitCandidateCreated")
	defer span.End()

	data := map[string]any{
		"schema_version":   SchemaVersion,
		"candidate_id":     candidate.ID,
		"similarity_score": candidate.SimilarityScore,
		"match_type":       candidate.MatchType,
		"confidence_level": candidate.ConfidenceLevel,
		"detection_source": candidate.DetectionSource,
	}
	dataJSON, _ := json.Marshal(data)

	event := &kafka.ReconciliationEvent{
		EventType:  string(EventTypeCandidateCreated),
		ClientID:   candidate.PrimaryClientID,
		RelatedIDs: []string{candidate.DuplicateClientID},
		Data:       dataJSON,
	}

	if err := e.producer.PublishReconciliationEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit candidate.created event")
		return err
	}

	return nil
}

// EmitCandidateNotDuplicate emits an event when a reviewer dismisses a
// candidate. The pair is suppressed from future detection, so downstream
// consumers can retire any pending work for it.
func (e *Emitter) EmitCandidateNotDuplicate(ctx context.Context, candidate *models.ClientDuplicateCandidate) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitCandidateNotDuplicate")
	defer span.End()

	data := map[string]any{
		"schema_version": SchemaVersion,
		"candidate_id":   candidate.ID,
		"reviewed_by":    candidate.ReviewedBy,
		"review_notes":   candidate.ReviewNotes,
	}
	dataJSON, _ := json.Marshal(data)

	event := &kafka.ReconciliationEvent{
		EventType:  string(EventTypeCandidateNotDuplicate),
		ClientID:   candidate.PrimaryClientID,
		RelatedIDs: []string{candidate.DuplicateClientID},
		Data:       dataJSON,
	}
	if candidate.ReviewedBy != nil {
		event.Actor = *candidate.ReviewedBy
	}

	if err := e.producer.PublishReconciliationEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit candidate.not_duplicate event")
		return err
	}

	return nil
}
