// Package review implements the human review workflow over duplicate
// candidates: pending rows are confirmed, dismissed, or merged.
package review

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/internal/repositories/audit"
	"github.com/Ramsey-B/laurel/internal/repositories/client"
	"github.com/Ramsey-B/laurel/internal/repositories/duplicatecandidate"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// ClientMerger consolidates a duplicate client into a surviving primary.
// Implemented by the merging engine; injected to keep the review workflow
// free of merge mechanics.
type ClientMerger interface {
	Merge(ctx context.Context, primaryID, duplicateID string, selections map[string]models.FieldSelection, reviewer, notes string) (*models.Client, error)
}

// DuplicateGroup is the transitive closure of clients connected by candidate
// rows, presented to reviewers as a cluster rather than isolated pairs.
type DuplicateGroup struct {
	Clients    []models.Client                   `json:"clients"`
	Candidates []models.ClientDuplicateCandidate `json:"candidates"`
}

// EventEmitter publishes review outcomes. May be nil when event publishing
// is disabled.
type EventEmitter interface {
	EmitCandidateNotDuplicate(ctx context.Context, candidate *models.ClientDuplicateCandidate) error
}

// Workflow drives review transitions on duplicate candidates
type Workflow struct {
	log           ectologger.Logger
	candidateRepo *duplicatecandidate.Repository
	clientRepo    *client.Repository
	merger        ClientMerger
	auditor       *audit.Recorder
	emitter       EventEmitter
}

// NewWorkflow creates a new review workflow
func NewWorkflow(
	log ectologger.Logger,
	candidateRepo *duplicatecandidate.Repository,
	clientRepo *client.Repository,
	merger ClientMerger,
	auditor *audit.Recorder,
	emitter EventEmitter,
) *Workflow {
	return &Workflow{
		log:           log,
		candidateRepo: candidateRepo,
		clientRepo:    clientRepo,
		merger:        merger,
		auditor:       auditor,
		emitter:       emitter,
	}
}

// MarkDuplicate transitions a pending candidate to confirmed_duplicate
func (w *Workflow) MarkDuplicate(ctx context.Context, candidateID, reviewer, notes string) (*models.ClientDuplicateCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Workflow.MarkDuplicate")
	defer span.End()

	return w.transition(ctx, candidateID, models.CandidateStatusConfirmed, models.AuditActionMarkDuplicate, "mark duplicate", reviewer, notes)
}

// MarkNotDuplicate transitions a pending candidate to not_duplicate. The
// determination is permanent: the detector never re-proposes the pair.
func (w *Workflow) MarkNotDuplicate(ctx context.Context, candidateID, reviewer, notes string) (*models.ClientDuplicateCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Workflow.MarkNotDuplicate")
	defer span.End()

	candidate, err := w.transition(ctx, candidateID, models.CandidateStatusNotDuplicate, models.AuditActionMarkNotDuplicate, "mark not duplicate", reviewer, notes)
	if err != nil {
		return nil, err
	}

	if w.emitter != nil {
		if err := w.emitter.EmitCandidateNotDuplicate(ctx, candidate); err != nil {
			w.log.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"candidate_id": candidateID,
			}).Warn("Failed to emit candidate.not_duplicate event")
		}
	}

	return candidate, nil
}

func (w *Workflow) transition(ctx context.Context, candidateID string, toStatus models.CandidateStatus, action models.AuditAction, actionName, reviewer, notes string) (*models.ClientDuplicateCandidate, error) {
	candidate, err := w.candidateRepo.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	if candidate.Status != models.CandidateStatusPending {
		return nil, &models.InvalidTransitionError{From: candidate.Status, Action: actionName}
	}

	updated, err := w.candidateRepo.UpdateReview(ctx, candidateID, models.CandidateStatusPending, toStatus, reviewer, notes)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Lost a race with another reviewer
		return nil, &models.InvalidTransitionError{From: candidate.Status, Action: actionName}
	}

	w.auditor.Record(ctx, "client_duplicate_candidate", candidateID, action, reviewer, map[string]any{
		"from_status": models.CandidateStatusPending,
		"to_status":   toStatus,
		"notes":       notes,
	})

	w.log.WithContext(ctx).WithFields(map[string]any{
		"candidate_id": candidateID,
		"status":       toStatus,
		"reviewer":     reviewer,
	}).Info("Reviewed duplicate candidate")

	return w.candidateRepo.Get(ctx, candidateID)
}

// Merge resolves a candidate by consolidating the duplicate client into the
// primary. Valid from pending or confirmed_duplicate. The merge engine
// deletes the candidate row (and every other row touching either client), so
// no merged state is retained.
func (w *Workflow) Merge(ctx context.Context, candidateID string, selections map[string]models.FieldSelection, reviewer, notes string) (*models.Client, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Workflow.Merge")
	defer span.End()

	candidate, err := w.candidateRepo.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	if candidate.Status != models.CandidateStatusPending && candidate.Status != models.CandidateStatusConfirmed {
		return nil, &models.InvalidTransitionError{From: candidate.Status, Action: "merge"}
	}

	return w.merger.Merge(ctx, candidate.PrimaryClientID, candidate.DuplicateClientID, selections, reviewer, notes)
}

// GetDuplicateGroup walks candidate rows outward from the given candidate's
// pair until the connected set of clients stops growing.
func (w *Workflow) GetDuplicateGroup(ctx context.Context, candidateID string) (*DuplicateGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Workflow.GetDuplicateGroup")
	defer span.End()

	candidate, err := w.candidateRepo.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	clientIDs := map[string]bool{
		candidate.PrimaryClientID:   true,
		candidate.DuplicateClientID: true,
	}
	candidatesByID := map[string]models.ClientDuplicateCandidate{}

	frontier := []string{candidate.PrimaryClientID, candidate.DuplicateClientID}
	for len(frontier) > 0 {
		rows, err := w.candidateRepo.ListByClients(ctx, frontier)
		if err != nil {
			return nil, err
		}

		frontier = frontier[:0]
		for _, row := range rows {
			candidatesByID[row.ID] = row
			for _, id := range []string{row.PrimaryClientID, row.DuplicateClientID} {
				if !clientIDs[id] {
					clientIDs[id] = true
					frontier = append(frontier, id)
				}
			}
		}
	}

	group := &DuplicateGroup{}
	for id := range clientIDs {
		member, err := w.clientRepo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		group.Clients = append(group.Clients, *member)
	}
	for _, row := range candidatesByID {
		group.Candidates = append(group.Candidates, row)
	}

	sort.Slice(group.Clients, func(i, j int) bool {
		return group.Clients[i].ID < group.Clients[j].ID
	})
	sort.Slice(group.Candidates, func(i, j int) bool {
		return group.Candidates[i].SimilarityScore > group.Candidates[j].SimilarityScore
	})

	return group, nil
}
