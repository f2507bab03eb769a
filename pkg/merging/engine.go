package merging

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/internal/repositories/audit"
	"github.com/Ramsey-B/laurel/internal/repositories/client"
	"github.com/Ramsey-B/laurel/internal/repositories/dependents"
	"github.com/Ramsey-B/laurel/internal/repositories/duplicatecandidate"
	"github.com/Ramsey-B/laurel/internal/repositories/enrollment"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// ReassignHandler rewrites one dependent entity type's client references
// from the duplicate to the survivor. Handlers run in registration order;
// adding a dependent type is a one-line registration.
type ReassignHandler struct {
	Name     string
	Reassign func(ctx context.Context, fromClientID, toClientID string) (int64, error)
}

// EventEmitter publishes lifecycle events after a successful merge
type EventEmitter interface {
	EmitClientMerged(ctx context.Context, primary *models.Client, duplicateID, reviewer string) error
}

// Engine performs the client merge: field reconciliation, legacy-ID
// consolidation, dependent-entity rewrite, and deletion of the duplicate,
// all inside one scoped transaction.
type Engine struct {
	log           ectologger.Logger
	db            database.DB
	clientRepo    *client.Repository
	candidateRepo *duplicatecandidate.Repository
	auditor       *audit.Recorder
	emitter       EventEmitter
	handlers      []ReassignHandler
}

// NewEngine creates a merge engine with the standard dependent-entity
// handlers registered in cascade order.
func NewEngine(
	log ectologger.Logger,
	db database.DB,
	clientRepo *client.Repository,
	candidateRepo *duplicatecandidate.Repository,
	enrollmentRepo *enrollment.Repository,
	dependentsRepo *dependents.Repository,
	auditor *audit.Recorder,
	emitter EventEmitter,
) *Engine {
	e := &Engine{
		log:           log,
		db:            db,
		clientRepo:    clientRepo,
		candidateRepo: candidateRepo,
		auditor:       auditor,
		emitter:       emitter,
	}

	e.RegisterHandler(ReassignHandler{Name: "enrollments", Reassign: func(ctx context.Context, from, to string) (int64, error) {
		moved, _, err := enrollmentRepo.Reassign(ctx, from, to)
		return moved, err
	}})
	e.RegisterHandler(ReassignHandler{Name: "intakes", Reassign: dependentsRepo.ReassignIntakes})
	e.RegisterHandler(ReassignHandler{Name: "discharges", Reassign: dependentsRepo.ReassignDischarges})
	e.RegisterHandler(ReassignHandler{Name: "service_restrictions", Reassign: dependentsRepo.ReassignServiceRestrictions})
	e.RegisterHandler(ReassignHandler{Name: "staff_assignments", Reassign: dependentsRepo.ReassignStaffAssignments})

	return e
}

// RegisterHandler appends a reassign handler to the cascade
func (e *Engine) RegisterHandler(handler ReassignHandler) {
	e.handlers = append(e.handlers, handler)
}

// Merge consolidates the duplicate client into the primary and returns the
// updated primary. Either every step commits or none does. Returns
// models.ErrStaleCandidate without writing anything when either client
// vanished, which happens when a concurrent merge already resolved the pair.
func (e *Engine) Merge(ctx context.Context, primaryID, duplicateID string, selections map[string]models.FieldSelection, reviewer, notes string) (*models.Client, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.Merge")
	defer span.End()

	log := e.log.WithContext(ctx).WithFields(map[string]any{
		"primary_client_id":   primaryID,
		"duplicate_client_id": duplicateID,
		"reviewer":            reviewer,
	})

	ctxTx, tx, err := e.db.GetTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Row locks serialize concurrent merges of the same pair; the loser sees
	// a missing duplicate and reports a stale candidate.
	primary, err := e.clientRepo.GetForUpdate(ctxTx, primaryID)
	if err != nil {
		return nil, err
	}
	duplicate, err := e.clientRepo.GetForUpdate(ctxTx, duplicateID)
	if err != nil {
		return nil, err
	}
	if primary == nil || duplicate == nil {
		log.Warn("Merge aborted, client pair is stale")
		return nil, models.ErrStaleCandidate
	}

	if err := ApplyFieldSelections(primary, duplicate, selections); err != nil {
		return nil, err
	}
	ConsolidateLegacyIDs(primary, duplicate)

	reassigned := make(map[string]int64, len(e.handlers))
	for _, handler := range e.handlers {
		count, err := handler.Reassign(ctxTx, duplicateID, primaryID)
		if err != nil {
			log.WithError(err).Errorf("Failed to reassign %s", handler.Name)
			return nil, err
		}
		reassigned[handler.Name] = count
	}

	// The duplicate client ceases to exist, so every candidate row touching
	// either side is removed rather than kept in a terminal state.
	if _, err := e.candidateRepo.DeleteByClientID(ctxTx, duplicateID); err != nil {
		return nil, err
	}
	if _, err := e.candidateRepo.DeleteByClientID(ctxTx, primaryID); err != nil {
		return nil, err
	}

	primary.UpdatedBy = &reviewer
	if err := e.clientRepo.Update(ctxTx, primary); err != nil {
		return nil, err
	}
	if err := e.clientRepo.Delete(ctxTx, duplicateID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctxTx); err != nil {
		return nil, err
	}

	// Audit and events are post-commit: their failures never unwind a merge
	e.auditor.Record(ctx, "client", primaryID, models.AuditActionMergeClients, reviewer, map[string]any{
		"duplicate_client_id": duplicateID,
		"field_selections":    selections,
		"reassigned":          reassigned,
		"notes":               notes,
	})

	if e.emitter != nil {
		if err := e.emitter.EmitClientMerged(ctx, primary, duplicateID, reviewer); err != nil {
			log.WithError(err).Warn("Failed to emit client.merged event")
		}
	}

	log.WithFields(map[string]any{"reassigned": reassigned}).Info("Merged duplicate client")

	return primary, nil
}
