package enrollment

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/internal/repositories/audit"
	"github.com/Ramsey-B/laurel/internal/repositories/client"
	"github.com/Ramsey-B/laurel/internal/repositories/enrollment"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// EventEmitter publishes an event after a cluster merge commits
type EventEmitter interface {
	EmitEnrollmentReconciled(ctx context.Context, base *models.ClientProgramEnrollment, archivedIDs []string) error
}

// Stats accumulates the outcome of a reconciliation run
type Stats struct {
	GroupsInspected     int      `json:"groups_inspected"`
	ClustersMerged      int      `json:"clusters_merged"`
	EnrollmentsArchived int      `json:"enrollments_archived"`
	ClientStatusChanges int      `json:"client_status_changes"`
	Errors              int      `json:"errors"`
	ErrorDetails        []string `json:"error_details,omitempty"`
}

// Filter narrows a reconciliation run to one client and/or program
type Filter struct {
	ClientID  string
	ProgramID string
}

// Reconciler runs the interval merge against the store. Each cluster merge
// executes in its own scoped transaction, so one bad cluster never rolls
// back its siblings.
type Reconciler struct {
	log            ectologger.Logger
	db             database.DB
	enrollmentRepo *enrollment.Repository
	clientRepo     *client.Repository
	auditor        *audit.Recorder
	emitter        EventEmitter
	policy         Policy
}

// NewReconciler creates a reconciler
func NewReconciler(
	log ectologger.Logger,
	db database.DB,
	enrollmentRepo *enrollment.Repository,
	clientRepo *client.Repository,
	auditor *audit.Recorder,
	emitter EventEmitter,
	policy Policy,
) *Reconciler {
	return &Reconciler{
		log:            log,
		db:             db,
		enrollmentRepo: enrollmentRepo,
		clientRepo:     clientRepo,
		auditor:        auditor,
		emitter:        emitter,
		policy:         policy,
	}
}

type groupKey struct {
	clientID  string
	programID string
}

// ReconcileAll groups every non-archived enrollment matching the filter by
// (client, program), clusters each group, and merges each cluster. In dry-run
// mode the same grouping and merge computation runs for reporting, but
// nothing is written.
func (r *Reconciler) ReconcileAll(ctx context.Context, filter Filter, dryRun bool, updatedBy string) (*Stats, error) {
	ctx, span := tracing.StartSpan(ctx, "enrollment.Reconciler.ReconcileAll")
	defer span.End()

	log := r.log.WithContext(ctx).WithFields(map[string]any{
		"client_id":  filter.ClientID,
		"program_id": filter.ProgramID,
		"dry_run":    dryRun,
	})

	enrollments, err := r.enrollmentRepo.ListActive(ctx, filter.ClientID, filter.ProgramID)
	if err != nil {
		return nil, err
	}

	groups := make(map[groupKey][]models.ClientProgramEnrollment)
	var order []groupKey
	for _, e := range enrollments {
		key := groupKey{clientID: e.ClientID, programID: e.ProgramID}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], e)
	}

	stats := &Stats{}
	statusChanged := make(map[string]bool)

	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		stats.GroupsInspected++

		for _, cluster := range r.policy.GroupOverlapping(group) {
			result, err := r.reconcileCluster(ctx, key, cluster, dryRun, updatedBy)
			if err != nil {
				stats.Errors++
				detail := fmt.Sprintf("client %s program %s: %v", key.clientID, key.programID, err)
				stats.ErrorDetails = append(stats.ErrorDetails, detail)
				log.WithError(err).WithFields(map[string]any{
					"cluster_client_id":  key.clientID,
					"cluster_program_id": key.programID,
				}).Error("Failed to reconcile enrollment cluster")
				continue
			}

			stats.ClustersMerged++
			stats.EnrollmentsArchived += len(result.ArchivedIDs)
			if result.StatusChanged && !statusChanged[key.clientID] {
				statusChanged[key.clientID] = true
				stats.ClientStatusChanges++
			}
		}
	}

	log.WithFields(map[string]any{
		"groups_inspected":     stats.GroupsInspected,
		"clusters_merged":      stats.ClustersMerged,
		"enrollments_archived": stats.EnrollmentsArchived,
		"errors":               stats.Errors,
	}).Info("Enrollment reconciliation run complete")

	return stats, nil
}

type clusterOutcome struct {
	ArchivedIDs   []string
	StatusChanged bool
}

// reconcileCluster merges one cluster inside its own transaction. Dry-run
// computes the same outcome without opening one.
func (r *Reconciler) reconcileCluster(ctx context.Context, key groupKey, cluster []models.ClientProgramEnrollment, dryRun bool, updatedBy string) (*clusterOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "enrollment.Reconciler.reconcileCluster")
	defer span.End()

	result, err := MergeCluster(cluster, updatedBy)
	if err != nil {
		return nil, err
	}
	if result.Clamped {
		r.log.WithContext(ctx).WithFields(map[string]any{
			"enrollment_id": result.Base.ID,
			"start_date":    result.Base.StartDate.Format(dateLayout),
		}).Warn("Merged end date preceded start date, clamped to start")
	}

	if dryRun {
		changed, err := r.statusWouldChange(ctx, key.clientID, result)
		if err != nil {
			return nil, err
		}
		return &clusterOutcome{ArchivedIDs: result.ArchivedIDs, StatusChanged: changed}, nil
	}

	ctxTx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := r.enrollmentRepo.Update(ctxTx, &result.Base); err != nil {
		return nil, err
	}
	if err := r.enrollmentRepo.Archive(ctxTx, result.ArchivedIDs, updatedBy); err != nil {
		return nil, err
	}

	changed, err := r.recomputeClientStatus(ctxTx, key.clientID, updatedBy)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctxTx); err != nil {
		return nil, err
	}

	r.auditor.Record(ctx, "client_program_enrollment", result.Base.ID, models.AuditActionMergeEnrollments, updatedBy, map[string]any{
		"client_id":    key.clientID,
		"program_id":   key.programID,
		"archived_ids": result.ArchivedIDs,
		"start_date":   result.Base.StartDate.Format(dateLayout),
		"end_date":     formatEnd(result.Base.EndDate),
		"clamped":      result.Clamped,
	})

	if r.emitter != nil {
		if err := r.emitter.EmitEnrollmentReconciled(ctx, &result.Base, result.ArchivedIDs); err != nil {
			r.log.WithContext(ctx).WithError(err).Warn("Failed to emit enrollment.reconciled event")
		}
	}

	return &clusterOutcome{ArchivedIDs: result.ArchivedIDs, StatusChanged: changed}, nil
}

// recomputeClientStatus derives the client's inactive flag from its
// non-archived, currently-in-range enrollments and persists the flag only
// when it differs from the stored value.
func (r *Reconciler) recomputeClientStatus(ctx context.Context, clientID, updatedBy string) (bool, error) {
	owner, err := r.clientRepo.Get(ctx, clientID)
	if err != nil {
		return false, err
	}

	enrollments, err := r.enrollmentRepo.ListByClient(ctx, clientID)
	if err != nil {
		return false, err
	}

	inactive := !anyCurrent(enrollments, time.Now().UTC())
	if inactive == owner.IsInactive {
		return false, nil
	}

	if err := r.clientRepo.UpdateInactive(ctx, clientID, inactive, updatedBy); err != nil {
		return false, err
	}

	r.log.WithContext(ctx).WithFields(map[string]any{
		"client_id":   clientID,
		"is_inactive": inactive,
	}).Info("Recomputed client status after enrollment merge")

	return true, nil
}

// statusWouldChange simulates the post-merge status recompute for dry-run
// reporting: the cluster's archived members are dropped and the base's merged
// range substituted before checking for a currently-in-range enrollment.
func (r *Reconciler) statusWouldChange(ctx context.Context, clientID string, result *MergeResult) (bool, error) {
	owner, err := r.clientRepo.Get(ctx, clientID)
	if err != nil {
		return false, err
	}

	enrollments, err := r.enrollmentRepo.ListByClient(ctx, clientID)
	if err != nil {
		return false, err
	}

	archived := make(map[string]bool, len(result.ArchivedIDs))
	for _, id := range result.ArchivedIDs {
		archived[id] = true
	}

	var projected []models.ClientProgramEnrollment
	for _, e := range enrollments {
		if archived[e.ID] {
			continue
		}
		if e.ID == result.Base.ID {
			e = result.Base
		}
		projected = append(projected, e)
	}

	inactive := !anyCurrent(projected, time.Now().UTC())
	return inactive != owner.IsInactive, nil
}

func anyCurrent(enrollments []models.ClientProgramEnrollment, now time.Time) bool {
	for _, e := range enrollments {
		if !e.IsArchived && e.CoversDate(now) {
			return true
		}
	}
	return false
}

func formatEnd(end *time.Time) string {
	if end == nil {
		return ""
	}
	return end.Format(dateLayout)
}
