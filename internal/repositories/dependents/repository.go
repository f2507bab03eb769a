// Package dependents rewrites client references on the entities that hang off
// a client record: intakes, discharges, service restrictions, and staff
// assignments. The merge engine calls these during a merge cascade.
package dependents

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Repository reassigns dependent rows between clients
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new dependents repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ReassignIntakes moves intake rows to another client
func (r *Repository) ReassignIntakes(ctx context.Context, fromClientID, toClientID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "dependents.Repository.ReassignIntakes")
	defer span.End()

	return r.reassign(ctx, "client_intakes", fromClientID, toClientID)
}

// ReassignDischarges moves discharge rows to another client
func (r *Repository) ReassignDischarges(ctx context.Context, fromClientID, toClientID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "dependents.Repository.ReassignDischarges")
	defer span.End()

	return r.reassign(ctx, "client_discharges", fromClientID, toClientID)
}

// ReassignServiceRestrictions moves restriction rows to another client
func (r *Repository) ReassignServiceRestrictions(ctx context.Context, fromClientID, toClientID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "dependents.Repository.ReassignServiceRestrictions")
	defer span.End()

	return r.reassign(ctx, "service_restrictions", fromClientID, toClientID)
}

// ReassignStaffAssignments moves staff caseload rows to another client. A
// staff member already assigned to the surviving client keeps that single
// assignment; the duplicate-owned row is deleted rather than duplicated.
func (r *Repository) ReassignStaffAssignments(ctx context.Context, fromClientID, toClientID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "dependents.Repository.ReassignStaffAssignments")
	defer span.End()

	deleteQuery := `
		DELETE FROM staff_client_assignments AS dup
		WHERE dup.client_id = $1
		AND EXISTS (
			SELECT 1 FROM staff_client_assignments AS surv
			WHERE surv.client_id = $2
			AND surv.staff_id = dup.staff_id
		)
	`
	if _, err := r.db.ExecContext(ctx, deleteQuery, fromClientID, toClientID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete conflicting staff assignments during reassign")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign staff assignments")
	}

	return r.reassign(ctx, "staff_client_assignments", fromClientID, toClientID)
}

func (r *Repository) reassign(ctx context.Context, table, fromClientID, toClientID string) (int64, error) {
	query := "UPDATE " + table + " SET client_id = $1, updated_at = $2 WHERE client_id = $3"

	result, err := r.db.ExecContext(ctx, query, toClientID, time.Now().UTC(), fromClientID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"table":          table,
			"from_client_id": fromClientID,
			"to_client_id":   toClientID,
		}).Error("Failed to reassign dependent rows")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign "+table)
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}
