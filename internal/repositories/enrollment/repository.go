package enrollment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

const columns = "id, client_id, program_id, start_date, end_date, status, notes, is_archived, archived_at, updated_by, created_at, updated_at"

// Repository handles program enrollment persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new enrollment repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new enrollment
func (r *Repository) Create(ctx context.Context, enrollment *models.ClientProgramEnrollment) (*models.ClientProgramEnrollment, error) {
	ctx, span := tracing.StartSpan(ctx, "enrollment.Repository.Create")
	defer span.End()

	if enrollment.ID == "" {
		enrollment.ID = uuid.New().String()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	enrollment.CreatedAt = time.Now().UTC()
	enrollment.UpdatedAt = enrollment.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("client_program_enrollments")
	sb.Cols("id", "client_id", "program_id", "start_date", "end_date", "status", "notes", "is_archived", "updated_by", "created_at", "updated_at")
	sb.Values(enrollment.ID, enrollment.ClientID, enrollment.ProgramID, enrollment.StartDate, enrollment.EndDate, enrollment.Status, enrollment.Notes, enrollment.IsArchived, enrollment.UpdatedBy, enrollment.CreatedAt, enrollment.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"enrollment_id": enrollment.ID}).Error("Failed to create enrollment")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create enrollment")
	}

	return enrollment, nil
}

// ListActive retrieves non-archived enrollments, optionally filtered by
// client and program, ordered by start date so clustering is deterministic.
func (r *Repository) ListActive(ctx context.Context, clientID, programID string) ([]models.ClientProgramEnrollment, error) {
	ctx, span := tracing.StartSpan(ctx, "enrollment.Repository.ListActive")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("client_program_enrollments")
	where := []string{sb.Equal("is_archived", false)}
	if clientID != "" {
		where = append(where, sb.Equal("client_id", clientID))
	}
	if programID != "" {
		where = append(where, sb.Equal("program_id", programID))
	}
	sb.Where(where...)
	sb.OrderBy("client_id", "program_id", "start_date ASC", "created_at ASC")

	query, args := sb.Build()
	var enrollments []models.ClientProgramEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list active enrollments")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list enrollments")
	}

	return enrollments, nil
}

// ListByClient retrieves all non-archived enrollments for a client
func (r *Repository) ListByClient(ctx context.Context, clientID string) ([]models.ClientProgramEnrollment, error) {
	return r.ListActive(ctx, clientID, "")
}

// Update persists the merge-relevant fields of an enrollment
func (r *Repository) Update(ctx context.Context, enrollment *models.ClientProgramEnrollment) error {
	ctx, span := tracing.StartSpan(ctx, "enrollment.Repository.Update")
	defer span.End()

	enrollment.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("client_program_enrollments")
	sb.Set(
		sb.Assign("start_date", enrollment.StartDate),
		sb.Assign("end_date", enrollment.EndDate),
		sb.Assign("status", enrollment.Status),
		sb.Assign("notes", enrollment.Notes),
		sb.Assign("is_archived", enrollment.IsArchived),
		sb.Assign("archived_at", enrollment.ArchivedAt),
		sb.Assign("updated_by", enrollment.UpdatedBy),
		sb.Assign("updated_at", enrollment.UpdatedAt),
	)
	sb.Where(sb.Equal("id", enrollment.ID))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"enrollment_id": enrollment.ID}).Error("Failed to update enrollment")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update enrollment")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("enrollment %s not found", enrollment.ID))
	}

	return nil
}

// Archive marks enrollments as archived
func (r *Repository) Archive(ctx context.Context, ids []string, updatedBy string) error {
	ctx, span := tracing.StartSpan(ctx, "enrollment.Repository.Archive")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}

	idArgs := make([]any, len(ids))
	for i, id := range ids {
		idArgs[i] = id
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("client_program_enrollments")
	sb.Set(
		sb.Assign("is_archived", true),
		sb.Assign("archived_at", now),
		sb.Assign("updated_by", updatedBy),
		sb.Assign("updated_at", now),
	)
	sb.Where(sb.In("id", idArgs...))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"count": len(ids)}).Error("Failed to archive enrollments")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to archive enrollments")
	}

	return nil
}

// Reassign moves a client's enrollments to another client during a merge.
// Duplicate-owned enrollments whose range overlaps an enrollment the
// surviving client already holds for the same program are deleted instead of
// moved; the survivor's row wins. Returns (moved, deleted) counts.
func (r *Repository) Reassign(ctx context.Context, fromClientID, toClientID string) (int64, int64, error) {
	ctx, span := tracing.StartSpan(ctx, "enrollment.Repository.Reassign")
	defer span.End()

	deleteQuery := `
		DELETE FROM client_program_enrollments AS dup
		WHERE dup.client_id = $1
		AND EXISTS (
			SELECT 1 FROM client_program_enrollments AS surv
			WHERE surv.client_id = $2
			AND surv.program_id = dup.program_id
			AND surv.start_date <= COALESCE(dup.end_date, 'infinity'::date)
			AND dup.start_date <= COALESCE(surv.end_date, 'infinity'::date)
		)
	`

	deleteResult, err := r.db.ExecContext(ctx, deleteQuery, fromClientID, toClientID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete conflicting enrollments during reassign")
		return 0, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign enrollments")
	}
	deleted, _ := deleteResult.RowsAffected()

	moveResult, err := r.db.ExecContext(ctx,
		"UPDATE client_program_enrollments SET client_id = $1, updated_at = $2 WHERE client_id = $3",
		toClientID, time.Now().UTC(), fromClientID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reassign enrollments")
		return 0, deleted, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign enrollments")
	}
	moved, _ := moveResult.RowsAffected()

	return moved, deleted, nil
}
