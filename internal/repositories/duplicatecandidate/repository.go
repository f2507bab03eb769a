package duplicatecandidate

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

const columns = "id, primary_client_id, duplicate_client_id, similarity_score, match_type, confidence_level, status, detection_source, reviewed_by, reviewed_at, review_notes, created_at, updated_at"

// Repository handles duplicate candidate persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new duplicate candidate repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a candidate row for an ordered (primary, duplicate) pair.
// Creation is idempotent: if any row already exists for the pair, including a
// not_duplicate suppression, the insert is a no-op and the existing row wins.
// Returns true when a new row was inserted.
func (r *Repository) Create(ctx context.Context, candidate *models.ClientDuplicateCandidate) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate.Repository.Create")
	defer span.End()

	if candidate.ID == "" {
		candidate.ID = uuid.New().String()
	}
	if candidate.Status == "" {
		candidate.Status = models.CandidateStatusPending
	}
	candidate.CreatedAt = time.Now().UTC()
	candidate.UpdatedAt = candidate.CreatedAt

	sb := database.NewInsertBuilder().
		InsertInto("client_duplicate_candidates").
		Cols("id", "primary_client_id", "duplicate_client_id", "similarity_score", "match_type", "confidence_level", "status", "detection_source", "created_at", "updated_at").
		Values(candidate.ID, candidate.PrimaryClientID, candidate.DuplicateClientID, candidate.SimilarityScore, candidate.MatchType, candidate.ConfidenceLevel, candidate.Status, candidate.DetectionSource, candidate.CreatedAt, candidate.UpdatedAt).
		OnConflictDoNothing("primary_client_id", "duplicate_client_id")

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"primary_client_id":   candidate.PrimaryClientID,
			"duplicate_client_id": candidate.DuplicateClientID,
		}).Error("Failed to create duplicate candidate")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create duplicate candidate")
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// Get retrieves a candidate by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.ClientDuplicateCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate.Repository.Get")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM client_duplicate_candidates WHERE id = $1", columns)

	var candidate models.ClientDuplicateCandidate
	if err := r.db.GetContext(ctx, &candidate, query, id); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("duplicate candidate %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get duplicate candidate")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get duplicate candidate")
	}

	return &candidate, nil
}

// GetByPair retrieves the candidate row for an ordered pair. Returns nil
// without error when no row exists.
func (r *Repository) GetByPair(ctx context.Context, primaryID, duplicateID string) (*models.ClientDuplicateCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate.Repository.GetByPair")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM client_duplicate_candidates WHERE primary_client_id = $1 AND duplicate_client_id = $2", columns)

	var candidate models.ClientDuplicateCandidate
	if err := r.db.GetContext(ctx, &candidate, query, primaryID, duplicateID); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get duplicate candidate by pair")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get duplicate candidate")
	}

	return &candidate, nil
}

// ListByClient retrieves candidates involving a client on either side,
// optionally filtered by status
func (r *Repository) ListByClient(ctx context.Context, clientID string, status models.CandidateStatus) ([]models.ClientDuplicateCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate.Repository.ListByClient")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("client_duplicate_candidates")
	where := []string{
		sb.Or(sb.Equal("primary_client_id", clientID), sb.Equal("duplicate_client_id", clientID)),
	}
	if status != "" {
		where = append(where, sb.Equal("status", status))
	}
	sb.Where(where...)
	sb.OrderBy("similarity_score DESC", "created_at DESC")

	query, args := sb.Build()
	var candidates []models.ClientDuplicateCandidate
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list duplicate candidates by client")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list duplicate candidates")
	}

	return candidates, nil
}

// ListByClients retrieves candidates where either side is in the given set.
// Used to walk the duplicate group closure.
func (r *Repository) ListByClients(ctx context.Context, clientIDs []string) ([]models.ClientDuplicateCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate.Repository.ListByClients")
	defer span.End()

	if len(clientIDs) == 0 {
		return nil, nil
	}

	ids := make([]any, len(clientIDs))
	for i, id := range clientIDs {
		ids[i] = id
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("client_duplicate_candidates")
	sb.Where(sb.Or(sb.In("primary_client_id", ids...), sb.In("duplicate_client_id", ids...)))

	query, args := sb.Build()
	var candidates []models.ClientDuplicateCandidate
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list duplicate candidates by client set")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list duplicate candidates")
	}

	return candidates, nil
}

// UpdateReview applies a review decision, guarded by the expected current
// status so concurrent reviews cannot clobber each other. Returns false when
// no row matched the (id, fromStatus) pair.
func (r *Repository) UpdateReview(ctx context.Context, id string, fromStatus, toStatus models.CandidateStatus, reviewer, notes string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate.Repository.UpdateReview")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("client_duplicate_candidates")
	sb.Set(
		sb.Assign("status", toStatus),
		sb.Assign("reviewed_by", reviewer),
		sb.Assign("reviewed_at", now),
		sb.Assign("review_notes", notes),
		sb.Assign("updated_at", now),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("status", fromStatus),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"candidate_id": id}).Error("Failed to update duplicate candidate review")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update duplicate candidate")
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// DeleteByClientID removes all candidate rows involving a client on either
// side. Called during merge, when the duplicate client ceases to exist.
func (r *Repository) DeleteByClientID(ctx context.Context, clientID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatecandidate.Repository.DeleteByClientID")
	defer span.End()

	query := `
		DELETE FROM client_duplicate_candidates
		WHERE primary_client_id = $1 OR duplicate_client_id = $1
	`

	result, err := r.db.ExecContext(ctx, query, clientID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"client_id": clientID}).Error("Failed to delete duplicate candidates by client")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete duplicate candidates")
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}
