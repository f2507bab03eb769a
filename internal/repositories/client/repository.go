package client

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

const columns = "id, first_name, last_name, email, phone, date_of_birth, client_id, source, legacy_client_ids, secondary_source_id, is_inactive, updated_by, created_at, updated_at"

// Repository handles client persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new client repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new client
func (r *Repository) Create(ctx context.Context, client *models.Client) (*models.Client, error) {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.Create")
	defer span.End()

	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	client.CreatedAt = time.Now().UTC()
	client.UpdatedAt = client.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("clients")
	sb.Cols("id", "first_name", "last_name", "email", "phone", "date_of_birth", "client_id", "source", "legacy_client_ids", "secondary_source_id", "is_inactive", "updated_by", "created_at", "updated_at")
	sb.Values(client.ID, client.FirstName, client.LastName, client.Email, client.Phone, client.DateOfBirth, client.ClientID, client.Source, client.LegacyClientIDs, client.SecondarySourceID, client.IsInactive, client.UpdatedBy, client.CreatedAt, client.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"client_id": client.ID}).Error("Failed to create client")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create client")
	}

	return client, nil
}

// Get retrieves a client by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Client, error) {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.Get")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM clients WHERE id = $1", columns)

	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("client %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get client")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get client")
	}

	return &client, nil
}

// GetForUpdate retrieves a client by ID with a row lock, so concurrent merges
// of the same pair serialize instead of double-merging. Returns nil without
// error when the row does not exist.
func (r *Repository) GetForUpdate(ctx context.Context, id string) (*models.Client, error) {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.GetForUpdate")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM clients WHERE id = $1 FOR UPDATE", columns)

	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to lock client row")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get client")
	}

	return &client, nil
}

// GetByExternalID retrieves a client by its external system key and source
func (r *Repository) GetByExternalID(ctx context.Context, source models.SourceSystem, externalID string) (*models.Client, error) {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.GetByExternalID")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM clients WHERE source = $1 AND client_id = $2", columns)

	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, source, externalID); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get client by external id")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get client")
	}

	return &client, nil
}

// ListPool retrieves the candidate pool for duplicate detection: every client
// except the one being compared, oldest first so detection order is stable.
func (r *Repository) ListPool(ctx context.Context, excludeID string) ([]models.Client, error) {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.ListPool")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("clients")
	if excludeID != "" {
		sb.Where(sb.NotEqual("id", excludeID))
	}
	sb.OrderBy("created_at ASC", "id ASC")

	query, args := sb.Build()
	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list candidate pool")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list clients")
	}

	return clients, nil
}

// Update persists changes to a client
func (r *Repository) Update(ctx context.Context, client *models.Client) error {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.Update")
	defer span.End()

	client.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("clients")
	sb.Set(
		sb.Assign("first_name", client.FirstName),
		sb.Assign("last_name", client.LastName),
		sb.Assign("email", client.Email),
		sb.Assign("phone", client.Phone),
		sb.Assign("date_of_birth", client.DateOfBirth),
		sb.Assign("client_id", client.ClientID),
		sb.Assign("source", client.Source),
		sb.Assign("legacy_client_ids", client.LegacyClientIDs),
		sb.Assign("secondary_source_id", client.SecondarySourceID),
		sb.Assign("is_inactive", client.IsInactive),
		sb.Assign("updated_by", client.UpdatedBy),
		sb.Assign("updated_at", client.UpdatedAt),
	)
	sb.Where(sb.Equal("id", client.ID))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"client_id": client.ID}).Error("Failed to update client")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update client")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("client %s not found", client.ID))
	}

	return nil
}

// UpdateInactive flips the client's inactive flag
func (r *Repository) UpdateInactive(ctx context.Context, id string, isInactive bool, updatedBy string) error {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.UpdateInactive")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("clients")
	sb.Set(
		sb.Assign("is_inactive", isInactive),
		sb.Assign("updated_by", updatedBy),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"client_id": id}).Error("Failed to update client inactive flag")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update client")
	}

	return nil
}

// Delete removes a client row. Dependent rows must already be reassigned.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.Delete")
	defer span.End()

	result, err := r.db.ExecContext(ctx, "DELETE FROM clients WHERE id = $1", id)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"client_id": id}).Error("Failed to delete client")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete client")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("client %s not found", id))
	}

	return nil
}
