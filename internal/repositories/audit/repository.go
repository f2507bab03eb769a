package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Recorder appends audit_log rows. Writes are fire-and-forget: failures are
// logged and swallowed so an audit problem never aborts a reconciliation
// transaction.
type Recorder struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRecorder creates a new audit recorder
func NewRecorder(db database.DB, logger ectologger.Logger) *Recorder {
	return &Recorder{
		db:     db,
		logger: logger,
	}
}

// Record appends one audit entry. Never returns an error.
func (r *Recorder) Record(ctx context.Context, entityType, entityID string, action models.AuditAction, actor string, diff any) {
	ctx, span := tracing.StartSpan(ctx, "audit.Recorder.Record")
	defer span.End()

	var diffJSON json.RawMessage
	if diff != nil {
		data, err := json.Marshal(diff)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Warn("Failed to encode audit diff")
		} else {
			diffJSON = data
		}
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("audit_log")
	sb.Cols("id", "entity_type", "entity_id", "action", "actor", "diff", "created_at")
	sb.Values(uuid.New().String(), entityType, entityID, action, actor, diffJSON, time.Now().UTC())

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"entity_type": entityType,
			"entity_id":   entityID,
			"action":      action,
		}).Warn("Failed to write audit entry")
	}
}
