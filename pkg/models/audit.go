package models

import (
	"encoding/json"
	"time"
)

// AuditAction names the operation recorded in an audit entry
type AuditAction string

const (
	AuditActionMarkDuplicate    AuditAction = "mark_duplicate"
	AuditActionMarkNotDuplicate AuditAction = "mark_not_duplicate"
	AuditActionMergeClients     AuditAction = "merge_clients"
	AuditActionMergeEnrollments AuditAction = "merge_enrollments"
)

// AuditEntry is one append-only audit_log row. Writes are fire-and-forget:
// a failed audit write is logged but never aborts the owning transaction.
type AuditEntry struct {
	ID         string          `json:"id" db:"id"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   string          `json:"entity_id" db:"entity_id"`
	Action     AuditAction     `json:"action" db:"action"`
	Actor      string          `json:"actor" db:"actor"`
	Diff       json.RawMessage `json:"diff,omitempty" db:"diff"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
