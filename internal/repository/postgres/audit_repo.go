package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"congregate/internal/domain"
)

type auditRepository struct {
	DB *sql.DB
}

// NewAuditSink creates a Postgres-backed audit sink. Entries are written
// after the primary transaction commits; callers log and swallow failures.
func NewAuditSink(db *sql.DB) domain.AuditSink {
	return &auditRepository{DB: db}
}

func (r *auditRepository) Record(ctx context.Context, entry domain.AuditEntry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("marshal audit changes: %w", err)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO audit_log (id, action, entity_id, actor_id, tenant_id, changes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Action, entry.EntityID, entry.ActorID, entry.TenantID, changes, entry.At,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
