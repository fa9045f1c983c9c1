package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"congregate/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

// NewEventRepository creates the read-only event store. Events are created
// and published elsewhere; this core only looks them up.
func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{DB: db}
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, tenant_id, local_church_id, scope, capacity, visible_to_roles,
		       is_active, name, starts_at, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	e := &domain.Event{}
	var churchNull sql.NullString
	var capacityNull sql.NullInt64
	var roles pq.StringArray
	var scope string
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.TenantID, &churchNull, &scope, &capacityNull, &roles,
		&e.IsActive, &e.Name, &e.StartsAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	e.Scope = domain.EventScope(scope)
	if churchNull.Valid {
		e.LocalChurchID = &churchNull.String
	}
	if capacityNull.Valid {
		capacity := int(capacityNull.Int64)
		e.Capacity = &capacity
	}
	for _, role := range roles {
		e.VisibleToRoles = append(e.VisibleToRoles, domain.Role(role))
	}
	return e, nil
}
