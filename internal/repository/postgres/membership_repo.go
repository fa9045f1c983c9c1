package postgres

import (
	"context"
	"database/sql"
	"errors"

	"congregate/internal/domain"
)

type membershipRepository struct {
	DB *sql.DB
}

// NewMembershipRepository creates the membership store used for tenant access
// resolution and notification address lookup.
func NewMembershipRepository(db *sql.DB) domain.MembershipRepository {
	return &membershipRepository{DB: db}
}

func (r *membershipRepository) ListChurchIDsByUser(ctx context.Context, tenantID, userID string) ([]string, error) {
	query := `
		SELECT local_church_id
		FROM church_memberships
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY local_church_id
	`
	rows, err := r.DB.QueryContext(ctx, query, tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *membershipRepository) GetUserEmail(ctx context.Context, userID string) (string, error) {
	var email string
	err := r.DB.QueryRowContext(ctx,
		`SELECT email FROM users WHERE id = $1`,
		userID,
	).Scan(&email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return email, nil
}
