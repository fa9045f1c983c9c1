package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"congregate/internal/domain"
)

type idempotencyRepository struct {
	DB *sql.DB
}

// NewIdempotencyRepository creates the idempotency record store keyed by
// (endpoint, user_id, client_token).
func NewIdempotencyRepository(db *sql.DB) domain.IdempotencyRepository {
	return &idempotencyRepository{DB: db}
}

func (r *idempotencyRepository) Get(ctx context.Context, endpoint, userID, clientToken string) (*domain.IdempotencyRecord, error) {
	query := `
		SELECT endpoint, user_id, client_token, result, created_at, expires_at
		FROM idempotency_records
		WHERE endpoint = $1 AND user_id = $2 AND client_token = $3 AND expires_at > NOW()
	`
	rec := &domain.IdempotencyRecord{}
	err := r.DB.QueryRowContext(ctx, query, endpoint, userID, clientToken).Scan(
		&rec.Endpoint, &rec.UserID, &rec.ClientToken, &rec.Result, &rec.CreatedAt, &rec.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Put stores the record. ON CONFLICT DO NOTHING keeps the first stored result
// authoritative when the same token races in twice.
func (r *idempotencyRepository) Put(ctx context.Context, rec *domain.IdempotencyRecord) error {
	query := `
		INSERT INTO idempotency_records (endpoint, user_id, client_token, result, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (endpoint, user_id, client_token) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query,
		rec.Endpoint, rec.UserID, rec.ClientToken, []byte(rec.Result), rec.CreatedAt, rec.ExpiresAt,
	)
	return err
}

func (r *idempotencyRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM idempotency_records WHERE expires_at < $1`,
		before,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
