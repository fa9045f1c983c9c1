package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"congregate/internal/domain"
)

func TestIdempotencyRepository_Get(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("unexpired record", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT endpoint, user_id, client_token, result`).
			WithArgs("sync.events.rsvp.bulk", "u1", "x1").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "user_id", "client_token", "result", "created_at", "expires_at"}).
				AddRow("sync.events.rsvp.bulk", "u1", "x1", []byte(`{"action":"created"}`), now, now.Add(72*time.Hour)))

		repo := NewIdempotencyRepository(db)
		rec, err := repo.Get(ctx, "sync.events.rsvp.bulk", "u1", "x1")
		require.NoError(t, err)
		require.JSONEq(t, `{"action":"created"}`, string(rec.Result))
	})

	t.Run("missing or expired record", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT endpoint, user_id, client_token`).
			WithArgs("sync.events.rsvp.bulk", "u1", "x2").
			WillReturnError(sql.ErrNoRows)

		repo := NewIdempotencyRepository(db)
		_, err = repo.Get(ctx, "sync.events.rsvp.bulk", "u1", "x2")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestIdempotencyRepository_Put(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := &domain.IdempotencyRecord{
		Endpoint:    "sync.events.rsvp.bulk",
		UserID:      "u1",
		ClientToken: "x1",
		Result:      []byte(`{"action":"created"}`),
		CreatedAt:   now,
		ExpiresAt:   now.Add(72 * time.Hour),
	}

	mock.ExpectExec(`INSERT INTO idempotency_records`).
		WithArgs(rec.Endpoint, rec.UserID, rec.ClientToken, []byte(rec.Result), rec.CreatedAt, rec.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewIdempotencyRepository(db)
	require.NoError(t, repo.Put(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepository_PurgeExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	before := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM idempotency_records WHERE expires_at < \$1`).
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 7))

	repo := NewIdempotencyRepository(db)
	n, err := repo.PurgeExpired(context.Background(), before)
	require.NoError(t, err)
	require.Equal(t, int64(7), n)
}
