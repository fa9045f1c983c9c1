package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"congregate/internal/domain"
)

func TestAuditSink_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(sqlmock.AnyArg(), "rsvp.promoted", "reg-1", "u1", "t1", []byte(`{"status":"going"}`), at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sink := NewAuditSink(db)
	err = sink.Record(context.Background(), domain.AuditEntry{
		Action:   "rsvp.promoted",
		EntityID: "reg-1",
		ActorID:  "u1",
		TenantID: "t1",
		Changes:  map[string]any{"status": "going"},
		At:       at,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
