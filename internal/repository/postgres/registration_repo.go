package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"congregate/internal/domain"
)

// Postgres error codes translated to domain.ErrEnrollmentContention so the
// service layer can retry the whole transaction.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqUniqueViolation      = "23505"
)

// retryable reports whether err is a serialization or deadlock failure.
func retryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == pqSerializationFailure || string(pqErr.Code) == pqDeadlockDetected
}

// uniqueViolation reports whether err is a unique constraint violation. The
// live-registration partial unique index turns a racing double enroll into
// this error instead of a second live row.
func uniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

type registrationRepository struct {
	DB *sql.DB
}

// NewRegistrationRepository creates the registration store. It expects the
// event_registrations table with a bigserial seq column and a partial unique
// index on (event_id, user_id) WHERE status IN ('going','waitlist').
func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{DB: db}
}

// Enroll performs the capacity check and insert in one transaction. The
// event row is locked first (SELECT ... FOR UPDATE), which serializes all
// concurrent enrollments and cancellations for the same event, so the going
// count read below cannot go stale before the insert commits.
func (r *registrationRepository) Enroll(ctx context.Context, eventID, userID string, at time.Time) (reg *domain.Registration, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enroll tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			if retryable(err) {
				err = fmt.Errorf("%w: %s", domain.ErrEnrollmentContention, err)
			}
		}
	}()

	var capacity sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT capacity FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	var liveExists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM event_registrations
			WHERE event_id = $1 AND user_id = $2 AND status IN ('going', 'waitlist')
		)`,
		eventID, userID,
	).Scan(&liveExists)
	if err != nil {
		return nil, fmt.Errorf("check live registration: %w", err)
	}
	if liveExists {
		return nil, domain.ErrAlreadyRegistered
	}

	// The going count is always recomputed from rows inside the transaction;
	// there is no cached seats-remaining counter to drift.
	var goingCount int64
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND status = 'going'`,
		eventID,
	).Scan(&goingCount)
	if err != nil {
		return nil, fmt.Errorf("count going registrations: %w", err)
	}

	status := domain.StatusGoing
	if capacity.Valid && goingCount >= capacity.Int64 {
		status = domain.StatusWaitlist
	}

	reg = &domain.Registration{
		EventID:      eventID,
		UserID:       userID,
		Status:       status,
		RegisteredAt: at,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO event_registrations (event_id, user_id, status, registered_at, has_paid)
		 VALUES ($1, $2, $3, $4, FALSE)
		 RETURNING id, seq`,
		eventID, userID, string(status), at,
	).Scan(&reg.ID, &reg.Seq)
	if err != nil {
		if uniqueViolation(err) {
			return nil, domain.ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enroll tx: %w", err)
	}
	return reg, nil
}

// CancelAndPromote cancels the caller's live registration and, when a going
// seat was freed, promotes the earliest waitlisted registration in the same
// transaction. Promotion needs no capacity re-check: the seat it takes is the
// one just vacated.
func (r *registrationRepository) CancelAndPromote(ctx context.Context, eventID, userID string, at time.Time) (cancelled, promoted *domain.Registration, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin cancel tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			if retryable(err) {
				err = fmt.Errorf("%w: %s", domain.ErrEnrollmentContention, err)
			}
		}
	}()

	// Same lock order as Enroll: event row first.
	var exists string
	err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("lock event row: %w", err)
	}

	cancelled = &domain.Registration{EventID: eventID, UserID: userID}
	err = tx.QueryRowContext(ctx,
		`SELECT id, status, seq, registered_at, has_paid
		 FROM event_registrations
		 WHERE event_id = $1 AND user_id = $2 AND status IN ('going', 'waitlist')
		 FOR UPDATE`,
		eventID, userID,
	).Scan(&cancelled.ID, &cancelled.Status, &cancelled.Seq, &cancelled.RegisteredAt, &cancelled.HasPaid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.ErrNotRegistered
		}
		return nil, nil, fmt.Errorf("lock live registration: %w", err)
	}

	priorStatus := cancelled.Status
	_, err = tx.ExecContext(ctx,
		`UPDATE event_registrations SET status = 'cancelled', cancelled_at = $2 WHERE id = $1`,
		cancelled.ID, at,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("cancel registration: %w", err)
	}
	cancelled.Status = domain.StatusCancelled
	cancelled.CancelledAt = &at

	// Only a vacated going seat triggers promotion; cancelling a waitlist
	// row frees nothing.
	if priorStatus == domain.StatusGoing {
		next := &domain.Registration{EventID: eventID, Status: domain.StatusWaitlist}
		err = tx.QueryRowContext(ctx,
			`SELECT id, user_id, seq, registered_at, has_paid
			 FROM event_registrations
			 WHERE event_id = $1 AND status = 'waitlist'
			 ORDER BY registered_at ASC, seq ASC
			 LIMIT 1
			 FOR UPDATE`,
			eventID,
		).Scan(&next.ID, &next.UserID, &next.Seq, &next.RegisteredAt, &next.HasPaid)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			err = nil
		case err != nil:
			return nil, nil, fmt.Errorf("select earliest waitlisted: %w", err)
		default:
			if _, err = tx.ExecContext(ctx,
				`UPDATE event_registrations SET status = 'going' WHERE id = $1`,
				next.ID,
			); err != nil {
				return nil, nil, fmt.Errorf("promote registration: %w", err)
			}
			next.Status = domain.StatusGoing
			promoted = next
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit cancel tx: %w", err)
	}
	return cancelled, promoted, nil
}

// scanRegistration scans a full registration row, mapping the nullable
// cancelled_at column.
func scanRegistration(row interface{ Scan(...any) error }) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var status string
	var cancelledNull sql.NullTime
	if err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &status, &reg.Seq, &reg.RegisteredAt, &cancelledNull, &reg.HasPaid); err != nil {
		return nil, err
	}
	reg.Status = domain.RegistrationStatus(status)
	if cancelledNull.Valid {
		reg.CancelledAt = &cancelledNull.Time
	}
	return reg, nil
}

func (r *registrationRepository) GetLiveByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, event_id, user_id, status, seq, registered_at, cancelled_at, has_paid
		 FROM event_registrations
		 WHERE event_id = $1 AND user_id = $2 AND status IN ('going', 'waitlist')`,
		eventID, userID,
	)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) Counts(ctx context.Context, eventID string) (domain.EventCounts, error) {
	var counts domain.EventCounts
	err := r.DB.QueryRowContext(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE status = 'going'),
			COUNT(*) FILTER (WHERE status = 'waitlist')
		 FROM event_registrations
		 WHERE event_id = $1`,
		eventID,
	).Scan(&counts.Going, &counts.Waitlist)
	if err != nil {
		return domain.EventCounts{}, err
	}
	return counts, nil
}

func (r *registrationRepository) ListLiveByEvent(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, event_id, user_id, status, seq, registered_at, cancelled_at, has_paid
		 FROM event_registrations
		 WHERE event_id = $1 AND status IN ('going', 'waitlist')
		 ORDER BY registered_at ASC, seq ASC`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]*domain.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
