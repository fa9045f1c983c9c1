package domain

import (
	"context"
	"time"
)

// RegistrationStatus is a registration's lifecycle state. Cancelled rows are
// kept as history; only going and waitlist rows count as "live".
type RegistrationStatus string

const (
	StatusGoing     RegistrationStatus = "going"
	StatusWaitlist  RegistrationStatus = "waitlist"
	StatusCancelled RegistrationStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case StatusGoing, StatusWaitlist, StatusCancelled:
		return true
	}
	return false
}

// Live reports whether s counts against invariant checks (at most one live
// row per event and user; going rows count against capacity).
func (s RegistrationStatus) Live() bool {
	return s == StatusGoing || s == StatusWaitlist
}

// CanTransition reports whether moving from s to next is a legal transition.
// waitlist -> going is legal but reserved for the promoter; user-facing code
// must reject it with ErrInvalidTransition before reaching here.
func (s RegistrationStatus) CanTransition(next RegistrationStatus) bool {
	switch s {
	case StatusGoing:
		return next == StatusCancelled
	case StatusWaitlist:
		return next == StatusCancelled || next == StatusGoing
	case StatusCancelled:
		// A cancelled row never transitions; re-registering starts a new row.
		return false
	}
	return false
}

// Registration is a user's registration for an event. Rows are never hard
// deleted; cancellation is a terminal status that preserves history and
// permits a fresh registration cycle for the same user.
// swagger:model Registration
type Registration struct {
	ID      string             `json:"id"`
	EventID string             `json:"eventId"`
	UserID  string             `json:"userId"`
	Status  RegistrationStatus `json:"status"`
	// Seq is a monotonic insertion sequence; it breaks registered-at ties so
	// waitlist promotion order is total and stable.
	Seq          int64      `json:"-"`
	RegisteredAt time.Time  `json:"registeredAt"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`
	HasPaid      bool       `json:"hasPaid"`
}

// EventCounts are the live registration counts for one event.
// swagger:model EventCounts
type EventCounts struct {
	Going    int `json:"going"`
	Waitlist int `json:"waitlist"`
}

// RegistrationRepository defines storage for registrations. Enroll and
// CancelAndPromote are the only mutation paths; both run as single
// transactions that lock the event row, so the per-event going count can
// never exceed capacity and promotion order is exact.
type RegistrationRepository interface {
	// Enroll atomically checks for a live row, recomputes the going count,
	// and inserts a going or waitlist registration. Returns
	// ErrAlreadyRegistered when a live row exists, ErrNotFound when the event
	// does not exist, and ErrEnrollmentContention on a serialization
	// conflict (callers retry).
	Enroll(ctx context.Context, eventID, userID string, at time.Time) (*Registration, error)

	// CancelAndPromote atomically cancels the user's live registration and,
	// when the cancelled row was going, promotes the earliest waitlisted
	// registration for the event. Returns the cancelled row and the promoted
	// row (nil when nothing was promoted). Returns ErrNotRegistered when no
	// live row exists.
	CancelAndPromote(ctx context.Context, eventID, userID string, at time.Time) (cancelled, promoted *Registration, err error)

	// GetLiveByEventAndUser returns the user's live registration for the
	// event, or ErrNotFound.
	GetLiveByEventAndUser(ctx context.Context, eventID, userID string) (*Registration, error)

	// Counts returns the live going/waitlist counts for the event.
	Counts(ctx context.Context, eventID string) (EventCounts, error)

	// ListLiveByEvent returns the event's live registrations ordered by
	// registered_at then insertion sequence.
	ListLiveByEvent(ctx context.Context, eventID string) ([]*Registration, error)
}

// EnrollResult reports the outcome of an enrollment: the created registration
// and whether the caller got a seat or joined the waitlist.
type EnrollResult struct {
	Registration *Registration
	Waitlisted   bool
}

// CancelResult reports a cancellation and the promotion it triggered, if any.
type CancelResult struct {
	Cancelled *Registration
	Promoted  *Registration
}

// RSVPService is the single entry point for registration state changes. All
// mutation paths, including bulk sync, funnel through it.
type RSVPService interface {
	// Enroll registers the principal for the event, seating them if capacity
	// allows and waitlisting otherwise.
	Enroll(ctx context.Context, p Principal, eventID string) (*EnrollResult, error)
	// Cancel cancels the principal's live registration and promotes the
	// earliest waitlisted user when a seat was freed.
	Cancel(ctx context.Context, p Principal, eventID string) (*CancelResult, error)
	// Get returns the principal's live registration for the event.
	Get(ctx context.Context, p Principal, eventID string) (*Registration, error)
	// Attendees returns live counts and attendee rows for reporting. It
	// never mutates state.
	Attendees(ctx context.Context, p Principal, eventID string) (*AttendeeReport, error)
}

// AttendeeReport is the read-only reporting view of an event's registrations.
// swagger:model AttendeeReport
type AttendeeReport struct {
	EventID  string          `json:"eventId"`
	Counts   EventCounts     `json:"counts"`
	Going    []*Registration `json:"going"`
	Waitlist []*Registration `json:"waitlist"`
}
