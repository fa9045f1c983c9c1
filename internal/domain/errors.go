package domain

import "errors"

// Sentinel errors shared across services, repositories, and delivery.
var (
	// ErrNotFound is returned when a resource does not exist. Visibility
	// denials are also surfaced as ErrNotFound so callers cannot probe for
	// events in other tenants or churches.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a request is structurally invalid
	// (malformed intent, oversized batch, bad status value).
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyRegistered is returned when the user already holds a live
	// (going or waitlisted) registration for the event.
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrNotRegistered is returned when a cancel is attempted and no live
	// registration exists.
	ErrNotRegistered = errors.New("not registered")

	// ErrInvalidTransition is returned for state changes only the system may
	// perform, such as a client asking to move waitlist -> going directly.
	ErrInvalidTransition = errors.New("invalid registration transition")

	// ErrEnrollmentContention is returned after bounded retries when
	// concurrent enrollment transactions keep conflicting. Callers may retry.
	ErrEnrollmentContention = errors.New("enrollment contention, retry later")

	// ErrConflict is returned by bulk sync under the fail-on-conflict policy
	// when a live registration already exists for the intent's event.
	ErrConflict = errors.New("conflicting live registration")
)
