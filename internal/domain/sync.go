package domain

import (
	"context"
	"encoding/json"
	"time"
)

// ConflictPolicy decides what a sync intent does when a live registration
// already exists for its event.
type ConflictPolicy string

const (
	// ConflictLastWriteWins applies the intent's requested status on top of
	// the live registration.
	ConflictLastWriteWins ConflictPolicy = "last-write-wins"
	// ConflictFail records the intent as a conflict and mutates nothing.
	ConflictFail ConflictPolicy = "fail-on-conflict"
)

// Valid reports whether p is a known policy.
func (p ConflictPolicy) Valid() bool {
	return p == ConflictLastWriteWins || p == ConflictFail
}

// IntentStatus is the status a sync intent asks for. Waitlist cannot be
// requested directly; it is only ever assigned by the capacity check.
type IntentStatus string

const (
	IntentGoing     IntentStatus = "going"
	IntentCancelled IntentStatus = "cancelled"
)

// Valid reports whether s is a known intent status.
func (s IntentStatus) Valid() bool {
	return s == IntentGoing || s == IntentCancelled
}

// RegistrationIntent is one offline-originated registration action. The
// client token makes redelivery safe: the first processing stores its result
// and replays return it verbatim.
type RegistrationIntent struct {
	EventID     string       `json:"eventId"`
	UserID      string       `json:"userId"`
	Status      IntentStatus `json:"status"`
	ClientToken string       `json:"clientToken"`
	// DeclaredAt is the client's claimed action time, recorded for audit;
	// FIFO order still derives from server-side registered_at.
	DeclaredAt time.Time `json:"declaredAt"`
}

// Sync item result actions.
const (
	SyncActionCreated    = "created"
	SyncActionWaitlisted = "waitlisted"
	SyncActionCancelled  = "cancelled"
	SyncActionNoop       = "no-op"
	SyncActionConflict   = "conflict"
	SyncActionFailed     = "failed"
	SyncActionReplayed   = "replayed"
)

// SyncItemResult is the outcome of one intent. Replays of the same client
// token return the stored result with Replayed set.
// swagger:model SyncItemResult
type SyncItemResult struct {
	ClientToken  string        `json:"clientToken"`
	EventID      string        `json:"eventId"`
	Action       string        `json:"action"`
	Error        string        `json:"error,omitempty"`
	Registration *Registration `json:"registration,omitempty"`
	Replayed     bool          `json:"replayed,omitempty"`
}

// SyncSummary aggregates a batch's per-item outcomes.
// swagger:model SyncSummary
type SyncSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Conflicts  int `json:"conflicts"`
	Waitlisted int `json:"waitlisted"`
}

// SyncResult is the aggregate outcome of one bulk sync call. Partial success
// is the normal case; there is no batch-wide rollback.
type SyncResult struct {
	Results   []SyncItemResult `json:"results"`
	Summary   SyncSummary      `json:"summary"`
	Timestamp time.Time        `json:"timestamp"`
}

// IdempotencyRecord stores the first result computed for a client token so
// redelivery returns it unchanged. Records expire after a retention window
// covering realistic offline retry spans and are purged afterwards.
type IdempotencyRecord struct {
	Endpoint    string          `json:"endpoint"`
	UserID      string          `json:"userId"`
	ClientToken string          `json:"clientToken"`
	Result      json.RawMessage `json:"result"`
	CreatedAt   time.Time       `json:"createdAt"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

// IdempotencyRepository stores sync results keyed by client token.
type IdempotencyRepository interface {
	// Get returns the unexpired record for the key, or ErrNotFound.
	Get(ctx context.Context, endpoint, userID, clientToken string) (*IdempotencyRecord, error)
	// Put stores the record. A concurrent duplicate insert is not an error;
	// the first stored result wins.
	Put(ctx context.Context, rec *IdempotencyRecord) error
	// PurgeExpired deletes records that expired before the given time and
	// returns how many were removed.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// SyncService applies batches of offline registration intents exactly once.
type SyncService interface {
	Process(ctx context.Context, p Principal, intents []RegistrationIntent, policy ConflictPolicy) (*SyncResult, error)
}
