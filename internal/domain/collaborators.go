package domain

import (
	"context"
	"time"
)

// NotificationDispatcher delivers a best-effort message to a user. Failures
// are logged by callers and never roll back committed state.
type NotificationDispatcher interface {
	Notify(ctx context.Context, userID, message string) error
}

// AuditEntry records one committed registration transition.
type AuditEntry struct {
	ID       string         `json:"id"`
	Action   string         `json:"action"`
	EntityID string         `json:"entityId"`
	ActorID  string         `json:"actorId"`
	TenantID string         `json:"tenantId"`
	Changes  map[string]any `json:"changes"`
	At       time.Time      `json:"at"`
}

// AuditSink records committed transitions. Implementations must be safe to
// call after the primary transaction has committed; errors are logged and
// swallowed by callers.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// TokenIssuer issues principal tokens. Used by tooling and tests; login
// endpoints live outside this core.
type TokenIssuer interface {
	Issue(p Principal, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a bearer token and returns the principal it carries.
type TokenVerifier interface {
	Verify(token string) (Principal, error)
}
