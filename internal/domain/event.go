package domain

import (
	"context"
	"time"
)

// EventScope says whether an event belongs to a single local church or to the
// whole tenant.
type EventScope string

const (
	ScopeTenantWide EventScope = "tenant_wide"
	ScopeLocal      EventScope = "local"
)

// Event is a registrable event. This core never creates or updates events;
// they arrive published from the wider system.
// swagger:model Event
type Event struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	// LocalChurchID is nil for tenant-wide events.
	LocalChurchID *string    `json:"localChurchId,omitempty"`
	Scope         EventScope `json:"scope"`
	// Capacity is nil for unlimited events.
	Capacity *int `json:"capacity,omitempty"`
	// VisibleToRoles empty means visible to all roles.
	VisibleToRoles []Role    `json:"visibleToRoles,omitempty"`
	IsActive       bool      `json:"isActive"`
	Name           string    `json:"name"`
	StartsAt       time.Time `json:"startsAt"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// RoleVisible reports whether the event's role restriction admits the role.
// An empty restriction admits everyone.
func (e *Event) RoleVisible(role Role) bool {
	if len(e.VisibleToRoles) == 0 {
		return true
	}
	for _, r := range e.VisibleToRoles {
		if r == role {
			return true
		}
	}
	return false
}

// EventRepository defines read access to events. Event lifecycle management
// lives outside this core.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
}
