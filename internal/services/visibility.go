package services

import "congregate/internal/domain"

// VisibilityFilter decides whether a principal may see (and register for) an
// event. Callers must map a false result to the same response as a missing
// event so existence cannot be probed across tenants.
type VisibilityFilter struct{}

// NewVisibilityFilter returns a VisibilityFilter.
func NewVisibilityFilter() *VisibilityFilter {
	return &VisibilityFilter{}
}

// Visible evaluates the visibility rules in order: tenant match, active flag,
// role restriction, then scope.
func (f *VisibilityFilter) Visible(p domain.Principal, churches domain.ChurchSet, event *domain.Event) bool {
	if event == nil {
		return false
	}
	if event.TenantID != p.TenantID && !churches.Unrestricted() {
		return false
	}
	// Inactive events stay visible to tenant admins and above so they can
	// still manage registrations.
	if !event.IsActive && !p.Role.AtLeast(domain.RoleAdmin) {
		return false
	}
	if !event.RoleVisible(p.Role) {
		return false
	}
	switch event.Scope {
	case domain.ScopeLocal:
		if churches.Unrestricted() {
			return true
		}
		return event.LocalChurchID != nil && churches.Contains(*event.LocalChurchID)
	case domain.ScopeTenantWide:
		return true
	}
	return false
}
