package domain

import "context"

// Role is an ordered application role. Comparisons use Level so privilege
// checks are a single accessLevel(role) >= accessLevel(required) test instead
// of per-endpoint string comparisons.
type Role string

const (
	RoleMember     Role = "member"
	RoleVIP        Role = "vip"
	RoleLeader     Role = "leader"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleLevels = map[Role]int{
	RoleMember:     1,
	RoleVIP:        2,
	RoleLeader:     3,
	RoleAdmin:      4,
	RoleSuperAdmin: 5,
}

// Level returns the role's privilege level. Unknown roles rank below member.
func (r Role) Level() int {
	return roleLevels[r]
}

// AtLeast reports whether r has at least the privilege level of required.
func (r Role) AtLeast(required Role) bool {
	return r.Level() >= required.Level()
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Principal is the verified actor making a request. It is supplied by the
// authentication layer; this core never persists it.
type Principal struct {
	UserID   string `json:"userId"`
	Role     Role   `json:"role"`
	TenantID string `json:"tenantId"`
	// ChurchIDs are the local-church affiliations claimed by the token.
	// The membership store remains authoritative; see AccessResolver.
	ChurchIDs []string `json:"churchIds"`
}

// ChurchSet is the set of local-church IDs a principal may act within.
// The zero value denies everything; an unrestricted set allows any church.
type ChurchSet struct {
	unrestricted bool
	ids          map[string]struct{}
}

// UnrestrictedChurchSet returns the sentinel set granted to the top
// administrative role.
func UnrestrictedChurchSet() ChurchSet {
	return ChurchSet{unrestricted: true}
}

// NewChurchSet returns an explicit set of church IDs. An empty list yields a
// set that denies all local-scoped access.
func NewChurchSet(ids ...string) ChurchSet {
	set := ChurchSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		set.ids[id] = struct{}{}
	}
	return set
}

// Unrestricted reports whether the set is the unrestricted sentinel.
func (s ChurchSet) Unrestricted() bool {
	return s.unrestricted
}

// Contains reports whether churchID is in the set. The unrestricted sentinel
// contains every church.
func (s ChurchSet) Contains(churchID string) bool {
	if s.unrestricted {
		return true
	}
	_, ok := s.ids[churchID]
	return ok
}

// Empty reports whether the set denies all local-scoped access.
func (s ChurchSet) Empty() bool {
	return !s.unrestricted && len(s.ids) == 0
}

// MembershipRepository looks up church membership and user contact details.
type MembershipRepository interface {
	// ListChurchIDsByUser returns the local-church IDs the user belongs to
	// within the tenant. An empty slice means no local-scoped access.
	ListChurchIDsByUser(ctx context.Context, tenantID, userID string) ([]string, error)
	// GetUserEmail returns the user's email address for notifications.
	GetUserEmail(ctx context.Context, userID string) (string, error)
}

// AccessResolver computes the churches a principal may act within.
type AccessResolver interface {
	Resolve(ctx context.Context, p Principal) (ChurchSet, error)
}
