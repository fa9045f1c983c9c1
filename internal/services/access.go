package services

import (
	"context"
	"fmt"

	"congregate/internal/domain"
)

type accessResolver struct {
	memberships domain.MembershipRepository
}

// NewAccessResolver creates an AccessResolver backed by the membership store.
func NewAccessResolver(memberships domain.MembershipRepository) domain.AccessResolver {
	return &accessResolver{memberships: memberships}
}

// Resolve computes the churches the principal may act within. Superadmins get
// the unrestricted sentinel; everyone else gets the explicit membership set
// for their tenant. The membership store is authoritative: token-claimed
// affiliations not present in the store are ignored, and an empty result
// denies all local-scoped access rather than defaulting to allow.
func (r *accessResolver) Resolve(ctx context.Context, p domain.Principal) (domain.ChurchSet, error) {
	if p.Role == domain.RoleSuperAdmin {
		return domain.UnrestrictedChurchSet(), nil
	}
	ids, err := r.memberships.ListChurchIDsByUser(ctx, p.TenantID, p.UserID)
	if err != nil {
		return domain.ChurchSet{}, fmt.Errorf("list church memberships: %w", err)
	}
	if len(p.ChurchIDs) == 0 {
		return domain.NewChurchSet(ids...), nil
	}
	claimed := make(map[string]struct{}, len(p.ChurchIDs))
	for _, id := range p.ChurchIDs {
		claimed[id] = struct{}{}
	}
	var granted []string
	for _, id := range ids {
		if _, ok := claimed[id]; ok {
			granted = append(granted, id)
		}
	}
	return domain.NewChurchSet(granted...), nil
}
