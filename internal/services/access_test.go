package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"congregate/internal/domain"
)

func TestAccessResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name             string
		principal        domain.Principal
		memberships      map[string][]string
		repoErr          error
		wantErr          bool
		wantUnrestricted bool
		wantContains     []string
		wantMissing      []string
	}{
		{
			name:             "superadmin gets unrestricted sentinel",
			principal:        domain.Principal{UserID: "u1", Role: domain.RoleSuperAdmin, TenantID: "t1"},
			wantUnrestricted: true,
			wantContains:     []string{"anything"},
		},
		{
			name:         "member gets explicit membership set",
			principal:    domain.Principal{UserID: "u1", Role: domain.RoleMember, TenantID: "t1"},
			memberships:  map[string][]string{"u1": {"c1", "c2"}},
			wantContains: []string{"c1", "c2"},
			wantMissing:  []string{"c3"},
		},
		{
			name:        "no memberships denies all local access",
			principal:   domain.Principal{UserID: "u2", Role: domain.RoleLeader, TenantID: "t1"},
			memberships: map[string][]string{},
			wantMissing: []string{"c1"},
		},
		{
			name: "token claims narrow the stored set",
			principal: domain.Principal{
				UserID: "u1", Role: domain.RoleMember, TenantID: "t1",
				ChurchIDs: []string{"c1"},
			},
			memberships:  map[string][]string{"u1": {"c1", "c2"}},
			wantContains: []string{"c1"},
			wantMissing:  []string{"c2"},
		},
		{
			name: "claims not backed by the store are ignored",
			principal: domain.Principal{
				UserID: "u1", Role: domain.RoleMember, TenantID: "t1",
				ChurchIDs: []string{"c9"},
			},
			memberships: map[string][]string{"u1": {"c1"}},
			wantMissing: []string{"c9", "c1"},
		},
		{
			name:      "lookup failure fails closed",
			principal: domain.Principal{UserID: "u1", Role: domain.RoleMember, TenantID: "t1"},
			repoErr:   errors.New("db down"),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockMembershipRepository{churchesByUser: tt.memberships, err: tt.repoErr}
			resolver := NewAccessResolver(repo)

			set, err := resolver.Resolve(ctx, tt.principal)
			if tt.wantErr {
				require.Error(t, err)
				require.False(t, set.Contains("c1"))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantUnrestricted, set.Unrestricted())
			for _, id := range tt.wantContains {
				require.True(t, set.Contains(id), "expected set to contain %s", id)
			}
			for _, id := range tt.wantMissing {
				require.False(t, set.Contains(id), "expected set to not contain %s", id)
			}
		})
	}
}
