package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRole_AtLeast(t *testing.T) {
	require.True(t, RoleSuperAdmin.AtLeast(RoleAdmin))
	require.True(t, RoleAdmin.AtLeast(RoleAdmin))
	require.True(t, RoleLeader.AtLeast(RoleVIP))
	require.False(t, RoleVIP.AtLeast(RoleLeader))
	// Unknown roles rank below every known role.
	require.False(t, Role("intern").AtLeast(RoleMember))
}

func TestChurchSet(t *testing.T) {
	t.Run("unrestricted contains everything", func(t *testing.T) {
		set := UnrestrictedChurchSet()
		require.True(t, set.Unrestricted())
		require.True(t, set.Contains("any-church"))
		require.False(t, set.Empty())
	})

	t.Run("explicit set", func(t *testing.T) {
		set := NewChurchSet("c1", "c2")
		require.False(t, set.Unrestricted())
		require.True(t, set.Contains("c1"))
		require.False(t, set.Contains("c3"))
	})

	t.Run("empty set fails closed", func(t *testing.T) {
		set := NewChurchSet()
		require.True(t, set.Empty())
		require.False(t, set.Contains("c1"))
	})

	t.Run("zero value denies", func(t *testing.T) {
		var set ChurchSet
		require.True(t, set.Empty())
		require.False(t, set.Contains("c1"))
	})
}
