package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSeedAnnouncements(t *testing.T) {
	list := buildSeedAnnouncements()
	require.NotEmpty(t, list)
	for _, s := range list {
		require.NotEmpty(t, s.Title)
		require.NotZero(t, s.Price)
	}

	a, err := toAnnouncement(list[0], "S1", 1)
	require.NoError(t, err)
	require.Equal(t, "S1", a.OwnerUID)
	require.Len(t, a.ImageURLs(), 2)
	require.Len(t, a.ID, 36)
}

func TestSeedOwners(t *testing.T) {
	t.Setenv("SEED_OWNER_UIDS", " u1, ,u2 ")
	require.Equal(t, []string{"u1", "u2"}, seedOwners())

	t.Setenv("SEED_OWNER_UIDS", "")
	require.Len(t, seedOwners(), 2)
}
