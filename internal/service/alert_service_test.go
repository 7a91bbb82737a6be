package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlertService_Create(t *testing.T) {
	repo := &fakeAlertRepo{}
	svc := NewAlertService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, " ana ", " low stock ")
	require.NoError(t, err)
	require.Equal(t, "ana", a.Username)
	require.Equal(t, "low stock", a.Alert)
	require.False(t, a.Timestamp.IsZero())

	_, err = svc.Create(ctx, "", "x")
	require.ErrorIs(t, err, ErrInvalid)
	_, err = svc.Create(ctx, "ana", "   ")
	require.ErrorIs(t, err, ErrInvalid)
	require.Len(t, repo.inserted, 1)
}

func TestAlertService_ListLimit(t *testing.T) {
	repo := &fakeAlertRepo{}
	svc := NewAlertService(repo)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		_, err := svc.Create(ctx, "ana", "alert")
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "ion", "alert")
	require.NoError(t, err)

	list, err := svc.List(ctx, "ana", 0)
	require.NoError(t, err)
	require.Len(t, list, 20)

	list, err = svc.List(ctx, "ion", 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
