package service

import (
	"context"
	"testing"

	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/stretchr/testify/require"
)

func TestSettingsService_DefaultsEnabled(t *testing.T) {
	svc := NewSettingsService(&fakeSettingsRepo{rows: map[string]map[model.Channel]bool{}})

	got, err := svc.Get(context.Background(), "U1")
	require.NoError(t, err)
	require.Len(t, got, len(model.Channels))
	for _, c := range model.Channels {
		require.True(t, got[c], c)
	}
}

func TestSettingsService_Set(t *testing.T) {
	svc := NewSettingsService(&fakeSettingsRepo{rows: map[string]map[model.Channel]bool{}})
	ctx := context.Background()

	got, err := svc.Set(ctx, "U1", model.ChannelPromotions, false)
	require.NoError(t, err)
	require.False(t, got[model.ChannelPromotions])
	require.True(t, got[model.ChannelPush])

	_, err = svc.Set(ctx, "U1", model.Channel("sms"), true)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestDeviceService_Register(t *testing.T) {
	repo := &fakeDeviceRepo{}
	svc := NewDeviceService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "U1", " tok ", "Android"))
	require.Equal(t, model.DeviceToken{Token: "tok", UID: "U1", Platform: "android"}, repo.tokens[0])

	require.ErrorIs(t, svc.Register(ctx, "U1", "", "ios"), ErrInvalid)
	require.ErrorIs(t, svc.Register(ctx, "U1", "tok", "symbian"), ErrInvalid)
	require.ErrorIs(t, svc.Unregister(ctx, "U1", ""), ErrInvalid)

	require.NoError(t, svc.Unregister(ctx, "U1", "tok"))
	require.Equal(t, []string{"tok"}, repo.deleted)
}
