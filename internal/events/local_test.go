package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocal_PublishWithoutSubscriber(t *testing.T) {
	l := NewLocal()
	require.ErrorIs(t, l.Publish(context.Background(), MessageCreated{MessageID: "m1"}), ErrNoSubscriber)
}

func TestLocal_Delivers(t *testing.T) {
	l := NewLocal()
	got := make(chan MessageCreated, 1)
	require.NoError(t, l.Subscribe(context.Background(), func(_ context.Context, ev MessageCreated) error {
		got <- ev
		return nil
	}))

	require.NoError(t, l.Publish(context.Background(), MessageCreated{MessageID: "m1", RecipientUID: "S1"}))
	l.Close()

	ev := <-got
	require.Equal(t, "m1", ev.MessageID)
	require.Equal(t, "S1", ev.RecipientUID)
}
