package chatclient

import (
	"context"
	"sync"

	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

var ErrUnknownChannel = errors.New("unknown notification channel")

// SettingsAPI is the part of *APIClient the toggle uses.
type SettingsAPI interface {
	Settings(ctx context.Context) (map[model.Channel]bool, error)
	SetSetting(ctx context.Context, channel model.Channel, enabled bool) (map[model.Channel]bool, error)
}

// SettingsToggle flips notification channels optimistically.
type SettingsToggle struct {
	api SettingsAPI

	mu     sync.Mutex
	values map[model.Channel]bool
}

func NewSettingsToggle(api SettingsAPI) *SettingsToggle {
	values := make(map[model.Channel]bool, len(model.Channels))
	for _, c := range model.Channels {
		values[c] = true
	}
	return &SettingsToggle{api: api, values: values}
}

func (t *SettingsToggle) Load(ctx context.Context) error {
	got, err := t.api.Settings(ctx)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for c, v := range got {
		t.values[c] = v
	}
	return nil
}

func (t *SettingsToggle) Values() map[model.Channel]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[model.Channel]bool, len(t.values))
	for c, v := range t.values {
		out[c] = v
	}
	return out
}

// Toggle flips channel locally, then persists it. If saving fails the local
// value goes back. It returns the value in effect afterwards.
func (t *SettingsToggle) Toggle(ctx context.Context, channel model.Channel) (bool, error) {
	if !channel.Valid() {
		return false, ErrUnknownChannel
	}
	t.mu.Lock()
	prev := t.values[channel]
	t.values[channel] = !prev
	t.mu.Unlock()

	got, err := t.api.SetSetting(ctx, channel, !prev)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		// a later toggle may already have changed it again
		if t.values[channel] == !prev {
			t.values[channel] = prev
		}
		jww.WARN.Printf("settings: saving %s failed, reverted: %v", channel, err)
		return t.values[channel], err
	}
	for c, v := range got {
		t.values[c] = v
	}
	return t.values[channel], nil
}
