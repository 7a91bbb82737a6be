package service

import (
	"context"

	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/hobbiz/hobbiz-backend/internal/repository"
)

type SettingsService interface {
	// Get returns every channel; channels without a stored row are enabled.
	Get(ctx context.Context, uid string) (map[model.Channel]bool, error)
	Set(ctx context.Context, uid string, channel model.Channel, enabled bool) (map[model.Channel]bool, error)
}

type settingsService struct {
	repo repository.SettingsRepository
}

func NewSettingsService(repo repository.SettingsRepository) SettingsService {
	return &settingsService{repo: repo}
}

func (s *settingsService) Get(ctx context.Context, uid string) (map[model.Channel]bool, error) {
	out := make(map[model.Channel]bool, len(model.Channels))
	for _, c := range model.Channels {
		out[c] = true
	}
	rows, err := s.repo.ListByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.Channel.Valid() {
			out[r.Channel] = r.Enabled
		}
	}
	return out, nil
}

func (s *settingsService) Set(ctx context.Context, uid string, channel model.Channel, enabled bool) (map[model.Channel]bool, error) {
	if !channel.Valid() {
		return nil, invalid("unknown channel " + string(channel))
	}
	if err := s.repo.Set(ctx, uid, channel, enabled); err != nil {
		return nil, err
	}
	return s.Get(ctx, uid)
}
