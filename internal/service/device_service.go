package service

import (
	"context"
	"strings"

	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/hobbiz/hobbiz-backend/internal/repository"
)

var platforms = map[string]bool{"android": true, "ios": true, "web": true}

type DeviceService interface {
	Register(ctx context.Context, uid, token, platform string) error
	Unregister(ctx context.Context, uid, token string) error
}

type deviceService struct {
	repo repository.DeviceRepository
}

func NewDeviceService(repo repository.DeviceRepository) DeviceService {
	return &deviceService{repo: repo}
}

func (s *deviceService) Register(ctx context.Context, uid, token, platform string) error {
	token = strings.TrimSpace(token)
	platform = strings.ToLower(strings.TrimSpace(platform))
	if token == "" || len(token) > 255 {
		return invalid("invalid token")
	}
	if platform != "" && !platforms[platform] {
		return invalid("unknown platform")
	}
	return s.repo.Upsert(ctx, &model.DeviceToken{Token: token, UID: uid, Platform: platform})
}

func (s *deviceService) Unregister(ctx context.Context, uid, token string) error {
	if token == "" {
		return invalid("invalid token")
	}
	return s.repo.Delete(ctx, uid, token)
}
