package service

import (
	"context"
	"strings"

	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/hobbiz/hobbiz-backend/internal/repository"
)

type AlertService interface {
	Create(ctx context.Context, username, alert string) (*model.Alert, error)
	List(ctx context.Context, username string, limit int) ([]model.Alert, error)
}

type alertService struct {
	repo repository.AlertRepository
}

func NewAlertService(repo repository.AlertRepository) AlertService {
	return &alertService{repo: repo}
}

func (s *alertService) Create(ctx context.Context, username, alert string) (*model.Alert, error) {
	username = strings.TrimSpace(username)
	alert = strings.TrimSpace(alert)
	if username == "" {
		return nil, invalid("username is required")
	}
	if alert == "" {
		return nil, invalid("alert is required")
	}
	a := &model.Alert{Username: username, Alert: alert}
	if err := s.repo.Insert(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *alertService) List(ctx context.Context, username string, limit int) ([]model.Alert, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, strings.TrimSpace(username), int64(limit))
}
