package service

import (
	"context"

	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/hobbiz/hobbiz-backend/internal/repository"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type AnnouncementService interface {
	Get(ctx context.Context, id string) (*model.Announcement, error)
	List(ctx context.Context, limit, offset int) ([]model.Announcement, int64, error)
}

type announcementService struct {
	repo repository.AnnouncementRepository
}

func NewAnnouncementService(repo repository.AnnouncementRepository) AnnouncementService {
	return &announcementService{repo: repo}
}

func (s *announcementService) Get(ctx context.Context, id string) (*model.Announcement, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *announcementService) List(ctx context.Context, limit, offset int) ([]model.Announcement, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}
