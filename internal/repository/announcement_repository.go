package repository

import (
	"context"

	"github.com/hobbiz/hobbiz-backend/internal/model"
	"gorm.io/gorm"
)

type AnnouncementRepository interface {
	Create(ctx context.Context, a *model.Announcement) error
	FindByID(ctx context.Context, id string) (*model.Announcement, error)
	List(ctx context.Context, limit, offset int) ([]model.Announcement, int64, error)
	SetDB(db *gorm.DB)
}

type announcementRepository struct {
	db *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) AnnouncementRepository {
	return &announcementRepository{db: db}
}

func (r *announcementRepository) Create(ctx context.Context, a *model.Announcement) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *announcementRepository) FindByID(ctx context.Context, id string) (*model.Announcement, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var a model.Announcement
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *announcementRepository) List(ctx context.Context, limit, offset int) ([]model.Announcement, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		list  []model.Announcement
		total int64
	)
	if err := r.db.WithContext(ctx).Model(&model.Announcement{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *announcementRepository) SetDB(db *gorm.DB) {
	r.db = db
}
