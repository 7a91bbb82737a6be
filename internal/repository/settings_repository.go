package repository

import (
	"context"

	"github.com/hobbiz/hobbiz-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository interface {
	ListByUser(ctx context.Context, uid string) ([]model.NotificationSetting, error)
	Set(ctx context.Context, uid string, channel model.Channel, enabled bool) error
	SetDB(db *gorm.DB)
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) ListByUser(ctx context.Context, uid string) ([]model.NotificationSetting, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.NotificationSetting
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *settingsRepository) Set(ctx context.Context, uid string, channel model.Channel, enabled bool) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	s := model.NotificationSetting{UID: uid, Channel: channel, Enabled: enabled}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}, {Name: "channel"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
	}).Create(&s).Error
}

func (r *settingsRepository) SetDB(db *gorm.DB) {
	r.db = db
}
