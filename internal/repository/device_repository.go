package repository

import (
	"context"

	"github.com/hobbiz/hobbiz-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeviceRepository interface {
	Upsert(ctx context.Context, d *model.DeviceToken) error
	ListByUser(ctx context.Context, uid string) ([]model.DeviceToken, error)
	Delete(ctx context.Context, uid, token string) error
	DeleteToken(ctx context.Context, token string) error
	SetDB(db *gorm.DB)
}

type deviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

// Upsert moves a token to its latest owner; a device re-registering after a
// sign-in as another user must stop receiving the old user's pushes.
func (r *deviceRepository) Upsert(ctx context.Context, d *model.DeviceToken) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"uid", "platform", "updated_at"}),
	}).Create(d).Error
}

func (r *deviceRepository) ListByUser(ctx context.Context, uid string) ([]model.DeviceToken, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.DeviceToken
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *deviceRepository) Delete(ctx context.Context, uid, token string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Where("uid = ? AND token = ?", uid, token).Delete(&model.DeviceToken{}).Error
}

func (r *deviceRepository) DeleteToken(ctx context.Context, token string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&model.DeviceToken{}).Error
}

func (r *deviceRepository) SetDB(db *gorm.DB) {
	r.db = db
}
