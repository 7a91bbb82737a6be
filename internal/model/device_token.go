package model

import "time"

type DeviceToken struct {
	Token     string    `gorm:"primaryKey;size:255"`
	UID       string    `gorm:"column:uid;size:128;index;not null"`
	Platform  string    `gorm:"column:platform;size:16"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (DeviceToken) TableName() string {
	return "device_tokens"
}
