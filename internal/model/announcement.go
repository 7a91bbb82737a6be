package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Announcement is owned by the listings backend; chat only reads it.
type Announcement struct {
	ID        string         `gorm:"primaryKey;size:64"`
	OwnerUID  string         `gorm:"column:owner_uid;size:128;index;not null"`
	Title     string         `gorm:"size:120;not null"`
	Price     uint           `gorm:"not null"`
	Images    datatypes.JSON `gorm:"column:images"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (Announcement) TableName() string {
	return "announcements"
}

// ImageURLs decodes the stored image list; malformed data yields nil.
func (a Announcement) ImageURLs() []string {
	if len(a.Images) == 0 {
		return nil
	}
	var urls []string
	if err := json.Unmarshal(a.Images, &urls); err != nil {
		return nil
	}
	return urls
}
