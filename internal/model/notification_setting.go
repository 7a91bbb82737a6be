package model

import "time"

// Channel is a notification delivery channel a user can switch off.
type Channel string

const (
	ChannelPush       Channel = "push"
	ChannelEmail      Channel = "email"
	ChannelMessages   Channel = "messages"
	ChannelReviews    Channel = "reviews"
	ChannelFavorites  Channel = "favorites"
	ChannelPromotions Channel = "promotions"
)

// Channels lists every known channel.
var Channels = []Channel{
	ChannelPush,
	ChannelEmail,
	ChannelMessages,
	ChannelReviews,
	ChannelFavorites,
	ChannelPromotions,
}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	for _, known := range Channels {
		if c == known {
			return true
		}
	}
	return false
}

type NotificationSetting struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UID       string    `gorm:"column:uid;size:128;uniqueIndex:uniq_uid_channel;not null"`
	Channel   Channel   `gorm:"column:channel;size:32;uniqueIndex:uniq_uid_channel;not null"`
	Enabled   bool      `gorm:"column:enabled;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (NotificationSetting) TableName() string {
	return "notification_settings"
}
