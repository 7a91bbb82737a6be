package model

import "time"

type SenderRole string

const (
	SenderRoleBuyer  SenderRole = "buyer"
	SenderRoleSeller SenderRole = "seller"
)

type Message struct {
	ID               string     `gorm:"primaryKey;size:26" json:"id"`
	ConversationKey  string     `gorm:"column:conversation_key;size:255;index" json:"conversationId"`
	SenderUID        string     `gorm:"column:sender_uid;size:128;index" json:"senderId"`
	SenderRole       SenderRole `gorm:"column:sender_role;size:16;not null" json:"senderRole"`
	RecipientUID     string     `gorm:"column:recipient_uid;size:128;index" json:"recipientId"`
	AnnouncementID   string     `gorm:"column:announcement_id;size:64" json:"announcementId"`
	Text             *string    `gorm:"column:text;type:text" json:"text,omitempty"`
	ImageURL         *string    `gorm:"column:image_url;size:512" json:"image,omitempty"`
	OriginalFilename *string    `gorm:"column:original_filename;size:255" json:"originalFilename,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}
