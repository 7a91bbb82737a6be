package model

import "time"

// Conversation is a summary row for a derived conversation key. It is created
// on the first message and only tracks the latest activity.
type Conversation struct {
	Key            string    `gorm:"column:conversation_key;primaryKey;size:255" json:"key"`
	SellerUID      string    `gorm:"column:seller_uid;size:128;index" json:"sellerId"`
	BuyerUID       string    `gorm:"column:buyer_uid;size:128;index" json:"buyerId"`
	AnnouncementID string    `gorm:"column:announcement_id;size:64;index" json:"announcementId"`
	LastMessageAt  time.Time `gorm:"column:last_message_at" json:"lastMessageAt"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Participant reports whether uid is the seller or the buyer.
func (c Conversation) Participant(uid string) bool {
	return uid != "" && (uid == c.SellerUID || uid == c.BuyerUID)
}

// Other returns the counterpart of uid in the conversation.
func (c Conversation) Other(uid string) string {
	if uid == c.SellerUID {
		return c.BuyerUID
	}
	return c.SellerUID
}
