// Package events carries message.created events from the request path to the
// notification fan-out worker.
package events

import (
	"context"
	"time"
)

const (
	StreamName         = "HOBBIZ_EVENTS"
	SubjectPrefix      = "hobbiz"
	SubjectMsgCreated  = SubjectPrefix + ".message.created"
	fanoutConsumerName = "push-fanout"
	handlerTimeout     = 30 * time.Second
)

type MessageCreated struct {
	MessageID       string    `json:"messageId"`
	ConversationKey string    `json:"conversationId"`
	SenderUID       string    `json:"senderId"`
	RecipientUID    string    `json:"recipientId"`
	AnnouncementID  string    `json:"announcementId"`
	Preview         string    `json:"preview"`
	HasAttachment   bool      `json:"hasAttachment"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Handler processes one event. A returned error asks for redelivery where the
// bus supports it.
type Handler func(ctx context.Context, ev MessageCreated) error

type Bus interface {
	Publish(ctx context.Context, ev MessageCreated) error
	Subscribe(ctx context.Context, h Handler) error
	Close()
}
