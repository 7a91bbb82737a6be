package service

import (
	"context"

	"github.com/hobbiz/hobbiz-backend/internal/events"
	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/hobbiz/hobbiz-backend/internal/push"
	"github.com/hobbiz/hobbiz-backend/internal/repository"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// PushSender is satisfied by *push.Dispatcher.
type PushSender interface {
	Send(ctx context.Context, to push.Target, n push.Notification) (string, error)
}

type NotificationService interface {
	Notify(ctx context.Context, n *model.Notification)
	List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, userUID string) error
	HandleMessageCreated(ctx context.Context, ev events.MessageCreated) error
}

type notificationService struct {
	repo     repository.NotificationRepository
	settings SettingsService
	devices  repository.DeviceRepository
	pusher   PushSender
}

func NewNotificationService(repo repository.NotificationRepository, settings SettingsService, devices repository.DeviceRepository, pusher PushSender) NotificationService {
	return &notificationService{repo: repo, settings: settings, devices: devices, pusher: pusher}
}

// Notify is best-effort; it logs errors but does not return them to avoid breaking main flows.
func (s *notificationService) Notify(ctx context.Context, n *model.Notification) {
	if n == nil || n.UserUID == "" || n.Type == "" {
		return
	}
	if err := s.repo.Create(ctx, n); err != nil {
		jww.WARN.Printf("notify %s (%s): %v", n.UserUID, n.Type, err)
	}
}

func (s *notificationService) List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if userUID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userUID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, userUID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userUID string) error {
	if userUID == "" {
		return nil
	}
	return s.repo.MarkAllRead(ctx, userUID)
}

// HandleMessageCreated records an in-app notification for the recipient and
// pushes to their devices, each gated by the recipient's settings. Lookups
// happen before any side effect so a returned error is safe to redeliver;
// push failures are logged and swallowed.
func (s *notificationService) HandleMessageCreated(ctx context.Context, ev events.MessageCreated) error {
	if ev.RecipientUID == "" {
		return nil
	}
	prefs, err := s.settings.Get(ctx, ev.RecipientUID)
	if err != nil {
		return errors.WithMessage(err, "load settings")
	}
	var tokens []model.DeviceToken
	if prefs[model.ChannelPush] && s.pusher != nil && s.devices != nil {
		tokens, err = s.devices.ListByUser(ctx, ev.RecipientUID)
		if err != nil {
			return errors.WithMessage(err, "list devices")
		}
	}

	title := "Mesaj nou"
	body := ev.Preview
	if body == "" && ev.HasAttachment {
		body = "Ți-a trimis un fișier"
	}
	if prefs[model.ChannelMessages] {
		key, ann := ev.ConversationKey, ev.AnnouncementID
		s.Notify(ctx, &model.Notification{
			UserUID:         ev.RecipientUID,
			Type:            model.NotificationTypeNewMessage,
			Title:           title,
			Body:            body,
			ConversationKey: &key,
			AnnouncementID:  &ann,
		})
	}

	data := push.Data{
		"type":           model.NotificationTypeNewMessage,
		"conversationId": ev.ConversationKey,
		"messageId":      ev.MessageID,
		"announcementId": ev.AnnouncementID,
		"senderId":       ev.SenderUID,
	}
	for _, t := range tokens {
		_, err := s.pusher.Send(ctx, push.Target{Token: t.Token}, push.Notification{Title: title, Body: body, Data: data})
		switch {
		case err == nil:
		case errors.Is(err, push.ErrNotInitialized):
			jww.DEBUG.Printf("push disabled, skipping %d devices of %s", len(tokens), ev.RecipientUID)
			return nil
		case push.IsUnregistered(err):
			jww.INFO.Printf("forgetting unregistered device of %s", ev.RecipientUID)
			if derr := s.devices.DeleteToken(ctx, t.Token); derr != nil {
				jww.WARN.Printf("delete device token: %v", derr)
			}
		default:
			jww.WARN.Printf("push %s to %s: %+v", ev.MessageID, ev.RecipientUID, err)
		}
	}
	return nil
}
