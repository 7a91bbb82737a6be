package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hobbiz/hobbiz-backend/internal/cache"
	"github.com/hobbiz/hobbiz-backend/internal/events"
	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/hobbiz/hobbiz-backend/internal/push"
	"gorm.io/gorm"
)

type fakeConvRepo struct {
	convs     map[string]model.Conversation
	msgs      []model.Message
	readAt    map[string]time.Time // key|uid
	createErr error
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{convs: map[string]model.Conversation{}, readAt: map[string]time.Time{}}
}

func (f *fakeConvRepo) FindByKey(_ context.Context, key string) (*model.Conversation, error) {
	cv, ok := f.convs[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &cv, nil
}

func (f *fakeConvRepo) FindByUser(_ context.Context, uid string) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, cv := range f.convs {
		if cv.Participant(uid) {
			out = append(out, cv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (f *fakeConvRepo) UnreadKeys(_ context.Context, uid string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, m := range f.msgs {
		if m.RecipientUID != uid {
			continue
		}
		last, ok := f.readAt[m.ConversationKey+"|"+uid]
		if !ok || m.CreatedAt.After(last) {
			out[m.ConversationKey] = true
		}
	}
	return out, nil
}

func (f *fakeConvRepo) MarkRead(_ context.Context, key, uid string, at time.Time) error {
	f.readAt[key+"|"+uid] = at
	return nil
}

func (f *fakeConvRepo) CreateMessage(_ context.Context, cv *model.Conversation, msg *model.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	if existing, ok := f.convs[cv.Key]; ok {
		*cv = existing
	}
	cv.LastMessageAt = msg.CreatedAt
	f.convs[cv.Key] = *cv
	f.msgs = append(f.msgs, *msg)
	return nil
}

func (f *fakeConvRepo) ListMessages(_ context.Context, key string) ([]model.Message, error) {
	var out []model.Message
	for _, m := range f.msgs {
		if m.ConversationKey == key {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeConvRepo) FindMessage(_ context.Context, id string) (*model.Message, error) {
	for _, m := range f.msgs {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeConvRepo) DeleteMessage(_ context.Context, id string) error {
	for i, m := range f.msgs {
		if m.ID != id {
			continue
		}
		f.msgs = append(f.msgs[:i], f.msgs[i+1:]...)
		cv := f.convs[m.ConversationKey]
		cv.LastMessageAt = cv.CreatedAt
		for _, rest := range f.msgs {
			if rest.ConversationKey == cv.Key && rest.CreatedAt.After(cv.LastMessageAt) {
				cv.LastMessageAt = rest.CreatedAt
			}
		}
		f.convs[m.ConversationKey] = cv
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeConvRepo) SetDB(*gorm.DB) {}

type fakeAnnRepo struct {
	items map[string]model.Announcement
}

func (f *fakeAnnRepo) Create(_ context.Context, a *model.Announcement) error {
	f.items[a.ID] = *a
	return nil
}

func (f *fakeAnnRepo) FindByID(_ context.Context, id string) (*model.Announcement, error) {
	a, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (f *fakeAnnRepo) List(_ context.Context, limit, offset int) ([]model.Announcement, int64, error) {
	var out []model.Announcement
	for _, a := range f.items {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAnnRepo) SetDB(*gorm.DB) {}

type fakeNotifRepo struct {
	created    []model.Notification
	markedConv []string
}

func (f *fakeNotifRepo) Create(_ context.Context, n *model.Notification) error {
	n.ID = uint64(len(f.created) + 1)
	f.created = append(f.created, *n)
	return nil
}

func (f *fakeNotifRepo) ListByUser(_ context.Context, uid string, unreadOnly bool, _ int) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range f.created {
		if n.UserUID == uid && (!unreadOnly || n.ReadAt == nil) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifRepo) MarkAllRead(context.Context, string) error { return nil }

func (f *fakeNotifRepo) MarkByConversation(_ context.Context, uid, key string) error {
	f.markedConv = append(f.markedConv, uid+"|"+key)
	return nil
}

func (f *fakeNotifRepo) CountUnread(_ context.Context, uid string) (int64, error) {
	var n int64
	for _, x := range f.created {
		if x.UserUID == uid && x.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifRepo) SetDB(*gorm.DB) {}

type fakeSettingsRepo struct {
	rows map[string]map[model.Channel]bool
}

func (f *fakeSettingsRepo) ListByUser(_ context.Context, uid string) ([]model.NotificationSetting, error) {
	var out []model.NotificationSetting
	for c, en := range f.rows[uid] {
		out = append(out, model.NotificationSetting{UID: uid, Channel: c, Enabled: en})
	}
	return out, nil
}

func (f *fakeSettingsRepo) Set(_ context.Context, uid string, c model.Channel, enabled bool) error {
	if f.rows[uid] == nil {
		f.rows[uid] = map[model.Channel]bool{}
	}
	f.rows[uid][c] = enabled
	return nil
}

func (f *fakeSettingsRepo) SetDB(*gorm.DB) {}

type fakeDeviceRepo struct {
	tokens  []model.DeviceToken
	deleted []string
}

func (f *fakeDeviceRepo) Upsert(_ context.Context, d *model.DeviceToken) error {
	f.tokens = append(f.tokens, *d)
	return nil
}

func (f *fakeDeviceRepo) ListByUser(_ context.Context, uid string) ([]model.DeviceToken, error) {
	var out []model.DeviceToken
	for _, t := range f.tokens {
		if t.UID == uid {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeDeviceRepo) Delete(_ context.Context, _, token string) error {
	f.deleted = append(f.deleted, token)
	return nil
}

func (f *fakeDeviceRepo) DeleteToken(_ context.Context, token string) error {
	f.deleted = append(f.deleted, token)
	return nil
}

func (f *fakeDeviceRepo) SetDB(*gorm.DB) {}

type fakeStore struct {
	puts []string
}

func (f *fakeStore) Put(_ context.Context, name, _ string, _ []byte) (string, error) {
	f.puts = append(f.puts, name)
	return "https://cdn.hobbiz.ro/messages/" + name, nil
}

type fakeBus struct {
	mu        sync.Mutex
	published []events.MessageCreated
}

func (f *fakeBus) Publish(_ context.Context, ev events.MessageCreated) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, ev)
	return nil
}

func (f *fakeBus) Subscribe(context.Context, events.Handler) error { return nil }
func (f *fakeBus) Close()                                          {}

type fakeCache struct {
	invalidated []string
}

func (f *fakeCache) Get(context.Context, string, interface{}) error { return cache.ErrMiss }
func (f *fakeCache) Set(context.Context, string, interface{}) error { return nil }
func (f *fakeCache) Invalidate(_ context.Context, uids ...string) {
	f.invalidated = append(f.invalidated, uids...)
}

type fakePusher struct {
	sent []push.Target
	err  error
}

func (f *fakePusher) Send(_ context.Context, to push.Target, _ push.Notification) (string, error) {
	f.sent = append(f.sent, to)
	if f.err != nil {
		return "", f.err
	}
	return "msg-id", nil
}

type fakeAlertRepo struct {
	inserted []model.Alert
}

func (f *fakeAlertRepo) Insert(_ context.Context, a *model.Alert) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	f.inserted = append(f.inserted, *a)
	return nil
}

func (f *fakeAlertRepo) List(_ context.Context, username string, limit int64) ([]model.Alert, error) {
	var out []model.Alert
	for _, a := range f.inserted {
		if username == "" || a.Username == username {
			out = append(out, a)
		}
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
