package service

import (
	"context"
	"testing"
	"time"

	"github.com/hobbiz/hobbiz-backend/internal/convkey"
	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type convFixture struct {
	svc   *conversationService
	repo  *fakeConvRepo
	anns  *fakeAnnRepo
	notif *fakeNotifRepo
	files *fakeStore
	bus   *fakeBus
	cache *fakeCache
	clock time.Time
}

func newConvFixture(t *testing.T) *convFixture {
	t.Helper()
	f := &convFixture{
		repo:  newFakeConvRepo(),
		anns:  &fakeAnnRepo{items: map[string]model.Announcement{"A1": {ID: "A1", OwnerUID: "S1", Title: "Bicicletă", Price: 450}}},
		notif: &fakeNotifRepo{},
		files: &fakeStore{},
		bus:   &fakeBus{},
		cache: &fakeCache{},
		clock: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewConversationService(f.repo, f.anns, f.notif, f.files, f.cache, f.bus).(*conversationService)
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	return f
}

func TestConversationService_Start(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()

	key, ann, err := f.svc.Start(ctx, "A1", "B1")
	require.NoError(t, err)
	require.Equal(t, convkey.Key("S1-B1-A1"), key)
	require.Equal(t, "Bicicletă", ann.Title)

	_, _, err = f.svc.Start(ctx, "A1", "S1")
	require.ErrorIs(t, err, ErrInvalid)

	_, _, err = f.svc.Start(ctx, "missing", "B1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConversationService_Scenario(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()
	key, ok := convkey.Derive("S1", "B1", "A1")
	require.True(t, ok)

	msg, err := f.svc.SendMessage(ctx, key, SendInput{SenderUID: "B1", RecipientUID: "S1", AnnouncementID: "A1", Text: " Hello "})
	require.NoError(t, err)
	require.Equal(t, model.SenderRoleBuyer, msg.SenderRole)
	require.Equal(t, "Hello", *msg.Text)
	require.Len(t, msg.ID, 26)

	require.Len(t, f.bus.published, 1)
	require.Equal(t, "S1", f.bus.published[0].RecipientUID)
	require.Equal(t, "Hello", f.bus.published[0].Preview)
	require.ElementsMatch(t, []string{"S1", "B1"}, f.cache.invalidated)

	list, err := f.svc.ListMessages(ctx, key, "B1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, msg.ID, list[0].ID)

	require.NoError(t, f.svc.DeleteMessage(ctx, msg.ID, "B1"))
	list, err = f.svc.ListMessages(ctx, key, "S1")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestConversationService_SellerReply(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()

	first, err := f.svc.SendMessage(ctx, "S1-B1-A1", SendInput{SenderUID: "B1", RecipientUID: "S1", Text: "Mai e disponibilă?"})
	require.NoError(t, err)
	reply, err := f.svc.SendMessage(ctx, "S1-B1-A1", SendInput{SenderUID: "S1", RecipientUID: "B1", Text: "Da"})
	require.NoError(t, err)

	require.Equal(t, model.SenderRoleSeller, reply.SenderRole)
	require.Equal(t, "A1", reply.AnnouncementID)
	require.Less(t, first.ID, reply.ID)
}

func TestConversationService_SendValidation(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		key     convkey.Key
		in      SendInput
		wantErr error
	}{
		{"empty", "S1-B1-A1", SendInput{SenderUID: "B1", RecipientUID: "S1", Text: "  "}, ErrInvalid},
		{"no recipient", "S1-B1-A1", SendInput{SenderUID: "B1", Text: "x"}, ErrInvalid},
		{"self", "S1-B1-A1", SendInput{SenderUID: "B1", RecipientUID: "B1", Text: "x"}, ErrInvalid},
		{"outsider", "S1-B1-A1", SendInput{SenderUID: "X9", RecipientUID: "S1", Text: "x"}, ErrForbidden},
		{"wrong recipient", "S1-B1-A1", SendInput{SenderUID: "B1", RecipientUID: "S2", Text: "x"}, ErrForbidden},
		{"seller not owner", "S2-B1-A1", SendInput{SenderUID: "B1", RecipientUID: "S2", Text: "x"}, ErrInvalid},
		{"bad attachment", "S1-B1-A1", SendInput{SenderUID: "B1", RecipientUID: "S1", Attachment: &Attachment{Filename: "a.zip", MediaType: "application/zip", Body: []byte("zz")}}, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SendMessage(ctx, tt.key, tt.in)
			require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
	require.Empty(t, f.repo.msgs)
	require.Empty(t, f.bus.published)
}

func TestConversationService_SendAttachment(t *testing.T) {
	f := newConvFixture(t)

	msg, err := f.svc.SendMessage(context.Background(), "S1-B1-A1", SendInput{
		SenderUID:    "B1",
		RecipientUID: "S1",
		Attachment:   &Attachment{Filename: "factura.pdf", MediaType: "application/pdf", Body: []byte("%PDF")},
	})
	require.NoError(t, err)
	require.Nil(t, msg.Text)
	require.Equal(t, "https://cdn.hobbiz.ro/messages/factura.pdf", *msg.ImageURL)
	require.Equal(t, "factura.pdf", *msg.OriginalFilename)
	require.True(t, f.bus.published[0].HasAttachment)
}

func TestConversationService_ListMessagesAccess(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListMessages(ctx, "S1-B1-A1", "X9")
	require.ErrorIs(t, err, ErrForbidden)

	list, err := f.svc.ListMessages(ctx, "S1-B1-A1", "B1")
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	// unparseable and never used
	list, err = f.svc.ListMessages(ctx, "a-b-c-d", "B1")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestConversationService_DeleteOnlySender(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()
	msg, err := f.svc.SendMessage(ctx, "S1-B1-A1", SendInput{SenderUID: "B1", RecipientUID: "S1", Text: "x"})
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.DeleteMessage(ctx, msg.ID, "S1"), ErrForbidden)
	require.ErrorIs(t, f.svc.DeleteMessage(ctx, "nope", "B1"), ErrNotFound)
	require.Len(t, f.repo.msgs, 1)
}

func TestConversationService_UnreadAndMarkRead(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()
	_, err := f.svc.SendMessage(ctx, "S1-B1-A1", SendInput{SenderUID: "B1", RecipientUID: "S1", Text: "x"})
	require.NoError(t, err)

	sums, err := f.svc.ListByUser(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, sums, 1)
	require.True(t, sums[0].HasUnread)

	sums, err = f.svc.ListByUser(ctx, "B1")
	require.NoError(t, err)
	require.False(t, sums[0].HasUnread)

	require.NoError(t, f.svc.MarkRead(ctx, "S1-B1-A1", "S1"))
	require.Equal(t, []string{"S1|S1-B1-A1"}, f.notif.markedConv)

	sums, err = f.svc.ListByUser(ctx, "S1")
	require.NoError(t, err)
	require.False(t, sums[0].HasUnread)

	require.ErrorIs(t, f.svc.MarkRead(ctx, "S1-B1-A1", "X9"), ErrForbidden)
	require.ErrorIs(t, f.svc.MarkRead(ctx, "a-b-c-d", "S1"), ErrNotFound)
}

func TestConversationService_AnnouncementIDWithSeparator(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()
	f.anns.items["X-Y"] = model.Announcement{ID: "X-Y", OwnerUID: "S1", Title: "Chitară"}
	key, ok := convkey.Derive("S1", "B1", "X-Y")
	require.True(t, ok)

	// nothing stored yet, the announcement decides who is who
	_, err := f.svc.SendMessage(ctx, key, SendInput{SenderUID: "X", RecipientUID: "S1-B1", AnnouncementID: "Y", Text: "first"})
	require.ErrorIs(t, err, ErrForbidden)

	msg, err := f.svc.SendMessage(ctx, key, SendInput{SenderUID: "B1", RecipientUID: "S1", AnnouncementID: "X-Y", Text: "hi"})
	require.NoError(t, err)
	require.Equal(t, model.SenderRoleBuyer, msg.SenderRole)

	_, err = f.svc.SendMessage(ctx, key, SendInput{SenderUID: "X", RecipientUID: "S1-B1", AnnouncementID: "Y", Text: "injected"})
	require.ErrorIs(t, err, ErrForbidden)

	reply, err := f.svc.SendMessage(ctx, key, SendInput{SenderUID: "S1", RecipientUID: "B1", Text: "da"})
	require.NoError(t, err)
	require.Equal(t, model.SenderRoleSeller, reply.SenderRole)
	require.Equal(t, "X-Y", reply.AnnouncementID)

	list, err := f.svc.ListMessages(ctx, key, "B1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, m := range list {
		require.NotEqual(t, "X", m.SenderUID)
	}
}

func TestConversationService_MarkReadBeforeFirstMessage(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()
	f.anns.items["9b2f-77aa"] = model.Announcement{ID: "9b2f-77aa", OwnerUID: "S1"}

	require.NoError(t, f.svc.MarkRead(ctx, "S1-B1-9b2f-77aa", "B1"))
	require.ErrorIs(t, f.svc.MarkRead(ctx, "S1-B1-9b2f-77aa", "X9"), ErrForbidden)

	list, err := f.svc.ListMessages(ctx, "S1-B1-9b2f-77aa", "S1")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestConversationService_DeleteMovesLastMessageAt(t *testing.T) {
	f := newConvFixture(t)
	ctx := context.Background()
	first, err := f.svc.SendMessage(ctx, "S1-B1-A1", SendInput{SenderUID: "B1", RecipientUID: "S1", Text: "unu"})
	require.NoError(t, err)
	second, err := f.svc.SendMessage(ctx, "S1-B1-A1", SendInput{SenderUID: "B1", RecipientUID: "S1", Text: "doi"})
	require.NoError(t, err)

	sums, err := f.svc.ListByUser(ctx, "B1")
	require.NoError(t, err)
	require.Equal(t, second.CreatedAt, sums[0].LastMessageAt)

	require.NoError(t, f.svc.DeleteMessage(ctx, second.ID, "B1"))
	sums, err = f.svc.ListByUser(ctx, "B1")
	require.NoError(t, err)
	require.Equal(t, first.CreatedAt, sums[0].LastMessageAt)
}
