package service

import (
	"context"
	"strings"
	"time"

	"github.com/hobbiz/hobbiz-backend/internal/attachment"
	"github.com/hobbiz/hobbiz-backend/internal/cache"
	"github.com/hobbiz/hobbiz-backend/internal/convkey"
	"github.com/hobbiz/hobbiz-backend/internal/events"
	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/hobbiz/hobbiz-backend/internal/reqctx"
	"github.com/hobbiz/hobbiz-backend/internal/repository"
	"github.com/hobbiz/hobbiz-backend/internal/storage"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gorm.io/gorm"
)

const previewLen = 120

type Attachment struct {
	Filename  string
	MediaType string
	Body      []byte
}

type SendInput struct {
	SenderUID      string
	RecipientUID   string
	AnnouncementID string
	Text           string
	Attachment     *Attachment
}

type ConversationSummary struct {
	model.Conversation
	HasUnread bool `json:"hasUnread"`
}

type ConversationService interface {
	Start(ctx context.Context, announcementID, buyerUID string) (convkey.Key, *model.Announcement, error)
	ListByUser(ctx context.Context, uid string) ([]ConversationSummary, error)
	ListMessages(ctx context.Context, key convkey.Key, uid string) ([]model.Message, error)
	SendMessage(ctx context.Context, key convkey.Key, in SendInput) (*model.Message, error)
	DeleteMessage(ctx context.Context, msgID, uid string) error
	MarkRead(ctx context.Context, key convkey.Key, uid string) error
}

type conversationService struct {
	convRepo  repository.ConversationRepository
	annRepo   repository.AnnouncementRepository
	notifRepo repository.NotificationRepository
	files     storage.Store
	summaries cache.SummaryCache
	bus       events.Bus
	ids       *idSource
	now       func() time.Time
}

func NewConversationService(
	convRepo repository.ConversationRepository,
	annRepo repository.AnnouncementRepository,
	notifRepo repository.NotificationRepository,
	files storage.Store,
	summaries cache.SummaryCache,
	bus events.Bus,
) ConversationService {
	if summaries == nil {
		summaries = cache.NewNoop()
	}
	return &conversationService{
		convRepo:  convRepo,
		annRepo:   annRepo,
		notifRepo: notifRepo,
		files:     files,
		summaries: summaries,
		bus:       bus,
		ids:       newIDSource(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start derives the key for buyerUID talking to the announcement's owner.
func (s *conversationService) Start(ctx context.Context, announcementID, buyerUID string) (convkey.Key, *model.Announcement, error) {
	ann, err := s.annRepo.FindByID(ctx, announcementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrNotFound
		}
		return "", nil, err
	}
	if ann.OwnerUID == buyerUID {
		return "", nil, invalid("cannot chat with yourself")
	}
	key, ok := convkey.Derive(ann.OwnerUID, buyerUID, ann.ID)
	if !ok {
		return "", nil, invalid("announcement has no owner")
	}
	return key, ann, nil
}

func (s *conversationService) ListByUser(ctx context.Context, uid string) ([]ConversationSummary, error) {
	var cached []ConversationSummary
	if err := s.summaries.Get(ctx, uid, &cached); err == nil {
		return cached, nil
	}
	convs, err := s.convRepo.FindByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	unread, err := s.convRepo.UnreadKeys(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := make([]ConversationSummary, 0, len(convs))
	for _, cv := range convs {
		out = append(out, ConversationSummary{Conversation: cv, HasUnread: unread[cv.Key]})
	}
	if err := s.summaries.Set(ctx, uid, out); err != nil {
		jww.WARN.Printf("%scache summaries: %v", reqctx.Prefix(ctx), err)
	}
	return out, nil
}

// participants resolves seller and buyer from the stored summary, then from
// a known announcement whose id ends the key, then by parsing the key. exists
// is false when none of them works.
func (s *conversationService) participants(ctx context.Context, key convkey.Key) (cv model.Conversation, exists bool, err error) {
	stored, err := s.convRepo.FindByKey(ctx, key.String())
	if err == nil {
		return *stored, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Conversation{}, false, err
	}
	cv, exists, err = s.fromAnnouncement(ctx, key)
	if err != nil || exists {
		return cv, exists, err
	}
	seller, buyer, ann, ok := convkey.Parse(key)
	if !ok {
		return model.Conversation{}, false, nil
	}
	return model.Conversation{Key: key.String(), SellerUID: seller, BuyerUID: buyer, AnnouncementID: ann}, true, nil
}

// fromAnnouncement tries every suffix of key as an announcement id. A match
// needs the key to start with the announcement owner and leave a buyer
// between the two, so ids containing the separator still resolve.
func (s *conversationService) fromAnnouncement(ctx context.Context, key convkey.Key) (model.Conversation, bool, error) {
	if s.annRepo == nil {
		return model.Conversation{}, false, nil
	}
	k := key.String()
	sep := convkey.Separator
	for i := 0; i < len(k); i++ {
		if !strings.HasPrefix(k[i:], sep) {
			continue
		}
		annID, head := k[i+len(sep):], k[:i]
		if annID == "" || head == "" {
			continue
		}
		ann, err := s.annRepo.FindByID(ctx, annID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return model.Conversation{}, false, err
		}
		prefix := ann.OwnerUID + sep
		if ann.OwnerUID == "" || !strings.HasPrefix(head, prefix) || len(head) == len(prefix) {
			continue
		}
		return model.Conversation{
			Key:            k,
			SellerUID:      ann.OwnerUID,
			BuyerUID:       head[len(prefix):],
			AnnouncementID: ann.ID,
		}, true, nil
	}
	return model.Conversation{}, false, nil
}

func (s *conversationService) ListMessages(ctx context.Context, key convkey.Key, uid string) ([]model.Message, error) {
	cv, exists, err := s.participants(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []model.Message{}, nil
	}
	if !cv.Participant(uid) {
		return nil, ErrForbidden
	}
	msgs, err := s.convRepo.ListMessages(ctx, key.String())
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

// roleFor works out the sender's role by re-deriving the key both ways, which
// stays correct for ids that contain the separator.
func roleFor(key convkey.Key, sender, recipient, announcementID string) (model.SenderRole, bool) {
	if k, ok := convkey.Derive(recipient, sender, announcementID); ok && k == key {
		return model.SenderRoleBuyer, true
	}
	if k, ok := convkey.Derive(sender, recipient, announcementID); ok && k == key {
		return model.SenderRoleSeller, true
	}
	return "", false
}

func (s *conversationService) SendMessage(ctx context.Context, key convkey.Key, in SendInput) (*model.Message, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" && in.Attachment == nil {
		return nil, invalid("text or attachment is required")
	}
	if in.RecipientUID == "" {
		return nil, invalid("recipientId is required")
	}
	if in.RecipientUID == in.SenderUID {
		return nil, invalid("cannot message yourself")
	}
	known, exists, err := s.participants(ctx, key)
	if err != nil {
		return nil, err
	}
	var cv *model.Conversation
	if exists {
		if !known.Participant(in.SenderUID) || known.Other(in.SenderUID) != in.RecipientUID {
			return nil, ErrForbidden
		}
		if in.AnnouncementID != "" && in.AnnouncementID != known.AnnouncementID {
			return nil, ErrForbidden
		}
		in.AnnouncementID = known.AnnouncementID
		cv = &known
	} else {
		// neither stored, parseable nor tied to a known announcement
		role, ok := roleFor(key, in.SenderUID, in.RecipientUID, in.AnnouncementID)
		if !ok {
			return nil, ErrForbidden
		}
		cv = &model.Conversation{Key: key.String(), AnnouncementID: in.AnnouncementID}
		if role == model.SenderRoleSeller {
			cv.SellerUID, cv.BuyerUID = in.SenderUID, in.RecipientUID
		} else {
			cv.SellerUID, cv.BuyerUID = in.RecipientUID, in.SenderUID
		}
	}
	role := model.SenderRoleBuyer
	if in.SenderUID == cv.SellerUID {
		role = model.SenderRoleSeller
	}
	if err := s.checkOwner(ctx, cv); err != nil {
		return nil, err
	}

	now := s.now()
	msg := &model.Message{
		ID:              s.ids.next(now),
		ConversationKey: key.String(),
		SenderUID:       in.SenderUID,
		SenderRole:      role,
		RecipientUID:    in.RecipientUID,
		AnnouncementID:  in.AnnouncementID,
		CreatedAt:       now,
	}
	if text != "" {
		msg.Text = &text
	}
	if a := in.Attachment; a != nil {
		if err := attachment.Validate(a.MediaType, int64(len(a.Body))); err != nil {
			return nil, invalid(err.Error())
		}
		if s.files == nil {
			return nil, errors.New("attachment storage not configured")
		}
		u, err := s.files.Put(ctx, a.Filename, a.MediaType, a.Body)
		if err != nil {
			return nil, errors.WithMessage(err, "store attachment")
		}
		msg.ImageURL = &u
		if a.Filename != "" {
			name := a.Filename
			msg.OriginalFilename = &name
		}
	}

	if err := s.convRepo.CreateMessage(ctx, cv, msg); err != nil {
		return nil, err
	}
	s.summaries.Invalidate(ctx, cv.SellerUID, cv.BuyerUID)
	s.publish(ctx, msg)
	return msg, nil
}

// checkOwner rejects a seller that does not own a known announcement. Unknown
// announcements pass, they may live only in the listings backend.
func (s *conversationService) checkOwner(ctx context.Context, cv *model.Conversation) error {
	if s.annRepo == nil {
		return nil
	}
	ann, err := s.annRepo.FindByID(ctx, cv.AnnouncementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if ann.OwnerUID != cv.SellerUID {
		return invalid("seller does not own the announcement")
	}
	return nil
}

func (s *conversationService) publish(ctx context.Context, msg *model.Message) {
	if s.bus == nil {
		return
	}
	ev := events.MessageCreated{
		MessageID:       msg.ID,
		ConversationKey: msg.ConversationKey,
		SenderUID:       msg.SenderUID,
		RecipientUID:    msg.RecipientUID,
		AnnouncementID:  msg.AnnouncementID,
		HasAttachment:   msg.ImageURL != nil,
		CreatedAt:       msg.CreatedAt,
	}
	if msg.Text != nil {
		ev.Preview = truncate(*msg.Text, previewLen)
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		jww.WARN.Printf("%spublish %s: %+v", reqctx.Prefix(ctx), msg.ID, err)
	}
}

func (s *conversationService) DeleteMessage(ctx context.Context, msgID, uid string) error {
	msg, err := s.convRepo.FindMessage(ctx, msgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if msg.SenderUID != uid {
		return ErrForbidden
	}
	if err := s.convRepo.DeleteMessage(ctx, msgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.summaries.Invalidate(ctx, msg.SenderUID, msg.RecipientUID)
	return nil
}

func (s *conversationService) MarkRead(ctx context.Context, key convkey.Key, uid string) error {
	cv, exists, err := s.participants(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	if !cv.Participant(uid) {
		return ErrForbidden
	}
	if err := s.convRepo.MarkRead(ctx, key.String(), uid, s.now()); err != nil {
		return err
	}
	if s.notifRepo != nil {
		if err := s.notifRepo.MarkByConversation(ctx, uid, key.String()); err != nil {
			jww.WARN.Printf("%smark notifications read for %s: %v", reqctx.Prefix(ctx), key, err)
		}
	}
	s.summaries.Invalidate(ctx, uid)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
