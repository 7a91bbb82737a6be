package chatclient

import (
	"context"
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/hobbiz/hobbiz-backend/internal/attachment"
	"github.com/hobbiz/hobbiz-backend/internal/convkey"
	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// TempIDPrefix marks messages that the server has not confirmed yet.
const TempIDPrefix = "tmp-"

var (
	ErrSendInFlight = errors.New("a message is already being sent")
	ErrNotOpen      = errors.New("session is not open")
	ErrEmptyDraft   = errors.New("text or attachment is required")
	ErrNoRecipient  = errors.New("recipient and sender are required")
	ErrNotOwner     = errors.New("only your own confirmed messages can be deleted")
)

type State int

const (
	Closed State = iota
	Loading
	Ready
	Sending
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Sending:
		return "sending"
	}
	return "unknown"
}

// OpStatus is the lifecycle of an optimistic send.
type OpStatus int

const (
	Pending OpStatus = iota
	Committed
	RolledBack
)

func (s OpStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled back"
	}
	return "unknown"
}

// MessageAPI is the part of *APIClient a session needs.
type MessageAPI interface {
	Messages(ctx context.Context, key convkey.Key) ([]model.Message, error)
	CreateMessage(ctx context.Context, key convkey.Key, in CreateMessage) (*model.Message, error)
	DeleteMessage(ctx context.Context, id string) error
}

// Entry is a message in the visible list. Seq is non-zero for entries
// created by Send and identifies the optimistic entry to reconcile.
type Entry struct {
	model.Message
	Seq uint64
}

// Pending reports whether the entry still waits for the server.
func (e Entry) Pending() bool {
	return strings.HasPrefix(e.ID, TempIDPrefix)
}

type Draft struct {
	Text       string
	Attachment *Attachment
}

// Session holds the open conversation of one screen.
type Session struct {
	api    MessageAPI
	selfID string

	mu             sync.Mutex
	state          State
	gen            uint64
	key            convkey.Key
	recipientID    string
	announcementID string
	entries        []Entry
	draft          Draft
	loadFailed     bool

	seq     uint64
	ops     map[uint64]OpStatus
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func NewSession(api MessageAPI, selfID string) *Session {
	return &Session{
		api:     api,
		selfID:  selfID,
		ops:     make(map[uint64]OpStatus),
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Open loads the history of key. On failure the session is still Ready, with
// an empty list and LoadFailed set; there is no retry.
func (s *Session) Open(ctx context.Context, key convkey.Key, recipientID, announcementID string) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = Loading
	s.key = key
	s.recipientID = recipientID
	s.announcementID = announcementID
	s.entries = nil
	s.draft = Draft{}
	s.loadFailed = false
	s.mu.Unlock()

	msgs, err := s.api.Messages(ctx, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// closed or reopened while loading
		return nil
	}
	s.state = Ready
	if err != nil {
		s.loadFailed = true
		jww.WARN.Printf("chat: loading %s failed: %v", key, err)
		return errors.WithMessage(err, "load messages")
	}
	s.entries = make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		s.entries = append(s.entries, Entry{Message: m})
	}
	return nil
}

// Close drops the list and the draft.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.state = Closed
	s.entries = nil
	s.draft = Draft{}
	s.loadFailed = false
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) LoadFailed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadFailed
}

// Messages returns a copy of the visible list.
func (s *Session) Messages() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Session) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Text = text
}

// Attach validates a and puts it in the draft. A rejected file leaves the
// draft unchanged.
func (s *Session) Attach(a Attachment) error {
	if err := attachment.Validate(a.MediaType, int64(len(a.Body))); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Attachment = &a
	return nil
}

func (s *Session) ClearAttachment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Attachment = nil
}

func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// OpStatus reports what happened to the send with sequence number seq.
func (s *Session) OpStatus(seq uint64) (OpStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.ops[seq]
	return st, ok
}

// Send posts the draft. The message shows up at once under a temporary id
// and is swapped for the server copy when the request succeeds, or removed
// with the draft restored when it fails.
func (s *Session) Send(ctx context.Context) (*model.Message, error) {
	s.mu.Lock()
	switch s.state {
	case Sending:
		s.mu.Unlock()
		return nil, ErrSendInFlight
	case Ready:
	default:
		s.mu.Unlock()
		return nil, ErrNotOpen
	}
	draft := s.draft
	text := strings.TrimSpace(draft.Text)
	if text == "" && draft.Attachment == nil {
		s.mu.Unlock()
		return nil, ErrEmptyDraft
	}
	if s.recipientID == "" || s.selfID == "" {
		s.mu.Unlock()
		return nil, ErrNoRecipient
	}

	s.seq++
	seq, gen, key := s.seq, s.gen, s.key
	now := s.now()
	optimistic := Entry{
		Seq: seq,
		Message: model.Message{
			ID:              TempIDPrefix + ulid.MustNew(ulid.Timestamp(now), s.entropy).String(),
			ConversationKey: key.String(),
			SenderUID:       s.selfID,
			RecipientUID:    s.recipientID,
			AnnouncementID:  s.announcementID,
			CreatedAt:       now,
		},
	}
	if text != "" {
		optimistic.Text = &text
	}
	if draft.Attachment != nil {
		name := draft.Attachment.Filename
		optimistic.OriginalFilename = &name
	}
	s.entries = append(s.entries, optimistic)
	s.ops[seq] = Pending
	s.draft = Draft{}
	s.state = Sending
	req := CreateMessage{
		RecipientID:    s.recipientID,
		AnnouncementID: s.announcementID,
		Text:           text,
		Attachment:     draft.Attachment,
	}
	s.mu.Unlock()

	msg, err := s.api.CreateMessage(ctx, key, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.ops[seq] = RolledBack
		if err != nil {
			return nil, err
		}
		return msg, nil
	}
	s.state = Ready
	i := s.indexOfSeq(seq)
	if err != nil {
		if i >= 0 {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
		}
		s.draft = draft
		s.ops[seq] = RolledBack
		jww.WARN.Printf("chat: send to %s failed: %v", key, err)
		return nil, err
	}
	if i >= 0 {
		s.entries[i] = Entry{Message: *msg, Seq: seq}
	}
	s.ops[seq] = Committed
	return msg, nil
}

func (s *Session) indexOfSeq(seq uint64) int {
	for i, e := range s.entries {
		if e.Seq == seq {
			return i
		}
	}
	return -1
}

// Delete removes one of the user's own confirmed messages. On failure the
// message stays in the list.
func (s *Session) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.state == Closed || s.state == Loading {
		s.mu.Unlock()
		return ErrNotOpen
	}
	idx := -1
	for i, e := range s.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 || s.entries[idx].SenderUID != s.selfID || s.entries[idx].Pending() {
		s.mu.Unlock()
		return ErrNotOwner
	}
	gen := s.gen
	s.mu.Unlock()

	if err := s.api.DeleteMessage(ctx, id); err != nil {
		jww.WARN.Printf("chat: delete %s failed: %v", id, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	return nil
}
