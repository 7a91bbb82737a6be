package repository

import (
	"context"
	"time"

	"github.com/hobbiz/hobbiz-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepository interface {
	FindByKey(ctx context.Context, key string) (*model.Conversation, error)
	FindByUser(ctx context.Context, uid string) ([]model.Conversation, error)
	UnreadKeys(ctx context.Context, uid string) (map[string]bool, error)
	MarkRead(ctx context.Context, key, uid string, at time.Time) error
	CreateMessage(ctx context.Context, cv *model.Conversation, msg *model.Message) error
	ListMessages(ctx context.Context, key string) ([]model.Message, error)
	FindMessage(ctx context.Context, id string) (*model.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	SetDB(db *gorm.DB)
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *conversationRepository) FindByKey(ctx context.Context, key string) (*model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var cv model.Conversation
	if err := r.db.WithContext(ctx).Where("conversation_key = ?", key).First(&cv).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *conversationRepository) FindByUser(ctx context.Context, uid string) ([]model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Conversation
	if err := r.db.WithContext(ctx).
		Where("seller_uid = ? OR buyer_uid = ?", uid, uid).
		Order("last_message_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// UnreadKeys returns the conversations holding a message addressed to uid that
// is newer than uid's last read mark.
func (r *conversationRepository) UnreadKeys(ctx context.Context, uid string) (map[string]bool, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var keys []string
	if err := r.db.WithContext(ctx).
		Table("messages AS m").
		Joins("LEFT JOIN conversation_states s ON s.conversation_key = m.conversation_key AND s.uid = ?", uid).
		Where("m.recipient_uid = ? AND (s.last_read_at IS NULL OR m.created_at > s.last_read_at)", uid).
		Distinct().
		Pluck("m.conversation_key", &keys).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		out[k] = true
	}
	return out, nil
}

func (r *conversationRepository) MarkRead(ctx context.Context, key, uid string, at time.Time) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	st := model.ConversationState{ConversationKey: key, UID: uid, LastReadAt: at}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_key"}, {Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_read_at", "updated_at"}),
	}).Create(&st).Error
}

// CreateMessage stores msg and creates or touches the conversation summary in
// one transaction.
func (r *conversationRepository) CreateMessage(ctx context.Context, cv *model.Conversation, msg *model.Message) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_key = ?", cv.Key).FirstOrCreate(cv).Error; err != nil {
			return err
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		cv.LastMessageAt = msg.CreatedAt
		return tx.Model(&model.Conversation{}).
			Where("conversation_key = ?", cv.Key).
			Update("last_message_at", msg.CreatedAt).Error
	})
}

func (r *conversationRepository) ListMessages(ctx context.Context, key string) ([]model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msgs []model.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_key = ?", key).
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *conversationRepository) FindMessage(ctx context.Context, id string) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var m model.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMessage removes the message and moves the summary's last_message_at
// back to the newest remaining message, or to the conversation's creation
// when none is left.
func (r *conversationRepository) DeleteMessage(ctx context.Context, id string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.Message
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Message{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		var latest []model.Message
		if err := tx.Where("conversation_key = ?", m.ConversationKey).
			Order("id DESC").
			Limit(1).
			Find(&latest).Error; err != nil {
			return err
		}
		last := interface{}(gorm.Expr("created_at"))
		if len(latest) > 0 {
			last = latest[0].CreatedAt
		}
		return tx.Model(&model.Conversation{}).
			Where("conversation_key = ?", m.ConversationKey).
			Update("last_message_at", last).Error
	})
}
