package chat

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"besaha/internal/domain/user"
)

// Model is the chat_messages table row. Badges are a snapshot taken when
// the message was posted.
type Model struct {
	ID                 string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	Channel            string    `gorm:"column:channel;not null;index:idx_chat_channel_created,priority:1"`
	UserID             int64     `gorm:"column:user_id;not null"`
	UserName           string    `gorm:"column:user_name"`
	Text               string    `gorm:"column:text;type:text;not null"`
	Type               string    `gorm:"column:type;not null;default:text"`
	IsLocal            bool      `gorm:"column:is_local"`
	IsTraveler         bool      `gorm:"column:is_traveler"`
	IsCommunityTrusted bool      `gorm:"column:is_community_trusted"`
	CreatedAt          time.Time `gorm:"column:created_at;index:idx_chat_channel_created,priority:2"`
}

func (Model) TableName() string { return "chat_messages" }

func toDomain(m Model) Message {
	return Message{
		ID:       m.ID,
		Channel:  m.Channel,
		UserID:   m.UserID,
		UserName: m.UserName,
		Text:     m.Text,
		Type:     MessageType(m.Type),
		Badges: user.Badges{
			Local:            m.IsLocal,
			Traveler:         m.IsTraveler,
			CommunityTrusted: m.IsCommunityTrusted,
		},
		CreatedAt: m.CreatedAt,
	}
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func toModel(msg *Message) *Model {
	return &Model{
		ID:                 msg.ID,
		Channel:            msg.Channel,
		UserID:             msg.UserID,
		UserName:           msg.UserName,
		Text:               msg.Text,
		Type:               string(msg.Type),
		IsLocal:            msg.Badges.Local,
		IsTraveler:         msg.Badges.Traveler,
		IsCommunityTrusted: msg.Badges.CommunityTrusted,
		CreatedAt:          msg.CreatedAt,
	}
}

func (r *Repository) Create(ctx context.Context, msg *Message) error {
	if err := r.db.WithContext(ctx).Create(toModel(msg)).Error; err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}
	return nil
}

// ListRecent returns the newest limit messages in ascending order.
func (r *Repository) ListRecent(ctx context.Context, channel string, limit int) ([]Message, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}

	var rows []Model
	err := r.db.WithContext(ctx).
		Where("channel = ?", channel).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}

	out := make([]Message, len(rows))
	for i, m := range rows {
		out[len(rows)-1-i] = toDomain(m)
	}
	return out, nil
}
