package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Model is the notifications table row. DedupeKey makes redelivered
// verdicts a no-op.
type Model struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID       int64      `gorm:"column:user_id;not null;index:idx_notifications_user_unread,priority:1"`
	Type         string     `gorm:"column:type;not null"`
	Title        string     `gorm:"column:title;not null"`
	Body         string     `gorm:"column:body;type:text"`
	ReviewID     string     `gorm:"column:review_id"`
	RestaurantID string     `gorm:"column:restaurant_id"`
	Reason       string     `gorm:"column:reason"`
	DedupeKey    string     `gorm:"column:dedupe_key;uniqueIndex"`
	IsRead       bool       `gorm:"column:is_read;not null;default:false;index:idx_notifications_user_unread,priority:2"`
	ReadAt       *time.Time `gorm:"column:read_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;index"`
}

func (Model) TableName() string { return "notifications" }

func toDomain(m Model) Notification {
	return Notification{
		ID:     m.ID,
		UserID: m.UserID,
		Type:   Type(m.Type),
		Title:  m.Title,
		Body:   m.Body,
		Data: Data{
			ReviewID:     m.ReviewID,
			RestaurantID: m.RestaurantID,
			Reason:       m.Reason,
		},
		IsRead:    m.IsRead,
		ReadAt:    m.ReadAt,
		CreatedAt: m.CreatedAt,
	}
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts n unless a row with the same dedupe key exists. It reports
// whether a row was written.
func (r *Repository) Create(ctx context.Context, n *Notification, dedupeKey string) (bool, error) {
	m := Model{
		UserID:       n.UserID,
		Type:         string(n.Type),
		Title:        n.Title,
		Body:         n.Body,
		ReviewID:     n.Data.ReviewID,
		RestaurantID: n.Data.RestaurantID,
		Reason:       n.Data.Reason,
		DedupeKey:    dedupeKey,
		CreatedAt:    n.CreatedAt,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedupe_key"}},
		DoNothing: true,
	}).Create(&m)
	if res.Error != nil {
		return false, fmt.Errorf("create notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	*n = toDomain(m)
	return true, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) ([]Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var rows []Model
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]Notification, len(rows))
	for i, m := range rows {
		out[i] = toDomain(m)
	}
	return out, nil
}

func (r *Repository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Model{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

func (r *Repository) MarkAsRead(ctx context.Context, userID, id int64, at time.Time) error {
	var m Model
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}
	if m.IsRead {
		return nil
	}
	err = r.db.WithContext(ctx).Model(&Model{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_read": true, "read_at": at}).Error
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (r *Repository) MarkAllAsRead(ctx context.Context, userID int64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Model{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	if res.Error != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteOlderThan removes notifications created before cutoff.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&Model{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete old notifications: %w", res.Error)
	}
	return res.RowsAffected, nil
}
