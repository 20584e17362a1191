package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Model is the users table row.
type Model struct {
	ID                 int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name               string    `gorm:"column:name;not null"`
	Email              string    `gorm:"column:email;index"`
	AvatarURL          string    `gorm:"column:avatar_url"`
	Role               string    `gorm:"column:role;not null;default:member"`
	ContributionsCount int       `gorm:"column:contributions_count;not null;default:0"`
	IsLocal            bool      `gorm:"column:is_local;not null;default:false"`
	IsTraveler         bool      `gorm:"column:is_traveler;not null;default:false"`
	IsCommunityTrusted bool      `gorm:"column:is_community_trusted;not null;default:false"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (Model) TableName() string { return "users" }

func toDomain(m Model) User {
	return User{
		ID:                 m.ID,
		Name:               m.Name,
		Email:              m.Email,
		AvatarURL:          m.AvatarURL,
		Role:               m.Role,
		ContributionsCount: m.ContributionsCount,
		Badges: Badges{
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

func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	var m Model
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	u := toDomain(m)
	return &u, nil
}

// Upsert creates the user or refreshes its profile fields, keyed by id.
func (r *Repository) Upsert(ctx context.Context, u *User) error {
	role := u.Role
	if role == "" {
		role = RoleMember
	}
	m := Model{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		AvatarURL:  u.AvatarURL,
		Role:       role,
		IsLocal:    u.Badges.Local,
		IsTraveler: u.Badges.Traveler,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "avatar_url", "role", "is_local", "is_traveler", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	*u = toDomain(m)
	return nil
}

// IncrementContributions adds delta to the user's counter inside tx and
// promotes the user to community-trusted once the threshold is reached.
// It reports false when the user row does not exist.
func IncrementContributions(tx *gorm.DB, userID int64, delta int) (bool, error) {
	res := tx.Model(&Model{}).Where("id = ?", userID).Updates(map[string]any{
		"contributions_count": gorm.Expr("contributions_count + ?", delta),
		"updated_at":          time.Now().UTC(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	err := tx.Model(&Model{}).
		Where("id = ? AND contributions_count >= ? AND is_community_trusted = ?", userID, TrustedThreshold, false).
		Update("is_community_trusted", true).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateProfile applies the non-nil fields of req to the user's row.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, req UpdateProfileRequest) (*User, error) {
	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&Model{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("update user %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.GetByID(ctx, id)
}
