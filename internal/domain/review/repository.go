package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"besaha/internal/pkg/geo"
	"besaha/internal/pkg/utils"
)

// Model is the reviews table row.
type Model struct {
	ID                  string     `gorm:"column:id;primaryKey;type:varchar(36)"`
	RestaurantID        string     `gorm:"column:restaurant_id;not null;index:idx_reviews_restaurant_created,priority:1"`
	UserID              int64      `gorm:"column:user_id;not null;index"`
	UserName            string     `gorm:"column:user_name"`
	RatingAuthenticity  int        `gorm:"column:rating_authenticity;not null"`
	RatingHospitality   int        `gorm:"column:rating_hospitality;not null"`
	RatingPriceFairness int        `gorm:"column:rating_price_fairness;not null"`
	RatingHygiene       int        `gorm:"column:rating_hygiene;not null"`
	RatingCulturalVibe  int        `gorm:"column:rating_cultural_vibe;not null"`
	Text                string     `gorm:"column:text;type:text"`
	MediaURLs           string     `gorm:"column:media_urls;type:text"`
	Lat                 *float64   `gorm:"column:lat"`
	Lng                 *float64   `gorm:"column:lng"`
	Status              string     `gorm:"column:status;not null;default:pending;index"`
	Verified            bool       `gorm:"column:verified;not null;default:false"`
	VerificationReason  *string    `gorm:"column:verification_reason"`
	HelpfulCount        int        `gorm:"column:helpful_count;not null;default:0"`
	VerifiedAt          *time.Time `gorm:"column:verified_at"`
	CreatedAt           time.Time  `gorm:"column:created_at;index:idx_reviews_restaurant_created,priority:2"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
}

func (Model) TableName() string { return "reviews" }

// redrivable are the statuses a verifier may still move forward.
var redrivable = []string{string(StatusPending), string(StatusFailed)}

func toDomain(m Model) Review {
	r := Review{
		ID:           m.ID,
		RestaurantID: m.RestaurantID,
		UserID:       m.UserID,
		UserName:     m.UserName,
		Ratings: Ratings{
			Authenticity:  m.RatingAuthenticity,
			Hospitality:   m.RatingHospitality,
			PriceFairness: m.RatingPriceFairness,
			Hygiene:       m.RatingHygiene,
			CulturalVibe:  m.RatingCulturalVibe,
		},
		Text:         m.Text,
		MediaURLs:    utils.DecodePhotos(m.MediaURLs),
		Status:       Status(m.Status),
		Verified:     m.Verified,
		HelpfulCount: m.HelpfulCount,
		VerifiedAt:   m.VerifiedAt,
		CreatedAt:    m.CreatedAt,
	}
	if m.Lat != nil && m.Lng != nil {
		r.UserLocation = &geo.Coordinates{Lat: *m.Lat, Lng: *m.Lng}
	}
	if m.VerificationReason != nil {
		r.VerificationReason = *m.VerificationReason
	}
	return r
}

func toModel(r *Review) Model {
	m := Model{
		ID:                  r.ID,
		RestaurantID:        r.RestaurantID,
		UserID:              r.UserID,
		UserName:            r.UserName,
		RatingAuthenticity:  r.Ratings.Authenticity,
		RatingHospitality:   r.Ratings.Hospitality,
		RatingPriceFairness: r.Ratings.PriceFairness,
		RatingHygiene:       r.Ratings.Hygiene,
		RatingCulturalVibe:  r.Ratings.CulturalVibe,
		Text:                r.Text,
		MediaURLs:           utils.EncodePhotos(r.MediaURLs),
		Status:              string(r.Status),
		Verified:            r.Verified,
		HelpfulCount:        r.HelpfulCount,
		VerifiedAt:          r.VerifiedAt,
		CreatedAt:           r.CreatedAt,
	}
	if r.UserLocation != nil {
		lat, lng := r.UserLocation.Lat, r.UserLocation.Lng
		m.Lat, m.Lng = &lat, &lng
	}
	if r.VerificationReason != "" {
		reason := r.VerificationReason
		m.VerificationReason = &reason
	}
	return m
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Create stores a new pending review. Verification fields supplied by the
// caller are ignored.
func (r *Repository) Create(ctx context.Context, rv *Review) error {
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	rv.Status = StatusPending
	rv.Verified = false
	rv.VerificationReason = ""
	rv.VerifiedAt = nil
	rv.HelpfulCount = 0
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = time.Now().UTC()
	}

	m := toModel(rv)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	*rv = toDomain(m)
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Review, error) {
	var m Model
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get review %s: %w", id, err)
	}
	d := toDomain(m)
	return &d, nil
}

// ListByRestaurant returns reviews newest first.
func (r *Repository) ListByRestaurant(ctx context.Context, restaurantID string, limit, offset int) ([]Review, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := r.db.WithContext(ctx).Model(&Model{}).Where("restaurant_id = ?", restaurantID)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	var rows []Model
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	out := make([]Review, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomain(m))
	}
	return out, total, nil
}

// ListRedrivable returns failed reviews and pending reviews created before
// pendingBefore, least recently touched first. Every failed attempt bumps
// updated_at, so reviews that keep failing move behind the rest.
func (r *Repository) ListRedrivable(ctx context.Context, pendingBefore time.Time, limit int) ([]Review, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []Model
	err := r.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND created_at < ?)", StatusFailed, StatusPending, pendingBefore).
		Order("updated_at ASC").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list redrivable reviews: %w", err)
	}
	out := make([]Review, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomain(m))
	}
	return out, nil
}

// SetVerification records a rejected or failed outcome. It only touches
// reviews that have no terminal verdict yet and reports whether a row changed.
func (r *Repository) SetVerification(ctx context.Context, id string, status Status, reason string) (bool, error) {
	if status == StatusVerified {
		return false, fmt.Errorf("set verification: verified outcomes must go through the verification transaction")
	}
	res := r.db.WithContext(ctx).
		Model(&Model{}).
		Where("id = ? AND status IN ?", id, redrivable).
		Updates(map[string]any{
			"status":              string(status),
			"verified":            false,
			"verification_reason": reason,
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("set verification for %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) IncrementHelpful(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Model{}).Where("id = ?", id).
			Update("helpful_count", gorm.Expr("helpful_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&Model{}).Where("id = ?", id).Pluck("helpful_count", &count).Error
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// lockForVerification reads the review inside tx with a row lock.
func lockForVerification(tx *gorm.DB, id string) (*Model, error) {
	var m Model
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// markVerified moves a redrivable review to verified inside tx.
func markVerified(tx *gorm.DB, id, reason string, at time.Time) (bool, error) {
	res := tx.Model(&Model{}).
		Where("id = ? AND status IN ?", id, redrivable).
		Updates(map[string]any{
			"status":              string(StatusVerified),
			"verified":            true,
			"verification_reason": reason,
			"verified_at":         at,
			"updated_at":          at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
