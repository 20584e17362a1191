package restaurant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"besaha/internal/pkg/geo"
	"besaha/internal/pkg/utils"
)

type Filters struct {
	City     string
	Category string
	Limit    int
	Offset   int
}

// Model is the restaurants table row. Exported so migrations can register it.
type Model struct {
	ID               string    `gorm:"column:id;primaryKey;type:varchar(64)"`
	Name             string    `gorm:"column:name;not null"`
	City             string    `gorm:"column:city;index"`
	Category         string    `gorm:"column:category;index"`
	Description      string    `gorm:"column:description"`
	Lat              float64   `gorm:"column:lat;not null"`
	Lng              float64   `gorm:"column:lng;not null"`
	Images           string    `gorm:"column:images;type:text"`
	PriceRange       string    `gorm:"column:price_range"`
	ReviewsCount     int       `gorm:"column:reviews_count;not null;default:0"`
	AvgAuthenticity  *float64  `gorm:"column:avg_authenticity"`
	AvgHospitality   *float64  `gorm:"column:avg_hospitality"`
	AvgPriceFairness *float64  `gorm:"column:avg_price_fairness"`
	AvgHygiene       *float64  `gorm:"column:avg_hygiene"`
	AvgCulturalVibe  *float64  `gorm:"column:avg_cultural_vibe"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (Model) TableName() string { return "restaurants" }

func toDomain(m Model) Restaurant {
	r := Restaurant{
		ID:          m.ID,
		Name:        m.Name,
		City:        m.City,
		Category:    m.Category,
		Description: m.Description,
		Coordinates: geo.Coordinates{Lat: m.Lat, Lng: m.Lng},
		Images:      utils.DecodePhotos(m.Images),
		PriceRange:  m.PriceRange,
		Meta:        Meta{ReviewsCount: m.ReviewsCount},
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	// all five columns are written together; one NULL means no aggregate yet
	if m.AvgAuthenticity != nil && m.AvgHospitality != nil && m.AvgPriceFairness != nil &&
		m.AvgHygiene != nil && m.AvgCulturalVibe != nil {
		r.Meta.AvgScores = &Scores{
			Authenticity:  *m.AvgAuthenticity,
			Hospitality:   *m.AvgHospitality,
			PriceFairness: *m.AvgPriceFairness,
			Hygiene:       *m.AvgHygiene,
			CulturalVibe:  *m.AvgCulturalVibe,
		}
	}
	return r
}

func toModel(r *Restaurant) Model {
	m := Model{
		ID:          r.ID,
		Name:        r.Name,
		City:        r.City,
		Category:    r.Category,
		Description: r.Description,
		Lat:         r.Coordinates.Lat,
		Lng:         r.Coordinates.Lng,
		Images:      utils.EncodePhotos(r.Images),
		PriceRange:  r.PriceRange,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	applyMeta(&m, r.Meta)
	return m
}

func applyMeta(m *Model, meta Meta) {
	m.ReviewsCount = meta.ReviewsCount
	if meta.AvgScores == nil {
		m.AvgAuthenticity, m.AvgHospitality, m.AvgPriceFairness, m.AvgHygiene, m.AvgCulturalVibe = nil, nil, nil, nil, nil
		return
	}
	s := *meta.AvgScores
	m.AvgAuthenticity = &s.Authenticity
	m.AvgHospitality = &s.Hospitality
	m.AvgPriceFairness = &s.PriceFairness
	m.AvgHygiene = &s.Hygiene
	m.AvgCulturalVibe = &s.CulturalVibe
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Restaurant, error) {
	var m Model
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get restaurant %s: %w", id, err)
	}
	d := toDomain(m)
	return &d, nil
}

func (r *Repository) List(ctx context.Context, f Filters) ([]Restaurant, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := r.db.WithContext(ctx).Model(&Model{})
	if f.City != "" {
		q = q.Where("city = ?", f.City)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count restaurants: %w", err)
	}

	var rows []Model
	if err := q.Order("name ASC").Limit(f.Limit).Offset(f.Offset).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list restaurants: %w", err)
	}

	out := make([]Restaurant, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomain(m))
	}
	return out, total, nil
}

// Upsert inserts the restaurant or replaces its descriptive fields. The
// aggregate is only written on insert.
func (r *Repository) Upsert(ctx context.Context, rest *Restaurant) error {
	m := toModel(rest)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "city", "category", "description", "lat", "lng", "images", "price_range", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("upsert restaurant %s: %w", rest.ID, err)
	}
	return nil
}

// LockForUpdate reads the restaurant inside tx holding a row lock until the
// transaction ends. SQLite ignores the locking clause; its single writer
// already serializes the transaction.
func LockForUpdate(tx *gorm.DB, id string) (*Restaurant, error) {
	var m Model
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d := toDomain(m)
	return &d, nil
}

// UpdateAggregate writes reviews_count and all five averages in one statement.
func UpdateAggregate(tx *gorm.DB, id string, meta Meta) error {
	var m Model
	applyMeta(&m, meta)
	res := tx.Model(&Model{}).Where("id = ?", id).Updates(map[string]any{
		"reviews_count":      m.ReviewsCount,
		"avg_authenticity":   m.AvgAuthenticity,
		"avg_hospitality":    m.AvgHospitality,
		"avg_price_fairness": m.AvgPriceFairness,
		"avg_hygiene":        m.AvgHygiene,
		"avg_cultural_vibe":  m.AvgCulturalVibe,
		"updated_at":         time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
