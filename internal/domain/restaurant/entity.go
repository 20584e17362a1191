package restaurant

import (
	"math"
	"time"

	"besaha/internal/pkg/geo"
)

// Scores holds per-category averages, one decimal place.
type Scores struct {
	Authenticity  float64 `json:"authenticity"`
	Hospitality   float64 `json:"hospitality"`
	PriceFairness float64 `json:"price_fairness"`
	Hygiene       float64 `json:"hygiene"`
	CulturalVibe  float64 `json:"cultural_vibe"`
}

// Overall is the rounded mean of the five categories.
func (s Scores) Overall() float64 {
	sum := s.Authenticity + s.Hospitality + s.PriceFairness + s.Hygiene + s.CulturalVibe
	return math.Round(sum/5*10) / 10
}

// Meta is the aggregate derived from verified reviews. AvgScores is nil until
// the first verified review is counted.
type Meta struct {
	ReviewsCount int     `json:"reviews_count"`
	AvgScores    *Scores `json:"avg_scores,omitempty"`
}

type Restaurant struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	City        string          `json:"city"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Coordinates geo.Coordinates `json:"coordinates"`
	Images      []string        `json:"images"`
	PriceRange  string          `json:"price_range"`
	Meta        Meta            `json:"meta"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Rating is the overall score shown on cards; nil means "New".
func (r *Restaurant) Rating() *float64 {
	if r.Meta.AvgScores == nil {
		return nil
	}
	v := r.Meta.AvgScores.Overall()
	return &v
}

// Cities served by the guide.
const (
	CityMarrakech  = "Marrakech"
	CityCasablanca = "Casablanca"
	CityFes        = "Fes"
	CityTangier    = "Tangier"
)
