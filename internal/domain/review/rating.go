package review

import (
	"math"

	"besaha/internal/domain/restaurant"
)

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// ApplyRating folds one verified review into the running aggregate.
// Each category mean is rounded to one decimal on every step, so the result
// drifts from the exact mean over many reviews. A meta with a positive count
// but no averages is treated as empty.
func ApplyRating(meta restaurant.Meta, r Ratings) restaurant.Meta {
	if meta.AvgScores == nil || meta.ReviewsCount <= 0 {
		return restaurant.Meta{
			ReviewsCount: 1,
			AvgScores: &restaurant.Scores{
				Authenticity:  float64(r.Authenticity),
				Hospitality:   float64(r.Hospitality),
				PriceFairness: float64(r.PriceFairness),
				Hygiene:       float64(r.Hygiene),
				CulturalVibe:  float64(r.CulturalVibe),
			},
		}
	}

	n := float64(meta.ReviewsCount)
	avg := *meta.AvgScores
	next := func(prev float64, v int) float64 {
		return round1((prev*n + float64(v)) / (n + 1))
	}

	return restaurant.Meta{
		ReviewsCount: meta.ReviewsCount + 1,
		AvgScores: &restaurant.Scores{
			Authenticity:  next(avg.Authenticity, r.Authenticity),
			Hospitality:   next(avg.Hospitality, r.Hospitality),
			PriceFairness: next(avg.PriceFairness, r.PriceFairness),
			Hygiene:       next(avg.Hygiene, r.Hygiene),
			CulturalVibe:  next(avg.CulturalVibe, r.CulturalVibe),
		},
	}
}
