package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"besaha/internal/domain/restaurant"
)

func uniform(v int) Ratings {
	return Ratings{Authenticity: v, Hospitality: v, PriceFairness: v, Hygiene: v, CulturalVibe: v}
}

func TestApplyRating_FirstReview(t *testing.T) {
	got := ApplyRating(restaurant.Meta{}, Ratings{Authenticity: 5, Hospitality: 4, PriceFairness: 3, Hygiene: 2, CulturalVibe: 1})
	assert.Equal(t, 1, got.ReviewsCount)
	require.NotNil(t, got.AvgScores)
	assert.Equal(t, restaurant.Scores{Authenticity: 5, Hospitality: 4, PriceFairness: 3, Hygiene: 2, CulturalVibe: 1}, *got.AvgScores)
}

func TestApplyRating_RunningMean(t *testing.T) {
	meta := restaurant.Meta{ReviewsCount: 2, AvgScores: &restaurant.Scores{Authenticity: 4.0, Hospitality: 4.0, PriceFairness: 4.0, Hygiene: 4.0, CulturalVibe: 4.0}}
	got := ApplyRating(meta, uniform(5))
	assert.Equal(t, 3, got.ReviewsCount)
	assert.InDelta(t, 4.3, got.AvgScores.Authenticity, 1e-9)
	assert.InDelta(t, 4.3, got.AvgScores.CulturalVibe, 1e-9)

	// input untouched
	assert.Equal(t, 2, meta.ReviewsCount)
	assert.InDelta(t, 4.0, meta.AvgScores.Authenticity, 1e-9)
}

func TestApplyRating_CountWithoutScoresStartsOver(t *testing.T) {
	got := ApplyRating(restaurant.Meta{ReviewsCount: 7}, uniform(2))
	assert.Equal(t, 1, got.ReviewsCount)
	assert.InDelta(t, 2.0, got.AvgScores.Hygiene, 1e-9)
}

func TestApplyRating_Sequence(t *testing.T) {
	// each step rounds to one decimal, so 3.25 becomes 3.3 before the fifth review
	want := []float64{5.0, 4.0, 4.0, 3.3, 3.6}
	meta := restaurant.Meta{}
	for i, v := range []int{5, 3, 4, 1, 5} {
		meta = ApplyRating(meta, uniform(v))
		assert.Equal(t, i+1, meta.ReviewsCount)
		assert.InDelta(t, want[i], meta.AvgScores.PriceFairness, 1e-9, "after review %d", i+1)
	}
}

func TestApplyRating_ConstantInputIsStable(t *testing.T) {
	meta := restaurant.Meta{}
	for i := 0; i < 500; i++ {
		meta = ApplyRating(meta, uniform(4))
	}
	assert.Equal(t, 500, meta.ReviewsCount)
	assert.InDelta(t, 4.0, meta.AvgScores.Authenticity, 1e-9)
}

func TestApplyRating_LargeCountAbsorbsSmallShift(t *testing.T) {
	// (4.0*100 + 5) / 101 = 4.0099, which rounds back to 4.0
	meta := restaurant.Meta{ReviewsCount: 100, AvgScores: &restaurant.Scores{Authenticity: 4, Hospitality: 4, PriceFairness: 4, Hygiene: 4, CulturalVibe: 4}}
	got := ApplyRating(meta, uniform(5))
	assert.Equal(t, 101, got.ReviewsCount)
	assert.InDelta(t, 4.0, got.AvgScores.Hospitality, 1e-9)
}

func TestApplyRating_StaysWithinRoundingOfExactMean(t *testing.T) {
	seq := []int{5, 1, 4, 2, 3, 5, 5, 1, 2, 4}
	meta := restaurant.Meta{}
	sum := 0
	for i, v := range seq {
		meta = ApplyRating(meta, uniform(v))
		sum += v
		exact := float64(sum) / float64(i+1)
		assert.InDelta(t, exact, meta.AvgScores.Authenticity, 0.1, "after review %d", i+1)
	}
}
