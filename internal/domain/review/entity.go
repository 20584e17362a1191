package review

import (
	"time"

	"besaha/internal/pkg/geo"
)

// Ratings are the five category scores a reviewer gives, each 1..5.
type Ratings struct {
	Authenticity  int `json:"authenticity" validate:"required,gte=1,lte=5"`
	Hospitality   int `json:"hospitality" validate:"required,gte=1,lte=5"`
	PriceFairness int `json:"price_fairness" validate:"required,gte=1,lte=5"`
	Hygiene       int `json:"hygiene" validate:"required,gte=1,lte=5"`
	CulturalVibe  int `json:"cultural_vibe" validate:"required,gte=1,lte=5"`
}

func (r Ratings) Validate() error {
	for _, v := range []int{r.Authenticity, r.Hospitality, r.PriceFairness, r.Hygiene, r.CulturalVibe} {
		if v < 1 || v > 5 {
			return ErrInvalidRatings
		}
	}
	return nil
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
	// StatusFailed records a transient infrastructure error; the review can be re-driven.
	StatusFailed Status = "failed"
)

// Terminal reports whether no further verification may change the review.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

type Review struct {
	ID                 string           `json:"id"`
	RestaurantID       string           `json:"restaurant_id"`
	UserID             int64            `json:"user_id"`
	UserName           string           `json:"user_name"`
	Ratings            Ratings          `json:"ratings"`
	Text               string           `json:"text"`
	MediaURLs          []string         `json:"media_urls"`
	UserLocation       *geo.Coordinates `json:"user_location,omitempty"`
	Status             Status           `json:"status"`
	Verified           bool             `json:"verified"`
	VerificationReason string           `json:"verification_reason,omitempty"`
	HelpfulCount       int              `json:"helpful_count"`
	VerifiedAt         *time.Time       `json:"verified_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

const (
	BadgeVerified = "Verified Visit"
	BadgePending  = "Verification Pending"
)

// Badge is the label shown next to the review.
func (r *Review) Badge() string {
	switch r.Status {
	case StatusVerified:
		return BadgeVerified
	case StatusRejected:
		return "Verification Failed: " + r.VerificationReason
	case StatusFailed:
		if r.VerificationReason == "" {
			return BadgePending
		}
		return "Verification Failed: " + r.VerificationReason
	default:
		return BadgePending
	}
}
