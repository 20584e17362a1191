package review

import (
	"time"

	"besaha/internal/domain/restaurant"
)

// CreatedEvent is published on events.TopicReviewCreated after intake.
type CreatedEvent struct {
	ReviewID     string    `json:"review_id"`
	RestaurantID string    `json:"restaurant_id"`
	UserID       int64     `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// VerdictEvent is published on events.TopicReviewVerdict whenever a
// verification records an outcome.
type VerdictEvent struct {
	ReviewID     string           `json:"review_id"`
	RestaurantID string           `json:"restaurant_id"`
	UserID       int64            `json:"user_id"`
	Status       Status           `json:"status"`
	Verified     bool             `json:"verified"`
	Reason       string           `json:"reason"`
	Badge        string           `json:"badge"`
	Meta         *restaurant.Meta `json:"meta,omitempty"`
	DecidedAt    time.Time        `json:"decided_at"`
}
