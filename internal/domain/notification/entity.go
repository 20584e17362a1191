package notification

import "time"

type Type string

const (
	TypeReviewVerified Type = "review_verified"
	TypeReviewRejected Type = "review_rejected"
)

// Data links a notification to the review it is about.
type Data struct {
	ReviewID     string `json:"review_id"`
	RestaurantID string `json:"restaurant_id"`
	Reason       string `json:"reason,omitempty"`
}

// Notification is an entry in a reviewer's inbox.
type Notification struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Type      Type       `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Data      Data       `json:"data"`
	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type ListResponse struct {
	Items       []Notification `json:"items"`
	UnreadCount int64          `json:"unread_count"`
}
