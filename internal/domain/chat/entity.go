package chat

import (
	"time"

	"besaha/internal/domain/user"
)

type Channel struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Channels are the fixed community topics.
var Channels = []Channel{
	{ID: "general", Label: "Global Souk", Description: "General chat & introductions"},
	{ID: "gems", Label: "Hidden Gems", Description: "Share secret spots & tips"},
	{ID: "safety", Label: "Safety & Scams", Description: "Warnings & travel advice"},
	{ID: "foodies", Label: "Food Lovers", Description: "Best dishes to try"},
}

func KnownChannel(id string) bool {
	for _, ch := range Channels {
		if ch.ID == id {
			return true
		}
	}
	return false
}

type MessageType string

const (
	MessageText     MessageType = "text"
	MessageTip      MessageType = "tip"
	MessageWarning  MessageType = "warning"
	MessageQuestion MessageType = "question"
)

// HistoryLimit is how many recent messages a channel returns.
const HistoryLimit = 50

type Message struct {
	ID        string      `json:"id"`
	Channel   string      `json:"channel"`
	UserID    int64       `json:"user_id"`
	UserName  string      `json:"user_name"`
	Text      string      `json:"text"`
	Type      MessageType `json:"type"`
	Badges    user.Badges `json:"badges"`
	CreatedAt time.Time   `json:"created_at"`
}
