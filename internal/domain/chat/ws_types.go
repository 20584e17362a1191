package chat

import (
	"strings"
)

// Event is a frame pushed to websocket clients.
type Event struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
	Data  any    `json:"data,omitempty"`
}

const (
	EventChatMessage  = "chat.message"
	EventSubscribed   = "subscribed"
	EventUnsubscribed = "unsubscribed"
	EventError        = "error"
)

// clientCommand is a frame sent by a websocket client.
type clientCommand struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

const (
	commandSubscribe   = "subscribe"
	commandUnsubscribe = "unsubscribe"
)

// ValidTopic accepts restaurant:<id> and chat:<known channel>.
func ValidTopic(topic string) bool {
	switch {
	case strings.HasPrefix(topic, "restaurant:"):
		return len(topic) > len("restaurant:")
	case strings.HasPrefix(topic, "chat:"):
		return KnownChannel(strings.TrimPrefix(topic, "chat:"))
	default:
		return false
	}
}

// ParseTopics splits a comma-separated topic list and drops invalid entries.
func ParseTopics(raw string) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] || !ValidTopic(t) {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
