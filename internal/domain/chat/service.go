package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"besaha/internal/domain/user"
	"besaha/internal/events"
	"besaha/internal/pkg/validator"
	"besaha/internal/session"
)

const ConsumerFeed = "chat-feed"

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type PostMessageRequest struct {
	Text string      `json:"text" validate:"required,max=1000"`
	Type MessageType `json:"type" validate:"omitempty,oneof=text tip warning question"`
}

type Service struct {
	repo      *Repository
	users     UserLookup
	publisher events.Publisher
	log       *zap.SugaredLogger
}

func NewService(repo *Repository, users UserLookup, publisher events.Publisher, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, users: users, publisher: publisher, log: log.Named("chat")}
}

func (s *Service) List(ctx context.Context, channel string) ([]Message, error) {
	if !KnownChannel(channel) {
		return nil, ErrUnknownChannel
	}
	return s.repo.ListRecent(ctx, channel, HistoryLimit)
}

// Post stores a message with the author's current badges and announces it.
func (s *Service) Post(ctx context.Context, sess session.Session, channel string, req PostMessageRequest) (*Message, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthorized
	}
	if !KnownChannel(channel) {
		return nil, ErrUnknownChannel
	}
	req.Text = strings.TrimSpace(req.Text)
	if fields := validator.Validate(req); fields != nil {
		return nil, ErrInvalidRequest
	}
	if req.Type == "" {
		req.Type = MessageText
	}

	msg := &Message{
		ID:        uuid.NewString(),
		Channel:   channel,
		UserID:    sess.UserID,
		UserName:  sess.UserName,
		Text:      req.Text,
		Type:      req.Type,
		CreatedAt: time.Now().UTC(),
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	switch {
	case err == nil:
		msg.Badges = u.Badges
		if msg.UserName == "" {
			msg.UserName = u.Name
		}
	case errors.Is(err, user.ErrNotFound):
		msg.Badges = user.Badges{Traveler: true}
	default:
		return nil, err
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.TopicChatMessage, msg); err != nil {
			s.log.Warnw("publish chat message", "message_id", msg.ID, "error", err)
		}
	}
	return msg, nil
}

func ChannelTopic(channel string) string {
	return "chat:" + channel
}

// HandleMessage pushes a stored message to the channel's websocket subscribers.
func HandleMessage(hub *Hub) events.HandlerFunc {
	return func(_ context.Context, m *message.Message) error {
		var msg Message
		if err := events.Decode(m, &msg); err != nil {
			return nil
		}
		hub.Broadcast(ChannelTopic(msg.Channel), EventChatMessage, msg)
		return nil
	}
}

// Register wires the chat feed onto bus.
func Register(bus *events.Bus, hub *Hub) {
	bus.AddConsumer(ConsumerFeed, events.TopicChatMessage, HandleMessage(hub))
}
