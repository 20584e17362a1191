package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"

	"besaha/internal/domain/review"
	"besaha/internal/events"
	"besaha/internal/session"
)

const ConsumerNotifier = "review-notifier"

type Service struct {
	repo *Repository
	log  *zap.SugaredLogger
	now  func() time.Time
}

func NewService(repo *Repository, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, log: log.Named("notification"), now: time.Now}
}

// NotifyVerdict tells the author how their review was judged. Only final
// verdicts produce a notification; repeats of the same verdict are ignored.
func (s *Service) NotifyVerdict(ctx context.Context, ev review.VerdictEvent) error {
	var n Notification
	switch ev.Status {
	case review.StatusVerified:
		n = Notification{
			Type:  TypeReviewVerified,
			Title: "Review verified",
			Body:  "Your review now carries the " + review.BadgeVerified + " badge and counts toward the restaurant rating.",
		}
	case review.StatusRejected:
		n = Notification{
			Type:  TypeReviewRejected,
			Title: "Review not verified",
			Body:  ev.Badge,
		}
	default:
		return nil
	}

	n.UserID = ev.UserID
	n.Data = Data{ReviewID: ev.ReviewID, RestaurantID: ev.RestaurantID, Reason: ev.Reason}
	n.CreatedAt = s.now().UTC()

	created, err := s.repo.Create(ctx, &n, fmt.Sprintf("%s:%s", ev.ReviewID, ev.Status))
	if err != nil {
		return err
	}
	if created {
		s.log.Debugw("verdict notification stored", "user_id", ev.UserID, "review_id", ev.ReviewID, "type", n.Type)
	}
	return nil
}

func (s *Service) HandleVerdict(ctx context.Context, msg *message.Message) error {
	var ev review.VerdictEvent
	if err := events.Decode(msg, &ev); err != nil {
		s.log.Warnw("drop undecodable verdict", "message_uuid", msg.UUID, "error", err)
		return nil
	}
	return s.NotifyVerdict(ctx, ev)
}

// Register subscribes the notifier to verdicts.
func Register(bus *events.Bus, svc *Service) {
	bus.AddConsumer(ConsumerNotifier, events.TopicReviewVerdict, svc.HandleVerdict)
}

func (s *Service) List(ctx context.Context, sess session.Session, limit, offset int, unreadOnly bool) (*ListResponse, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthorized
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.repo.ListByUser(ctx, sess.UserID, limit, offset, unreadOnly)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	return &ListResponse{Items: items, UnreadCount: unread}, nil
}

func (s *Service) UnreadCount(ctx context.Context, sess session.Session) (int64, error) {
	if !sess.IsAuthenticated() {
		return 0, ErrUnauthorized
	}
	return s.repo.CountUnread(ctx, sess.UserID)
}

func (s *Service) MarkAsRead(ctx context.Context, sess session.Session, id int64) error {
	if !sess.IsAuthenticated() {
		return ErrUnauthorized
	}
	return s.repo.MarkAsRead(ctx, sess.UserID, id, s.now().UTC())
}

func (s *Service) MarkAllAsRead(ctx context.Context, sess session.Session) (int64, error) {
	if !sess.IsAuthenticated() {
		return 0, ErrUnauthorized
	}
	return s.repo.MarkAllAsRead(ctx, sess.UserID, s.now().UTC())
}
