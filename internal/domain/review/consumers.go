package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"

	"besaha/internal/events"
)

const (
	ConsumerVerifier = "review-verifier"
	ConsumerFeed     = "review-feed"
)

// Broadcaster pushes an event to websocket subscribers of a topic.
type Broadcaster interface {
	Broadcast(topic, eventType string, data any)
}

// EventVerdict is the websocket event type carrying a VerdictEvent.
const EventVerdict = "review.verdict"

// CacheInvalidator drops cached restaurant data after its aggregate changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, restaurantID string) error
}

func RestaurantTopic(restaurantID string) string {
	return "restaurant:" + restaurantID
}

// Register wires the verification trigger and the verdict feed onto bus.
func Register(bus *events.Bus, verifier *Verifier, feed *Feed) {
	bus.AddConsumer(ConsumerVerifier, events.TopicReviewCreated, verifier.HandleCreated)
	if feed != nil {
		bus.AddConsumer(ConsumerFeed, events.TopicReviewVerdict, feed.HandleVerdict)
	}
}

// HandleCreated verifies the review named by a CreatedEvent. A transient
// failure is returned so the router retries it.
func (v *Verifier) HandleCreated(ctx context.Context, msg *message.Message) error {
	var ev CreatedEvent
	if err := events.Decode(msg, &ev); err != nil {
		v.log.Errorw("discarding malformed review event", "error", err)
		return nil
	}

	out, err := v.Verify(ctx, ev.ReviewID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			v.log.Warnw("review from event not found", "review_id", ev.ReviewID)
			return nil
		}
		return err
	}
	if out.Status == StatusFailed || out.Status == StatusPending {
		return fmt.Errorf("review %s not verified yet", ev.ReviewID)
	}
	return nil
}

// Feed fans verdicts out to websocket clients and evicts stale restaurant cache.
type Feed struct {
	broadcaster Broadcaster
	cache       CacheInvalidator
	log         *zap.SugaredLogger
}

func NewFeed(b Broadcaster, cache CacheInvalidator, log *zap.SugaredLogger) *Feed {
	return &Feed{broadcaster: b, cache: cache, log: log.Named("review-feed")}
}

func (f *Feed) HandleVerdict(ctx context.Context, msg *message.Message) error {
	var ev VerdictEvent
	if err := events.Decode(msg, &ev); err != nil {
		f.log.Errorw("discarding malformed verdict event", "error", err)
		return nil
	}

	if ev.Meta != nil && f.cache != nil {
		if err := f.cache.Invalidate(ctx, ev.RestaurantID); err != nil {
			return fmt.Errorf("invalidate restaurant %s: %w", ev.RestaurantID, err)
		}
	}
	if f.broadcaster != nil {
		f.broadcaster.Broadcast(RestaurantTopic(ev.RestaurantID), EventVerdict, ev)
	}
	return nil
}
