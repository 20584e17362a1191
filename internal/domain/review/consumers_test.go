package review

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"besaha/internal/domain/restaurant"
	"besaha/internal/events"
	"besaha/internal/pkg/logger"
)

func newMessage(t *testing.T, payload any) *message.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), raw)
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	topics []string
}

func (b *fakeBroadcaster) Broadcast(topic, _ string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
}

type fakeInvalidator struct {
	ids []string
	err error
}

func (f *fakeInvalidator) Invalidate(_ context.Context, id string) error {
	f.ids = append(f.ids, id)
	return f.err
}

func TestHandleCreated_VerifiesReview(t *testing.T) {
	f := setupFixture(t)
	loc := nomad
	rv := f.addReview(t, "4", 1, &loc, photo, uniform(5))

	err := f.verifier.HandleCreated(context.Background(), newMessage(t, CreatedEvent{ReviewID: rv.ID, RestaurantID: "4"}))
	require.NoError(t, err)

	got, err := f.reviews.GetByID(context.Background(), rv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, got.Status)
}

func TestHandleCreated_IgnoresUnknownAndMalformed(t *testing.T) {
	f := setupFixture(t)
	assert.NoError(t, f.verifier.HandleCreated(context.Background(), newMessage(t, CreatedEvent{ReviewID: "gone"})))
	assert.NoError(t, f.verifier.HandleCreated(context.Background(), message.NewMessage(watermill.NewUUID(), []byte("{"))))
}

func TestHandleCreated_TransientFailureAsksForRetry(t *testing.T) {
	f := setupFixture(t)
	loc := nomad
	rv := f.addReview(t, "4", 1, &loc, photo, uniform(5))

	broken := NewVerifier(f.reviews, brokenLookup{}, nil, VerifierConfig{}, logger.Nop())
	err := broken.HandleCreated(context.Background(), newMessage(t, CreatedEvent{ReviewID: rv.ID}))
	assert.Error(t, err)
}

func TestFeed_HandleVerdict(t *testing.T) {
	b := &fakeBroadcaster{}
	inv := &fakeInvalidator{}
	feed := NewFeed(b, inv, logger.Nop())

	verified := VerdictEvent{ReviewID: "r1", RestaurantID: "4", Status: StatusVerified, Verified: true, Meta: &restaurant.Meta{ReviewsCount: 513}}
	require.NoError(t, feed.HandleVerdict(context.Background(), newMessage(t, verified)))

	rejected := VerdictEvent{ReviewID: "r2", RestaurantID: "4", Status: StatusRejected, Reason: ReasonNoGPS}
	require.NoError(t, feed.HandleVerdict(context.Background(), newMessage(t, rejected)))

	assert.Equal(t, []string{"4"}, inv.ids)
	assert.Equal(t, []string{"restaurant:4", "restaurant:4"}, b.topics)

	inv.err = errors.New("redis down")
	assert.Error(t, feed.HandleVerdict(context.Background(), newMessage(t, verified)))
}

func TestRegister_EndToEnd(t *testing.T) {
	f := setupFixture(t)
	bus, err := events.NewBus(events.DefaultConfig(), logger.Nop())
	require.NoError(t, err)

	b := &fakeBroadcaster{}
	inv := &fakeInvalidator{}
	verifier := NewVerifier(f.reviews, f.restaurants, bus, VerifierConfig{RetryAttempts: 3}, logger.Nop())
	Register(bus, verifier, NewFeed(b, inv, logger.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = bus.Run(ctx) }()
	defer bus.Close()
	<-bus.Running()

	svc := NewService(f.reviews, verifier, bus, logger.Nop())
	loc := nomad
	rv, err := svc.Submit(ctx, amina, "4", SubmitRequest{Ratings: uniform(5), MediaURLs: photo, UserLocation: &loc})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.topics) == 1
	}, 5*time.Second, 10*time.Millisecond)

	got, err := f.reviews.GetByID(ctx, rv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, got.Status)
	assert.Equal(t, 513, f.restaurantMeta(t, "4").ReviewsCount)
}
