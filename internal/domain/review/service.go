package review

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"besaha/internal/events"
	"besaha/internal/metrics"
	"besaha/internal/pkg/validator"
	"besaha/internal/session"
)

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "invalid review request" }

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

type Service struct {
	reviews   *Repository
	verifier  Driver
	publisher events.Publisher
	log       *zap.SugaredLogger
}

func NewService(reviews *Repository, verifier Driver, publisher events.Publisher, log *zap.SugaredLogger) *Service {
	return &Service{reviews: reviews, verifier: verifier, publisher: publisher, log: log.Named("reviews")}
}

// Submit stores a pending review for the session's user and announces it.
// Verification happens asynchronously.
func (s *Service) Submit(ctx context.Context, sess session.Session, restaurantID string, req SubmitRequest) (*Review, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthorized
	}
	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		return nil, &ValidationError{Fields: map[string]string{"restaurant_id": "required"}}
	}
	if fields := validator.Validate(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	if err := req.Ratings.Validate(); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"ratings": "range"}}
	}
	if req.UserLocation != nil {
		if err := req.UserLocation.Validate(); err != nil {
			return nil, &ValidationError{Fields: map[string]string{"user_location": "range"}}
		}
	}

	rv := &Review{
		RestaurantID: restaurantID,
		UserID:       sess.UserID,
		UserName:     sess.UserName,
		Ratings:      req.Ratings,
		Text:         strings.TrimSpace(req.Text),
		MediaURLs:    req.MediaURLs,
		UserLocation: req.UserLocation,
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		return nil, err
	}
	metrics.ReviewsSubmitted.Inc()

	ev := CreatedEvent{
		ReviewID:     rv.ID,
		RestaurantID: rv.RestaurantID,
		UserID:       rv.UserID,
		CreatedAt:    rv.CreatedAt,
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.TopicReviewCreated, ev); err != nil {
			// the reconciler picks the review up after the grace period
			s.log.Warnw("publish review created", "review_id", rv.ID, "error", err)
		}
	}

	s.log.Infow("review submitted", "review_id", rv.ID, "restaurant_id", rv.RestaurantID, "user_id", rv.UserID)
	return rv, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Review, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidRequest
	}
	return s.reviews.GetByID(ctx, id)
}

func (s *Service) ListByRestaurant(ctx context.Context, restaurantID string, limit, offset int) ([]Review, int64, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, 0, ErrInvalidRequest
	}
	return s.reviews.ListByRestaurant(ctx, restaurantID, limit, offset)
}

func (s *Service) MarkHelpful(ctx context.Context, sess session.Session, id string) (int, error) {
	if !sess.IsAuthenticated() {
		return 0, ErrUnauthorized
	}
	return s.reviews.IncrementHelpful(ctx, id)
}

// Reverify re-drives one review on an admin's request.
func (s *Service) Reverify(ctx context.Context, sess session.Session, id string) (*Outcome, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthorized
	}
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	s.log.Infow("manual re-verification", "review_id", id, "admin_id", sess.UserID)
	return s.verifier.Verify(ctx, id)
}
