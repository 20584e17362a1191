package restaurant

import (
	"context"
	"time"

	"go.uber.org/zap"

	"besaha/internal/cache"
)

type Service struct {
	repo  *Repository
	cache cache.Cache
	ttl   time.Duration
	log   *zap.SugaredLogger
}

func NewService(repo *Repository, c cache.Cache, ttl time.Duration, log *zap.SugaredLogger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{repo: repo, cache: c, ttl: ttl, log: log.Named("restaurants")}
}

// Get serves from cache when possible. Cache errors fall through to storage.
func (s *Service) Get(ctx context.Context, id string) (*Restaurant, error) {
	if id == "" {
		return nil, ErrInvalidRequest
	}

	key := cache.RestaurantKey(id)
	var cached Restaurant
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.log.Warnw("restaurant cache read", "id", id, "error", err)
	}
	if hit {
		return &cached, nil
	}

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, r, s.ttl); err != nil {
		s.log.Warnw("restaurant cache write", "id", id, "error", err)
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, f Filters) ([]Restaurant, int64, error) {
	return s.repo.List(ctx, f)
}

// Invalidate drops the cached copy after the aggregate changed.
func (s *Service) Invalidate(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, cache.RestaurantKey(id))
}
