package concierge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"besaha/internal/domain/restaurant"
	"besaha/internal/metrics"
	"besaha/internal/pkg/validator"
)

const (
	OfflineAnswer  = "AI Concierge is currently offline (API Key missing). Please try again later."
	FallbackAnswer = "I am having trouble connecting to the spirits of the internet. Please try again."
	EmptyAnswer    = "I'm sorry, I couldn't find an answer to that."
)

// Answer sources, also used as metric labels.
const (
	SourceModel    = "answered"
	SourceOffline  = "offline"
	SourceFallback = "fallback"
)

var ErrInvalidRequest = errors.New("invalid concierge request")

type RestaurantLookup interface {
	Get(ctx context.Context, id string) (*restaurant.Restaurant, error)
}

type AskRequest struct {
	Prompt       string `json:"prompt" validate:"required,max=1000"`
	RestaurantID string `json:"restaurant_id,omitempty" validate:"omitempty,max=64"`
}

type Answer struct {
	Answer string `json:"answer"`
	Source string `json:"source"`
}

// Service answers food and culture questions as "Hakim". It never fails on
// upstream trouble; callers get a fallback answer instead.
type Service struct {
	gen         Generator
	cb          *gobreaker.CircuitBreaker[string]
	restaurants RestaurantLookup
	log         *zap.SugaredLogger
}

// NewService builds the concierge. A nil gen means no API key is configured.
func NewService(gen Generator, restaurants RestaurantLookup, log *zap.SugaredLogger) *Service {
	log = log.Named("concierge")
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Infow("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Service{gen: gen, cb: cb, restaurants: restaurants, log: log}
}

func (s *Service) Ask(ctx context.Context, req AskRequest) (Answer, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if fields := validator.Validate(req); fields != nil {
		return Answer{}, ErrInvalidRequest
	}

	if s.gen == nil {
		return s.answer(OfflineAnswer, SourceOffline), nil
	}

	prompt := BuildPrompt(req.Prompt, s.restaurantContext(ctx, req.RestaurantID))
	text, err := s.cb.Execute(func() (string, error) {
		return s.gen.Generate(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			s.log.Warnw("concierge request rejected by breaker", "error", err)
		} else {
			s.log.Errorw("concierge upstream failed", "error", err)
		}
		return s.answer(FallbackAnswer, SourceFallback), nil
	}
	if text == "" {
		text = EmptyAnswer
	}
	return s.answer(text, SourceModel), nil
}

func (s *Service) answer(text, source string) Answer {
	metrics.ConciergeRequests.WithLabelValues(source).Inc()
	return Answer{Answer: text, Source: source}
}

func (s *Service) restaurantContext(ctx context.Context, id string) string {
	if id == "" || s.restaurants == nil {
		return ""
	}
	r, err := s.restaurants.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, restaurant.ErrNotFound) {
			s.log.Warnw("load restaurant context", "restaurant_id", id, "error", err)
		}
		return ""
	}
	return fmt.Sprintf("%s, a %s restaurant in %s. %s", r.Name, r.Category, r.City, r.Description)
}

// BuildPrompt wraps the user question in the concierge persona.
func BuildPrompt(question, restaurantContext string) string {
	if restaurantContext == "" {
		restaurantContext = "General inquiry"
	}
	var b strings.Builder
	b.WriteString("You are a knowledgeable Moroccan Concierge named \"Hakim\" for the app \"Besaha\".\n")
	b.WriteString("Your tone is warm, welcoming, and culturally respectful.\n")
	b.WriteString("Context: The user is asking about Moroccan food or culture.\n")
	b.WriteString("Restaurant Context: " + restaurantContext + "\n\n")
	b.WriteString("User Question: " + question + "\n\n")
	b.WriteString("Answer briefly (under 100 words) and helpfully.")
	return b.String()
}
