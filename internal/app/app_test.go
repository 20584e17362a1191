package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"besaha/internal/config"
	"besaha/internal/domain/restaurant"
	"besaha/internal/domain/review"
	"besaha/internal/domain/user"
	"besaha/internal/pkg/geo"
	"besaha/internal/pkg/logger"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type suite struct {
	app    *App
	router http.Handler
	tokens map[string]string
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		AppEnv:      "test",
		DatabaseURL: ":memory:",
		JWTSecret:   "test-secret",
		JWTTTL:      time.Hour,
		Verification: config.VerificationConfig{
			MaxDistanceMeters: 200,
			RetryAttempts:     3,
			ReconcileInterval: time.Hour,
			ReconcileGrace:    time.Minute,
		},
		Redis:     config.RedisConfig{TTL: time.Minute},
		Upload:    config.UploadConfig{Dir: t.TempDir(), BaseURL: "/static/uploads"},
		Concierge: config.ConciergeConfig{Model: "gemini-2.5-flash", Timeout: time.Second},
		RateLimit: config.RateLimitConfig{RPS: 1000, Burst: 1000},
	}
}

func setupSuite(t *testing.T) *suite {
	t.Helper()
	ctx := context.Background()

	a, err := New(ctx, testConfig(t), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	_, err = restaurant.Seed(ctx, a.Restaurants)
	require.NoError(t, err)
	users, err := user.Seed(ctx, a.Users)
	require.NoError(t, err)

	require.NoError(t, a.Start(ctx, false))

	s := &suite{app: a, router: a.Router(), tokens: map[string]string{}}
	for _, u := range users {
		tok, err := a.JWT.GenerateToken(u.ID, u.Name, u.Role)
		require.NoError(t, err)
		s.tokens[u.Name] = tok
	}
	return s
}

func (s *suite) do(t *testing.T, method, path, as string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[as])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w.Code, env
}

func fiveStar() review.Ratings {
	return review.Ratings{Authenticity: 5, Hospitality: 5, PriceFairness: 5, Hygiene: 5, CulturalVibe: 5}
}

func TestVerifiedReviewUpdatesAggregateAndContributor(t *testing.T) {
	s := setupSuite(t)
	loc := geo.Coordinates{Lat: 31.6295, Lng: -7.9847}

	code, env := s.do(t, http.MethodPost, "/api/v1/restaurants/4/reviews", "Karim", review.SubmitRequest{
		Ratings:      fiveStar(),
		Text:         "Rooftop sunsets and a perfect pastilla",
		MediaURLs:    []string{"https://cdn.besaha.ma/r/4/pastilla.jpg"},
		UserLocation: &loc,
	})
	require.Equal(t, http.StatusAccepted, code)

	var submitted review.View
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	assert.Equal(t, review.StatusPending, submitted.Status)

	require.Eventually(t, func() bool {
		code, env := s.do(t, http.MethodGet, "/api/v1/reviews/"+submitted.ID, "", nil)
		if code != http.StatusOK {
			return false
		}
		var v review.View
		return json.Unmarshal(env.Data, &v) == nil && v.Status == review.StatusVerified
	}, 5*time.Second, 20*time.Millisecond)

	code, env = s.do(t, http.MethodGet, "/api/v1/restaurants/4", "", nil)
	require.Equal(t, http.StatusOK, code)
	var nomad restaurant.View
	require.NoError(t, json.Unmarshal(env.Data, &nomad))
	assert.Equal(t, 513, nomad.Meta.ReviewsCount)
	require.NotNil(t, nomad.Meta.AvgScores)
	assert.InDelta(t, 4.2, nomad.Meta.AvgScores.Authenticity, 1e-9)

	code, env = s.do(t, http.MethodGet, "/api/v1/users/me", "Karim", nil)
	require.Equal(t, http.StatusOK, code)
	var me user.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, 1, me.ContributionsCount)

	require.Eventually(t, func() bool {
		code, env := s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", "Karim", nil)
		return code == http.StatusOK && string(env.Data) == `{"unread_count":1}`
	}, 5*time.Second, 20*time.Millisecond)
}

func TestRejectedReviewLeavesAggregate(t *testing.T) {
	s := setupSuite(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/restaurants/4/reviews", "Sarah", review.SubmitRequest{
		Ratings:   fiveStar(),
		MediaURLs: []string{"https://cdn.besaha.ma/r/4/tea.jpg"},
	})
	require.Equal(t, http.StatusAccepted, code)
	var submitted review.View
	require.NoError(t, json.Unmarshal(env.Data, &submitted))

	var final review.View
	require.Eventually(t, func() bool {
		_, env := s.do(t, http.MethodGet, "/api/v1/reviews/"+submitted.ID, "", nil)
		return json.Unmarshal(env.Data, &final) == nil && final.Status == review.StatusRejected
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, review.ReasonNoGPS, final.VerificationReason)
	assert.Equal(t, "Verification Failed: No GPS data provided", final.Badge)

	nomad, err := s.app.Restaurants.GetByID(context.Background(), "4")
	require.NoError(t, err)
	assert.Equal(t, 512, nomad.Meta.ReviewsCount)
}

func TestAuthAndAdminGates(t *testing.T) {
	s := setupSuite(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/restaurants/4/reviews", "", review.SubmitRequest{Ratings: fiveStar()})
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "AUTH_HEADER_MISSING", env.Error.Code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/admin/reviews/anything/reverify", "Sarah", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/admin/reviews/missing/reverify", "Besaha Admin", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := setupSuite(t)

	code, _ := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "besaha_")
}

func TestConciergeOfflineAndChat(t *testing.T) {
	s := setupSuite(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/concierge", "", map[string]string{"prompt": "Is tipping expected?"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "offline")

	code, _ = s.do(t, http.MethodPost, "/api/v1/chat/general/messages", "Amine", map[string]string{"text": "Salam from Fes"})
	require.Equal(t, http.StatusCreated, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/chat/general/messages", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "Salam from Fes")
}
