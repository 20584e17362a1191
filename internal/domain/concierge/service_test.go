package concierge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"besaha/internal/domain/restaurant"
	"besaha/internal/metrics"
	"besaha/internal/pkg/logger"
)

type stubRestaurants map[string]*restaurant.Restaurant

func (s stubRestaurants) Get(_ context.Context, id string) (*restaurant.Restaurant, error) {
	if r, ok := s[id]; ok {
		return r, nil
	}
	return nil, restaurant.ErrNotFound
}

var nomad = stubRestaurants{"4": {ID: "4", Name: "Nomad", Category: "Modern Moroccan", City: restaurant.CityMarrakech, Description: "Rooftop dining"}}

type stubRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

// geminiStub answers generateContent calls and records the last prompt.
func geminiStub(t *testing.T, status int, text string) (*httptest.Server, *atomic.Int32, *atomic.Value) {
	t.Helper()
	var calls atomic.Int32
	var lastPrompt atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req stubRequest
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) && len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			lastPrompt.Store(req.Contents[0].Parts[0].Text)
		}

		w.WriteHeader(status)
		if status == http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"candidates": []any{map[string]any{
					"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
				}},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": status, "message": "boom", "status": http.StatusText(status)},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, &lastPrompt
}

func newClient(t *testing.T, srv *httptest.Server) *GeminiClient {
	t.Helper()
	c, err := NewGeminiClient(context.Background(), "test-key", "gemini-2.5-flash", 2*time.Second, WithBaseURL(srv.URL))
	require.NoError(t, err)
	return c
}

func TestAsk_Answered(t *testing.T) {
	srv, _, lastPrompt := geminiStub(t, http.StatusOK, "  Try the camel burger.  ")
	svc := NewService(newClient(t, srv), nomad, logger.Nop())
	before := testutil.ToFloat64(metrics.ConciergeRequests.WithLabelValues(SourceModel))

	ans, err := svc.Ask(context.Background(), AskRequest{Prompt: "What should I order?", RestaurantID: "4"})
	require.NoError(t, err)
	assert.Equal(t, Answer{Answer: "Try the camel burger.", Source: SourceModel}, ans)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ConciergeRequests.WithLabelValues(SourceModel)))

	prompt := lastPrompt.Load().(string)
	assert.Contains(t, prompt, `named "Hakim"`)
	assert.Contains(t, prompt, "Restaurant Context: Nomad, a Modern Moroccan restaurant in Marrakech.")
	assert.Contains(t, prompt, "User Question: What should I order?")
}

func TestAsk_UnknownRestaurantIsGeneralInquiry(t *testing.T) {
	srv, _, lastPrompt := geminiStub(t, http.StatusOK, "Mint tea, always.")
	svc := NewService(newClient(t, srv), nomad, logger.Nop())

	_, err := svc.Ask(context.Background(), AskRequest{Prompt: "Tea?", RestaurantID: "99"})
	require.NoError(t, err)
	assert.Contains(t, lastPrompt.Load().(string), "Restaurant Context: General inquiry")
}

func TestAsk_EmptyModelText(t *testing.T) {
	srv, _, _ := geminiStub(t, http.StatusOK, "")
	svc := NewService(newClient(t, srv), nil, logger.Nop())

	ans, err := svc.Ask(context.Background(), AskRequest{Prompt: "Anything?"})
	require.NoError(t, err)
	assert.Equal(t, EmptyAnswer, ans.Answer)
}

func TestAsk_OfflineWithoutKey(t *testing.T) {
	svc := NewService(nil, nomad, logger.Nop())
	ans, err := svc.Ask(context.Background(), AskRequest{Prompt: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, Answer{Answer: OfflineAnswer, Source: SourceOffline}, ans)
}

func TestAsk_InvalidPrompt(t *testing.T) {
	svc := NewService(nil, nil, logger.Nop())
	_, err := svc.Ask(context.Background(), AskRequest{Prompt: "   "})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Ask(context.Background(), AskRequest{Prompt: strings.Repeat("?", 1001)})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestAsk_FallbackAndBreakerOpens(t *testing.T) {
	srv, calls, _ := geminiStub(t, http.StatusInternalServerError, "")
	svc := NewService(newClient(t, srv), nil, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ans, err := svc.Ask(ctx, AskRequest{Prompt: "Couscous on Friday?"})
		require.NoError(t, err)
		assert.Equal(t, Answer{Answer: FallbackAnswer, Source: SourceFallback}, ans)
	}
	require.Equal(t, int32(5), calls.Load())

	ans, err := svc.Ask(ctx, AskRequest{Prompt: "Couscous on Friday?"})
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, ans.Source)
	assert.Equal(t, int32(5), calls.Load(), "open breaker must not reach upstream")
}

func TestGeminiClient_StatusError(t *testing.T) {
	srv, _, _ := geminiStub(t, http.StatusTooManyRequests, "")
	_, err := newClient(t, srv).Generate(context.Background(), "hi")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, "boom", se.Body)
}

func TestHandler_Ask(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(nil, nil, logger.Nop())).RegisterRoutes(r.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/concierge", strings.NewReader(`{"prompt":"Where is the best msemen?"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "offline")

	req = httptest.NewRequest(http.MethodPost, "/api/v1/concierge", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
