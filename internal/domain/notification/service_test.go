package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"besaha/internal/database"
	"besaha/internal/domain/review"
	"besaha/internal/pkg/logger"
	"besaha/internal/session"
)

var karim = session.Session{UserID: 1, UserName: "Karim", Role: "member"}

func setupService(t *testing.T) (*Service, *Repository) {
	t.Helper()
	db, err := database.Connect(":memory:", logger.Nop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &Model{}))
	repo := NewRepository(db)
	return NewService(repo, logger.Nop()), repo
}

func verdict(id string, status review.Status, reason, badge string) review.VerdictEvent {
	return review.VerdictEvent{
		ReviewID:     id,
		RestaurantID: "4",
		UserID:       karim.UserID,
		Status:       status,
		Verified:     status == review.StatusVerified,
		Reason:       reason,
		Badge:        badge,
		DecidedAt:    time.Now(),
	}
}

func TestNotifyVerdict_OnlyFinalVerdictsOnce(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	ok := verdict("r1", review.StatusVerified, review.ReasonVerified, review.BadgeVerified)
	require.NoError(t, svc.NotifyVerdict(ctx, ok))
	require.NoError(t, svc.NotifyVerdict(ctx, ok))
	require.NoError(t, svc.NotifyVerdict(ctx, verdict("r2", review.StatusRejected, review.ReasonNoGPS, "Verification Failed: No GPS data provided")))
	require.NoError(t, svc.NotifyVerdict(ctx, verdict("r3", review.StatusFailed, review.ReasonServerError, "")))

	out, err := svc.List(ctx, karim, 0, 0, false)
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, int64(2), out.UnreadCount)

	byReview := map[string]Notification{}
	for _, n := range out.Items {
		byReview[n.Data.ReviewID] = n
	}
	assert.Equal(t, TypeReviewVerified, byReview["r1"].Type)
	assert.Equal(t, TypeReviewRejected, byReview["r2"].Type)
	assert.Equal(t, "Verification Failed: No GPS data provided", byReview["r2"].Body)
	assert.Equal(t, review.ReasonNoGPS, byReview["r2"].Data.Reason)
}

func TestMarkAsRead(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	require.NoError(t, svc.NotifyVerdict(ctx, verdict("r1", review.StatusVerified, review.ReasonVerified, review.BadgeVerified)))
	require.NoError(t, svc.NotifyVerdict(ctx, verdict("r2", review.StatusVerified, review.ReasonVerified, review.BadgeVerified)))

	out, err := svc.List(ctx, karim, 10, 0, false)
	require.NoError(t, err)
	require.Len(t, out.Items, 2)

	require.NoError(t, svc.MarkAsRead(ctx, karim, out.Items[0].ID))
	n, err := svc.UnreadCount(ctx, karim)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	err = svc.MarkAsRead(ctx, session.Session{UserID: 2}, out.Items[1].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := svc.MarkAllAsRead(ctx, karim)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	unread, err := svc.List(ctx, karim, 10, 0, true)
	require.NoError(t, err)
	assert.Empty(t, unread.Items)
}

func TestCleanup_RemovesExpired(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()

	svc.now = func() time.Time { return time.Now().Add(-100 * 24 * time.Hour) }
	require.NoError(t, svc.NotifyVerdict(ctx, verdict("old", review.StatusVerified, review.ReasonVerified, review.BadgeVerified)))
	svc.now = time.Now
	require.NoError(t, svc.NotifyVerdict(ctx, verdict("new", review.StatusVerified, review.ReasonVerified, review.BadgeVerified)))

	deleted, err := NewCleanup(repo, 0, 0, logger.Nop()).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	out, err := svc.List(ctx, karim, 10, 0, false)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "new", out.Items[0].Data.ReviewID)
}

func TestHandleVerdict_DecodesMessage(t *testing.T) {
	svc, _ := setupService(t)
	payload, err := json.Marshal(verdict("r9", review.StatusVerified, review.ReasonVerified, review.BadgeVerified))
	require.NoError(t, err)

	require.NoError(t, svc.HandleVerdict(context.Background(), message.NewMessage(watermill.NewUUID(), payload)))
	require.NoError(t, svc.HandleVerdict(context.Background(), message.NewMessage(watermill.NewUUID(), []byte("not json"))))

	n, err := svc.UnreadCount(context.Background(), karim)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestHandler_Inbox(t *testing.T) {
	svc, _ := setupService(t)
	require.NoError(t, svc.NotifyVerdict(context.Background(), verdict("r1", review.StatusVerified, review.ReasonVerified, review.BadgeVerified)))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	protected := r.Group("/api/v1", func(c *gin.Context) {
		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), karim))
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(protected)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data ListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Items, 1)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/abc/read", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read-all", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"updated":1`)
}
