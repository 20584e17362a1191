package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"besaha/internal/pkg/response"
	"besaha/internal/session"
)

// WSHandler upgrades feed subscriptions to websocket connections.
type WSHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      *zap.SugaredLogger
}

// NewWSHandler accepts any origin when allowedOrigins is empty.
func NewWSHandler(hub *Hub, allowedOrigins []string, log *zap.SugaredLogger) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
		log: log.Named("ws"),
	}
}

// HandleWebSocket serves GET /ws?topics=restaurant:4,chat:general.
// Anonymous clients may subscribe; the session only tags the connection.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	topics := ParseTopics(c.Query("topics"))
	if c.Query("topics") != "" && len(topics) == 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_TOPICS", "No valid topics requested")
		return
	}

	sess, _ := session.FromContext(c.Request.Context())

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}

	h.log.Debugw("websocket connected", "user_id", sess.UserID, "topics", topics)
	h.hub.ServeWS(conn, sess.UserID, topics)
	h.log.Debugw("websocket disconnected", "user_id", sess.UserID)
}
