package chat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"besaha/internal/pkg/response"
	"besaha/internal/session"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListChannels(c *gin.Context) {
	response.Success(c, http.StatusOK, Channels)
}

func (h *Handler) ListMessages(c *gin.Context) {
	msgs, err := h.svc.List(c.Request.Context(), c.Param("channel"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, msgs)
}

func (h *Handler) PostMessage(c *gin.Context) {
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	sess, _ := session.FromContext(c.Request.Context())
	msg, err := h.svc.Post(c.Request.Context(), sess, c.Param("channel"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, msg)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnknownChannel):
		response.Error(c, http.StatusNotFound, "UNKNOWN_CHANNEL", "Channel not found")
	case errors.Is(err, ErrInvalidRequest):
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid input")
	case errors.Is(err, ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "Internal error")
	}
}
