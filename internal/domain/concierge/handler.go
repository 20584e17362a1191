package concierge

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"besaha/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	ans, err := h.svc.Ask(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Prompt is required (max 1000 characters)")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "Internal error")
		return
	}
	response.Success(c, http.StatusOK, ans)
}

// RegisterRoutes mounts the concierge; extra runs before the handler
// (rate limiting in production).
func (h *Handler) RegisterRoutes(group *gin.RouterGroup, extra ...gin.HandlerFunc) {
	group.POST("/concierge", append(extra, h.Ask)...)
}
