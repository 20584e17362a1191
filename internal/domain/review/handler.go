package review

import (
	"errors"
	"net/http"
	"strconv"

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

// Submit stores a review as pending; the verdict arrives asynchronously.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	sess, _ := session.FromContext(c.Request.Context())
	rv, err := h.svc.Submit(c.Request.Context(), sess, c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, NewView(*rv))
}

func (h *Handler) ListByRestaurant(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, total, err := h.svc.ListByRestaurant(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ListResponse{
		Items:  NewViews(items),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *Handler) Get(c *gin.Context) {
	rv, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewView(*rv))
}

func (h *Handler) MarkHelpful(c *gin.Context) {
	sess, _ := session.FromContext(c.Request.Context())
	count, err := h.svc.MarkHelpful(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"helpful_count": count})
}

func (h *Handler) Reverify(c *gin.Context) {
	sess, _ := session.FromContext(c.Request.Context())
	out, err := h.svc.Reverify(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, OutcomeResponse{
		ReviewID: out.ReviewID,
		Status:   out.Status,
		Reason:   out.Reason,
		Applied:  out.Applied,
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid review", verr.Fields)
	case errors.Is(err, ErrInvalidRequest):
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid input")
	case errors.Is(err, ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Admin role required")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Review not found")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "Internal error")
	}
}
