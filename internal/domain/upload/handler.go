package upload

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"besaha/internal/pkg/response"
	"besaha/internal/session"
)

// Handler serves review media uploads.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload handles POST /uploads with a multipart "file" field.
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxFileSize+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(c, ErrFileTooLarge)
			return
		}
		response.Error(c, http.StatusBadRequest, "NO_FILE", "No file provided")
		return
	}

	sess, _ := session.FromContext(c.Request.Context())
	upload, err := h.service.Upload(c.Request.Context(), sess, fileHeader)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, upload)
}

func (h *Handler) GetByID(c *gin.Context) {
	upload, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, upload)
}

func (h *Handler) Delete(c *gin.Context) {
	sess, _ := session.FromContext(c.Request.Context())
	if err := h.service.Delete(c.Request.Context(), sess, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) ListMy(c *gin.Context) {
	sess, _ := session.FromContext(c.Request.Context())
	if !sess.IsAuthenticated() {
		h.writeError(c, ErrUnauthorized)
		return
	}
	uploads, err := h.service.ListByUser(c.Request.Context(), sess.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, uploads)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyFile):
		response.Error(c, http.StatusBadRequest, "EMPTY_FILE", err.Error())
	case errors.Is(err, ErrInvalidMimeType):
		response.Error(c, http.StatusBadRequest, "INVALID_MIME_TYPE", err.Error())
	case errors.Is(err, ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "UPLOAD_NOT_FOUND", err.Error())
	case errors.Is(err, ErrNotOwner):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "Upload failed")
	}
}
