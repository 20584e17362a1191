package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"besaha/internal/session"
)

const MaxFileSize = 50 * 1024 * 1024 // 50 MB

// AllowedMimeTypes are the photo and clip formats accepted as review proof.
var AllowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"video/mp4":  true,
	"video/webm": true,
}

// Service stores the body in a BlobStore and records metadata in the database.
type Service struct {
	repo  Repository
	store BlobStore
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewService(repo Repository, store BlobStore, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, store: store, log: log.Named("upload"), now: time.Now}
}

// Upload validates, stores and records a file. The returned URL is what
// clients pass as review media.
func (s *Service) Upload(ctx context.Context, sess session.Session, fileHeader *multipart.FileHeader) (*Upload, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthorized
	}
	if fileHeader.Size == 0 {
		return nil, ErrEmptyFile
	}
	if fileHeader.Size > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	// Detect MIME type from first 512 bytes
	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read file: %w", err)
	}
	mimeType := strings.Split(http.DetectContentType(buf[:n]), ";")[0]
	if !AllowedMimeTypes[mimeType] {
		return nil, ErrInvalidMimeType
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind file: %w", err)
	}

	now := s.now().UTC()
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext == "" || len(ext) > 6 {
		ext = mimeToExt(mimeType)
	}
	key := fmt.Sprintf("%d/%02d/%02d/%s_%s%s", now.Year(), now.Month(), now.Day(), id, sanitizeName(fileHeader.Filename), ext)

	fileURL, err := s.store.Put(ctx, key, file, fileHeader.Size, mimeType)
	if err != nil {
		return nil, err
	}

	upload := &Upload{
		ID:           id,
		UserID:       sess.UserID,
		OriginalName: fileHeader.Filename,
		ObjectKey:    key,
		FileURL:      fileURL,
		MimeType:     mimeType,
		Size:         fileHeader.Size,
		CreatedAt:    now,
	}
	if err := s.repo.Create(ctx, upload); err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.log.Warnw("remove orphaned blob", "key", key, "error", derr)
		}
		return nil, err
	}

	s.log.Infow("file uploaded", "upload_id", id, "user_id", sess.UserID, "mime_type", mimeType, "size", fileHeader.Size)
	return upload, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Upload, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes the blob and the record. Admins may delete any upload.
func (s *Service) Delete(ctx context.Context, sess session.Session, id string) error {
	upload, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if upload.UserID != sess.UserID && !sess.IsAdmin() {
		return ErrNotOwner
	}

	if err := s.store.Delete(ctx, upload.ObjectKey); err != nil {
		s.log.Warnw("remove blob", "upload_id", id, "error", err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*Upload, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	if name == "" || name == "_" {
		return "file"
	}
	return name
}

func mimeToExt(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return ".bin"
	}
}
