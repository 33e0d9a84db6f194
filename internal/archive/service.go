// Package archive registers museum archive files for later ingestion.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/models"
	"github.com/immuse/tourwizard/internal/museum"
	"github.com/immuse/tourwizard/internal/storage"
	"github.com/immuse/tourwizard/internal/store"
)

const defaultMimeType = "application/octet-stream"

type Service struct {
	store     store.Store
	storage   storage.Storage
	bucket    string
	maxUpload int64
}

func NewService(st store.Store, objects storage.Storage, bucket string, maxUpload int64) *Service {
	return &Service{store: st, storage: objects, bucket: bucket, maxUpload: maxUpload}
}

// Upload is one multipart file part.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Receipt is what intake reports back for a registered file.
type Receipt struct {
	ID       uuid.UUID            `json:"id"`
	Filename string               `json:"filename"`
	Status   models.ArchiveStatus `json:"status"`
}

func receiptOf(f *models.ArchiveFile) *Receipt {
	return &Receipt{ID: f.ID, Filename: f.Filename, Status: f.Status}
}

// RequireMuseum reports NotFound for an unknown museum, so callers can
// reject a request before reading its body.
func (s *Service) RequireMuseum(ctx context.Context, museumID uuid.UUID) error {
	_, err := s.store.GetMuseum(ctx, museumID)
	return err
}

// MaxUpload is the largest accepted file in bytes; 0 means unlimited.
func (s *Service) MaxUpload() int64 { return s.maxUpload }

// TooLarge is the error for a file over MaxUpload.
func (s *Service) TooLarge() error {
	return apperr.Validation("File too large", apperr.FieldError{
		Field:   "file",
		Message: fmt.Sprintf("must not exceed %d bytes", s.maxUpload),
	})
}

// AddUpload stores the file bytes under the museum's prefix and records the
// file as UPLOADED.
func (s *Service) AddUpload(ctx context.Context, museumID uuid.UUID, up Upload) (*Receipt, error) {
	if _, err := s.store.GetMuseum(ctx, museumID); err != nil {
		return nil, err
	}
	if up.Body == nil {
		return nil, apperr.Validation("No file provided", apperr.FieldError{Field: "file", Message: "is required"})
	}

	data, err := s.readCapped(up.Body)
	if err != nil {
		return nil, err
	}

	name := museum.SafeBasename(up.Filename, "archive")
	mime := strings.TrimSpace(up.ContentType)
	if mime == "" {
		mime = defaultMimeType
	}
	storagePath := path.Join(museumID.String(), uuid.NewString()+"-"+name)

	if err := s.storage.Upload(ctx, s.bucket, storagePath, bytes.NewReader(data), mime); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	f := &models.ArchiveFile{
		MuseumID:    museumID,
		Filename:    name,
		MimeType:    mime,
		SizeBytes:   int64(len(data)),
		StoragePath: storagePath,
		SourceType:  models.SourceUpload,
		Status:      models.ArchiveStatusUploaded,
	}
	if err := s.store.CreateArchiveFile(ctx, f); err != nil {
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), s.bucket, storagePath); delErr != nil {
			slog.Warn("failed to remove orphaned upload", "path", storagePath, "error", delErr)
		}
		return nil, fmt.Errorf("create archive file: %w", err)
	}

	slog.Info("archive uploaded", "museum_id", museumID, "archive_id", f.ID, "size_bytes", f.SizeBytes)
	return receiptOf(f), nil
}

func (s *Service) readCapped(r io.Reader) ([]byte, error) {
	if s.maxUpload <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxUpload {
		return nil, s.TooLarge()
	}
	return data, nil
}

// AddURL records a remote document as PENDING. Its bytes are fetched during
// ingestion.
func (s *Service) AddURL(ctx context.Context, museumID uuid.UUID, rawURL string) (*Receipt, error) {
	if _, err := s.store.GetMuseum(ctx, museumID); err != nil {
		return nil, err
	}
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, apperr.Validation("URL is required for URL upload", apperr.FieldError{Field: "url", Message: "is required"})
	}
	if !museum.IsHTTPURL(rawURL) {
		return nil, apperr.Validation("Validation error", apperr.FieldError{Field: "url", Message: "must be an absolute http(s) URL"})
	}

	link := rawURL
	f := &models.ArchiveFile{
		MuseumID:   museumID,
		Filename:   FilenameFromURL(rawURL),
		SourceType: models.SourceURL,
		URL:        &link,
		Status:     models.ArchiveStatusPending,
	}
	if err := s.store.CreateArchiveFile(ctx, f); err != nil {
		return nil, fmt.Errorf("create archive file: %w", err)
	}

	slog.Info("archive url registered", "museum_id", museumID, "archive_id", f.ID)
	return receiptOf(f), nil
}

// FilenameFromURL returns the last non-empty path segment of u, or "archive".
// The result is not guaranteed unique within a museum.
func FilenameFromURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "archive"
	}
	segments := strings.Split(parsed.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if seg := strings.TrimSpace(segments[i]); seg != "" {
			return museum.SafeBasename(seg, "archive")
		}
	}
	return "archive"
}
