// Package storage keeps archive bytes outside the database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/immuse/tourwizard/internal/config"
)

// ErrNotFound is returned by Download when no object exists at the path.
var ErrNotFound = errors.New("object not found")

// Storage stores objects addressed by bucket and slash-separated path.
type Storage interface {
	Upload(ctx context.Context, bucket, path string, data io.Reader, contentType string) error
	Download(ctx context.Context, bucket, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket, path string) error
	GetPublicURL(bucket, path string) string
}

// New returns the backend selected by cfg.Backend.
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocalStorage(cfg.Root), nil
	case "supabase":
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return nil, fmt.Errorf("supabase storage requires SUPABASE_URL and SUPABASE_SERVICE_KEY")
		}
		return NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// ReadAll downloads an object fully into memory.
func ReadAll(ctx context.Context, s Storage, bucket, path string) ([]byte, error) {
	rc, err := s.Download(ctx, bucket, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, path, err)
	}
	return data, nil
}
