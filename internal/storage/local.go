package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage writes objects to root/bucket/path on the local disk.
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

func (s *LocalStorage) resolve(bucket, path string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(path))
	if clean == string(filepath.Separator) || strings.Contains(bucket, "..") || strings.ContainsAny(bucket, `/\`) {
		return "", fmt.Errorf("invalid object path %q/%q", bucket, path)
	}
	return filepath.Join(s.root, bucket, clean), nil
}

func (s *LocalStorage) Upload(ctx context.Context, bucket, path string, data io.Reader, _ string) error {
	full, err := s.resolve(bucket, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close object: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("commit object: %w", err)
	}
	return nil
}

func (s *LocalStorage) Download(_ context.Context, bucket, path string) (io.ReadCloser, error) {
	full, err := s.resolve(bucket, path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("download %s/%s: %w", bucket, path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return f, nil
}

func (s *LocalStorage) Delete(_ context.Context, bucket, path string) error {
	full, err := s.resolve(bucket, path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *LocalStorage) GetPublicURL(bucket, path string) string {
	full, err := s.resolve(bucket, path)
	if err != nil {
		return ""
	}
	return "file://" + filepath.ToSlash(full)
}
