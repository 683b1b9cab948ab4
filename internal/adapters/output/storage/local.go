package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gorod-sporta/internal/core/ports"

	"go.uber.org/zap"
)

// LocalStorage writes photos under a directory served as static files.
type LocalStorage struct {
	dir     string
	baseURL string
	log     *zap.Logger
}

var _ ports.PhotoStorage = (*LocalStorage)(nil)

func NewLocalStorage(dir, baseURL string, log *zap.Logger) (*LocalStorage, error) {
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	if dir == "" {
		return nil, errors.New("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), log: log}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Save(ctx context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean("/" + key)
	path := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create photo dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		s.log.Error("storage: failed to create photo file", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("create photo: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		s.log.Error("storage: failed to write photo", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("write photo: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close photo: %w", err)
	}

	s.log.Info("storage: photo saved", zap.String("path", path))
	return s.baseURL + filepath.ToSlash(clean), nil
}
