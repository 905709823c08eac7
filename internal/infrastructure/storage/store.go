// Package storage persists receipt artifacts on the local file system or in S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hostel/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var (
	// ErrInvalidKey is returned for empty, absolute or escaping keys
	ErrInvalidKey = errors.New("storage: invalid key")
	// ErrNotFound is returned when an artifact does not exist
	ErrNotFound = errors.New("storage: artifact not found")
)

// ArtifactStore saves and retrieves rendered artifacts by key.
// Keys are slash-separated relative paths such as "<tenant>/2026/03/RCP-....pdf".
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// NewArtifactStore builds the store selected by configuration
func NewArtifactStore(ctx context.Context, cfg config.ReceiptConfig, logger *zap.Logger) (ArtifactStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.StorageBackend {
	case config.StorageBackendS3:
		store, err := NewS3ArtifactStore(S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3PathStyle,
		}, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return NewFileSystemStore(cfg.BasePath, logger)
	}
}

// validateKey rejects keys that could escape the store root
func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if filepath.IsAbs(key) || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	if slices.Contains(parts, "..") {
		return ErrInvalidKey
	}
	return nil
}
