package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileSystemStore stores artifacts under a base directory
type FileSystemStore struct {
	basePath string
	logger   *zap.Logger
}

// NewFileSystemStore creates the base directory if needed
func NewFileSystemStore(basePath string, logger *zap.Logger) (*FileSystemStore, error) {
	if basePath == "" {
		basePath = "./data/receipts"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: failed to create directory %s: %w", basePath, err)
	}
	return &FileSystemStore{basePath: basePath, logger: logger}, nil
}

// resolve maps a key to a path and verifies it stays under the base directory
func (s *FileSystemStore) resolve(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("storage: failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("storage: failed to resolve path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		s.logger.Warn("path escape attempt blocked", zap.String("key", key))
		return "", ErrInvalidKey
	}
	return absPath, nil
}

// Put writes the artifact atomically by renaming a temp file into place
func (s *FileSystemStore) Put(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("storage: failed to move artifact into place: %w", err)
	}

	s.logger.Debug("artifact stored", zap.String("key", key), zap.Int("size", len(data)))
	return nil
}

// Get reads an artifact
func (s *FileSystemStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: failed to read artifact: %w", err)
	}
	return data, nil
}

// Exists reports whether the artifact is present
func (s *FileSystemStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: failed to stat artifact: %w", err)
	}
	return true, nil
}

// Delete removes an artifact; a missing artifact is not an error
func (s *FileSystemStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: failed to delete artifact: %w", err)
	}
	return nil
}

var _ ArtifactStore = (*FileSystemStore)(nil)
