// Package storage writes exported statement files to the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/kvdph/internal/application/port"
)

// ErrPathEscapesRoot is returned for paths resolving outside the store root
var ErrPathEscapesRoot = errors.New("path escapes storage root")

// LocalArtifactStore implements port.ArtifactStore on a directory
type LocalArtifactStore struct {
	root   string
	logger *zap.Logger
}

// NewLocalArtifactStore creates a store rooted at dir
func NewLocalArtifactStore(dir string, logger *zap.Logger) *LocalArtifactStore {
	return &LocalArtifactStore{
		root:   dir,
		logger: logger,
	}
}

// Save writes content through a temporary file and renames it into place
func (s *LocalArtifactStore) Save(ctx context.Context, path string, content []byte) error {
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.Error("Failed to create artifact directory",
			zap.String("path", dir),
			zap.Error(err))
		return fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		_ = os.Remove(tmpName)
		s.logger.Error("Failed to move artifact into place",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to store artifact: %w", err)
	}

	s.logger.Debug("Artifact saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))
	return nil
}

// Read returns the content of a stored artifact
func (s *LocalArtifactStore) Read(ctx context.Context, path string) ([]byte, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: artifact %s", port.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return content, nil
}

// Delete removes an artifact. Missing files are not an error.
func (s *LocalArtifactStore) Delete(ctx context.Context, path string) error {
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error("Failed to delete artifact",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

// FullPath joins a relative path onto the store root
func (s *LocalArtifactStore) FullPath(relativePath string) string {
	return filepath.Join(s.root, relativePath)
}

func (s *LocalArtifactStore) resolve(path string) (string, error) {
	fullPath := s.FullPath(path)

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root: %w", err)
	}

	if !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, path)
	}
	return fullPath, nil
}

var _ port.ArtifactStore = (*LocalArtifactStore)(nil)
