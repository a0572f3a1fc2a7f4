package tilestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jaennil/guide_helper/backend/quadtiles/internal/entity"
)

// in-flight tiles are staged next to the published ones
const tempPattern = ".tile-*"

// FilesystemStore keeps one file per tile in a flat directory. The directory
// itself is the index: a tile exists when its file exists.
type FilesystemStore struct {
	dir string
}

var _ TileStore = (*FilesystemStore)(nil)

func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create tile directory: %w", err)
	}

	return &FilesystemStore{dir: dir}, nil
}

func (s *FilesystemStore) path(k entity.TileKey) string {
	return filepath.Join(s.dir, k.FileName())
}

func (s *FilesystemStore) Has(_ context.Context, k entity.TileKey) (bool, error) {
	_, err := os.Stat(s.path(k))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *FilesystemStore) Get(_ context.Context, k entity.TileKey) (TileValue, bool, error) {
	content, err := os.ReadFile(s.path(k))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return content, true, nil
}

// Create stages the tile in a hidden temp file and links it into place, so a
// tile file is never visible before its last byte is written.
func (s *FilesystemStore) Create(_ context.Context, k entity.TileKey, r io.Reader) (int64, error) {
	path := s.path(k)
	if _, err := os.Lstat(path); err == nil {
		return 0, &CacheWriteConflictError{Key: k}
	}

	tmp, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("failed to write tile %s: %w", k, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return n, err
	}

	// link fails with EEXIST instead of replacing, which keeps create exclusive
	err = os.Link(tmpPath, path)
	if errors.Is(err, fs.ErrExist) {
		return 0, &CacheWriteConflictError{Key: k}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to publish tile %s: %w", k, err)
	}

	return n, nil
}
