package tilestore

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/jaennil/guide_helper/backend/quadtiles/internal/entity"
)

type MemoryStore struct {
	m *TypedSyncMap
}

type TypedSyncMap struct {
	m sync.Map
}

func (c *TypedSyncMap) Load(k entity.TileKey) (TileValue, bool) {
	v, exists := c.m.Load(k)
	if !exists {
		return nil, false
	}
	return v.(TileValue), exists
}

// LoadOrStore stores v unless k is present and reports whether it was present.
func (c *TypedSyncMap) LoadOrStore(k entity.TileKey, v TileValue) bool {
	_, loaded := c.m.LoadOrStore(k, v)
	return loaded
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m: &TypedSyncMap{},
	}
}

var _ TileStore = (*MemoryStore)(nil)

func (s *MemoryStore) Has(_ context.Context, k entity.TileKey) (bool, error) {
	_, exists := s.m.Load(k)
	return exists, nil
}

func (s *MemoryStore) Get(_ context.Context, k entity.TileKey) (TileValue, bool, error) {
	v, exists := s.m.Load(k)
	return v, exists, nil
}

func (s *MemoryStore) Create(_ context.Context, k entity.TileKey, r io.Reader) (int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return n, err
	}

	if s.m.LoadOrStore(k, buf.Bytes()) {
		return 0, &CacheWriteConflictError{Key: k}
	}
	return n, nil
}
