// Package tilestore persists tiles write-once. A tile is created at most once
// per key and never updated or evicted.
package tilestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jaennil/guide_helper/backend/quadtiles/internal/entity"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/config"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/logger"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/metrics"
)

var ErrExists = errors.New("tile already exists")

// CacheWriteConflictError is returned by Create when the key is already taken.
type CacheWriteConflictError struct {
	Key entity.TileKey
}

func (e *CacheWriteConflictError) Error() string {
	return fmt.Sprintf("tilestore: create %s: %v", e.Key, ErrExists)
}

func (e *CacheWriteConflictError) Unwrap() error {
	return ErrExists
}

type TileValue []byte

type TileStore interface {
	Has(ctx context.Context, k entity.TileKey) (bool, error)
	Get(ctx context.Context, k entity.TileKey) (TileValue, bool, error)
	// Create stores the content of r under k. It fails with
	// CacheWriteConflictError if k already exists.
	Create(ctx context.Context, k entity.TileKey, r io.Reader) (int64, error)
}

const (
	BackendFilesystem = "filesystem"
	BackendSQLite     = "sqlite"
	BackendRedis      = "redis"
	BackendMemory     = "memory"
)

type instrumented struct {
	backend string
	store   TileStore
}

func (s *instrumented) Has(ctx context.Context, k entity.TileKey) (bool, error) {
	defer observe(s.backend, "has", time.Now())
	return s.store.Has(ctx, k)
}

func (s *instrumented) Get(ctx context.Context, k entity.TileKey) (TileValue, bool, error) {
	defer observe(s.backend, "get", time.Now())
	return s.store.Get(ctx, k)
}

func (s *instrumented) Create(ctx context.Context, k entity.TileKey, r io.Reader) (int64, error) {
	defer observe(s.backend, "create", time.Now())

	n, err := s.store.Create(ctx, k, r)
	var conflict *CacheWriteConflictError
	switch {
	case err == nil:
		metrics.TilesStores.WithLabelValues(s.backend).Inc()
	case errors.As(err, &conflict):
		metrics.TilesStoreConflicts.WithLabelValues(s.backend).Inc()
	}
	return n, err
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates the store selected by cfg.Backend. The returned closer releases
// backend connections.
func New(cfg config.Store, l logger.Logger) (TileStore, io.Closer, error) {
	s, closer, err := newBackend(cfg, l)
	if err != nil {
		return nil, nil, err
	}

	backend := cfg.Backend
	if backend == "" {
		backend = BackendFilesystem
	}
	return &instrumented{backend: backend, store: s}, closer, nil
}

func newBackend(cfg config.Store, l logger.Logger) (TileStore, io.Closer, error) {
	switch cfg.Backend {
	case BackendFilesystem, "":
		l.Info("using filesystem tile store", "dir", cfg.Dir)
		s, err := NewFilesystemStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	case BackendSQLite:
		s, err := NewSQLiteStore(cfg.SQLitePath, l)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case BackendRedis:
		l.Info("using redis tile store", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		s, err := NewRedisStore(RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case BackendMemory:
		l.Info("using memory tile store")
		return NewMemoryStore(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s (supported: filesystem, sqlite, redis, memory)", cfg.Backend)
	}
}

func observe(backend, operation string, start time.Time) {
	metrics.StoreOperationDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}
