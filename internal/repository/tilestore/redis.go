package tilestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jaennil/guide_helper/backend/quadtiles/internal/entity"
	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
	}, nil
}

var _ TileStore = (*RedisStore)(nil)

func (s *RedisStore) keyFor(k entity.TileKey) string {
	return "tile:" + k.FileName()
}

func (s *RedisStore) Has(ctx context.Context, k entity.TileKey) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyFor(k)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists error: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Get(ctx context.Context, k entity.TileKey) (TileValue, bool, error) {
	data, err := s.client.Get(ctx, s.keyFor(k)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get error: %w", err)
	}

	return data, true, nil
}

// Create uses SETNX without expiry: tiles live until the key is removed by hand.
func (s *RedisStore) Create(ctx context.Context, k entity.TileKey, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return int64(len(data)), fmt.Errorf("failed to read tile %s: %w", k, err)
	}

	ok, err := s.client.SetNX(ctx, s.keyFor(k), data, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("redis setnx error: %w", err)
	}
	if !ok {
		return 0, &CacheWriteConflictError{Key: k}
	}

	return int64(len(data)), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
