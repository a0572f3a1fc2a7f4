package tilestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"

	"github.com/jaennil/guide_helper/backend/quadtiles/internal/entity"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/logger"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSQLiteStore(path string, l logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// sqlite allows a single writer; keep one connection so concurrent
	// creates queue instead of failing with SQLITE_BUSY
	db.SetMaxOpenConns(1)

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{
		db:     db,
		logger: l,
	}

	err = s.runMigrations()
	if err != nil {
		db.Close()
		return nil, err
	}

	l.Info("sqlite tile store initialized", "path", path)

	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations)

	err := goose.SetDialect("sqlite3")
	if err != nil {
		return err
	}

	err = goose.Up(s.db, "migrations")
	if err != nil {
		return err
	}

	return nil
}

var _ TileStore = (*SQLiteStore)(nil)

func (s *SQLiteStore) Has(ctx context.Context, k entity.TileKey) (bool, error) {
	query := `SELECT 1
	FROM tiles
	WHERE quad_key = ? AND kind = ?`

	var one int
	err := s.db.QueryRowContext(ctx, query, k.QuadKey, k.Kind.Tag()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		s.logger.Error("sqlite tile store has failed", "key", k, "error", err)
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) Get(ctx context.Context, k entity.TileKey) (TileValue, bool, error) {
	s.logger.Debug("sqlite tile store get", "key", k)

	query := `SELECT tile_data
	FROM tiles
	WHERE quad_key = ? AND kind = ?`

	var tileData []byte
	err := s.db.QueryRowContext(ctx, query, k.QuadKey, k.Kind.Tag()).Scan(&tileData)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		s.logger.Error("sqlite tile store get failed", "key", k, "error", err)
		return nil, false, err
	}

	return tileData, true, nil
}

func (s *SQLiteStore) Create(ctx context.Context, k entity.TileKey, r io.Reader) (int64, error) {
	s.logger.Debug("sqlite tile store create", "key", k)

	data, err := io.ReadAll(r)
	if err != nil {
		return int64(len(data)), fmt.Errorf("failed to read tile %s: %w", k, err)
	}

	query := `INSERT INTO tiles (quad_key, kind, tile_data)
	VALUES (?, ?, ?)
	ON CONFLICT(quad_key, kind) DO NOTHING`

	res, err := s.db.ExecContext(ctx, query, k.QuadKey, k.Kind.Tag(), data)
	if err != nil {
		s.logger.Error("sqlite tile store create failed", "key", k, "error", err)
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, &CacheWriteConflictError{Key: k}
	}

	return int64(len(data)), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
