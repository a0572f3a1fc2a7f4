package tilestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jaennil/guide_helper/backend/quadtiles/internal/entity"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/config"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/logger"
)

var (
	baseKey      = entity.TileKey{QuadKey: "031311033111121", Kind: entity.KindBase}
	satelliteKey = entity.TileKey{QuadKey: "031311033111121", Kind: entity.KindSatellite}
)

func stores(t *testing.T) map[string]TileStore {
	t.Helper()

	fsStore, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tiles.db"), logger.NewNoOp())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	all := map[string]TileStore{
		BackendMemory:     NewMemoryStore(),
		BackendFilesystem: fsStore,
		BackendSQLite:     sqliteStore,
	}

	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		redisStore, err := NewRedisStore(RedisConfig{Addr: addr, DB: 15})
		if err != nil {
			t.Fatalf("NewRedisStore failed: %v", err)
		}
		redisStore.client.FlushDB(context.Background())
		t.Cleanup(func() { redisStore.Close() })
		all[BackendRedis] = redisStore
	}

	return all
}

func TestStoreCreateGet(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			has, err := s.Has(ctx, baseKey)
			if err != nil || has {
				t.Fatalf("Has(empty) = %v, %v, want false, nil", has, err)
			}
			if _, ok, err := s.Get(ctx, baseKey); err != nil || ok {
				t.Fatalf("Get(empty) = %v, %v, want false, nil", ok, err)
			}

			n, err := s.Create(ctx, baseKey, bytes.NewReader([]byte("webp-bytes")))
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if n != int64(len("webp-bytes")) {
				t.Errorf("Create wrote %d bytes, want %d", n, len("webp-bytes"))
			}

			has, err = s.Has(ctx, baseKey)
			if err != nil || !has {
				t.Fatalf("Has = %v, %v, want true, nil", has, err)
			}
			data, ok, err := s.Get(ctx, baseKey)
			if err != nil || !ok {
				t.Fatalf("Get = %v, %v, want true, nil", ok, err)
			}
			if string(data) != "webp-bytes" {
				t.Errorf("Get = %q, want %q", data, "webp-bytes")
			}

			if has, _ := s.Has(ctx, satelliteKey); has {
				t.Errorf("Has(%v) = true, kinds must not share entries", satelliteKey)
			}
		})
	}
}

func TestStoreCreateConflict(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Create(ctx, baseKey, bytes.NewReader([]byte("first"))); err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			_, err := s.Create(ctx, baseKey, bytes.NewReader([]byte("second")))
			var conflict *CacheWriteConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("second Create error = %v, want CacheWriteConflictError", err)
			}
			if !errors.Is(err, ErrExists) {
				t.Errorf("errors.Is(%v, ErrExists) = false", err)
			}
			if conflict.Key != baseKey {
				t.Errorf("conflict key = %v, want %v", conflict.Key, baseKey)
			}

			data, _, err := s.Get(ctx, baseKey)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if string(data) != "first" {
				t.Errorf("Get = %q, want the first write", data)
			}
		})
	}
}

func TestStoreConcurrentCreate(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var wins, conflicts atomic.Int32
			var wg sync.WaitGroup
			for range 16 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := s.Create(ctx, satelliteKey, bytes.NewReader([]byte("jpeg")))
					switch {
					case err == nil:
						wins.Add(1)
					case errors.Is(err, ErrExists):
						conflicts.Add(1)
					default:
						t.Errorf("Create failed: %v", err)
					}
				}()
			}
			wg.Wait()

			if wins.Load() != 1 {
				t.Errorf("%d writers won, want exactly 1 (conflicts: %d)", wins.Load(), conflicts.Load())
			}
		})
	}
}

type failingReader struct {
	data []byte
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.ErrUnexpectedEOF
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestFilesystemCreateRemovesPartialTile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFilesystemStore(dir)
	if err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}

	_, err = s.Create(context.Background(), baseKey, &failingReader{data: []byte("partial")})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("Create error = %v, want ErrUnexpectedEOF", err)
	}

	if _, err := os.Stat(filepath.Join(dir, baseKey.FileName())); !os.IsNotExist(err) {
		t.Errorf("partial tile left behind: %v", err)
	}
	assertOnlyFiles(t, dir)
}

// gatedReader yields head, then blocks until release is closed before
// yielding tail.
type gatedReader struct {
	head, tail []byte
	started    chan struct{}
	release    chan struct{}
}

func (r *gatedReader) Read(p []byte) (int, error) {
	if len(r.head) > 0 {
		n := copy(p, r.head)
		r.head = r.head[n:]
		if len(r.head) == 0 {
			close(r.started)
		}
		return n, nil
	}
	<-r.release
	if len(r.tail) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.tail)
	r.tail = r.tail[n:]
	return n, nil
}

func TestFilesystemTileInvisibleWhileWriting(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFilesystemStore(dir)
	if err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}

	r := &gatedReader{
		head:    []byte("FIRST-HALF"),
		tail:    []byte("-SECOND-HALF"),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Create(ctx, baseKey, r)
		done <- err
	}()

	<-r.started

	exists, err := s.Has(ctx, baseKey)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if exists {
		t.Errorf("Has() = true while the tile is still being written")
	}
	if _, ok, _ := s.Get(ctx, baseKey); ok {
		t.Errorf("Get() found a tile that is still being written")
	}

	close(r.release)
	if err := <-done; err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, ok, err := s.Get(ctx, baseKey)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if want := "FIRST-HALF-SECOND-HALF"; string(got) != want {
		t.Errorf("Get() = %q, want = %q", got, want)
	}
	assertOnlyFiles(t, dir, baseKey.FileName())
}

func assertOnlyFiles(t *testing.T, dir string, want ...string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("directory content mismatch (-want+got):\n%v", diff)
	}
}

func TestFilesystemLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFilesystemStore(dir)
	if err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}

	for _, k := range []entity.TileKey{baseKey, satelliteKey} {
		if _, err := s.Create(context.Background(), k, bytes.NewReader([]byte(k.FileName()))); err != nil {
			t.Fatalf("Create(%v) failed: %v", k, err)
		}
	}

	for _, name := range []string{"031311033111121-os.webp", "031311033111121-sat.jpeg"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("ReadFile(%v) failed: %v", name, err)
			continue
		}
		if string(data) != name {
			t.Errorf("%v content = %q", name, data)
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{backend: ""},
		{backend: BackendFilesystem},
		{backend: BackendMemory},
		{backend: BackendSQLite},
		{backend: "s3", wantErr: true},
	}

	for _, tt := range tests {
		cfg := config.Store{
			Backend:    tt.backend,
			Dir:        t.TempDir(),
			SQLitePath: filepath.Join(t.TempDir(), "tiles.db"),
		}
		s, closer, err := New(cfg, logger.NewNoOp())
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%q) succeeded, want error", tt.backend)
			}
			continue
		}
		if err != nil {
			t.Errorf("New(%q) failed: %v", tt.backend, err)
			continue
		}

		if _, err := s.Create(context.Background(), baseKey, bytes.NewReader([]byte("x"))); err != nil {
			t.Errorf("New(%q).Create failed: %v", tt.backend, err)
		}
		if _, err := s.Create(context.Background(), baseKey, bytes.NewReader([]byte("x"))); !errors.Is(err, ErrExists) {
			t.Errorf("New(%q).Create twice error = %v, want ErrExists", tt.backend, err)
		}
		closer.Close()
	}
}
