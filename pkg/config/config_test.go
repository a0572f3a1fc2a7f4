package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if got, want := cfg.HTTP.Server.Port, "3000"; got != want {
		t.Errorf("HTTP.Server.Port = %v, want = %v", got, want)
	}
	if got, want := cfg.Store.Backend, "filesystem"; got != want {
		t.Errorf("Store.Backend = %v, want = %v", got, want)
	}
	if got, want := cfg.Upstream.Timeout, 30*time.Second; got != want {
		t.Errorf("Upstream.Timeout = %v, want = %v", got, want)
	}
	if diff := cmp.Diff([]string{"os", "sat"}, cfg.Prefetch.Kinds); diff != "" {
		t.Errorf("Prefetch.Kinds mismatch (-want+got):\n%v", diff)
	}
	if cfg.Prefetch.HasOrigin() {
		t.Errorf("Prefetch.HasOrigin() = true without origin")
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_SERVER_PORT", "8081")
	t.Setenv("UPSTREAM_MAP_KEY", "secret")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("STORE_REDIS_DB", "3")
	t.Setenv("PREFETCH_ORIGIN_LAT", "54.555489")
	t.Setenv("PREFETCH_ORIGIN_LON", "-2.838595")
	t.Setenv("PREFETCH_KINDS", "sat")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if got, want := cfg.HTTP.Server.Port, "8081"; got != want {
		t.Errorf("HTTP.Server.Port = %v, want = %v", got, want)
	}
	if got, want := cfg.Upstream.MapKey, "secret"; got != want {
		t.Errorf("Upstream.MapKey = %v, want = %v", got, want)
	}
	if got, want := cfg.Store.Redis.DB, 3; got != want {
		t.Errorf("Store.Redis.DB = %v, want = %v", got, want)
	}
	if !cfg.Prefetch.HasOrigin() {
		t.Fatalf("Prefetch.HasOrigin() = false")
	}
	if got, want := *cfg.Prefetch.OriginLat, 54.555489; got != want {
		t.Errorf("Prefetch.OriginLat = %v, want = %v", got, want)
	}
	if diff := cmp.Diff([]string{"sat"}, cfg.Prefetch.Kinds); diff != "" {
		t.Errorf("Prefetch.Kinds mismatch (-want+got):\n%v", diff)
	}
}

func TestNewOriginAtZero(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PREFETCH_ORIGIN_LAT", "0")
	t.Setenv("PREFETCH_ORIGIN_LON", "0")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if !cfg.Prefetch.HasOrigin() {
		t.Errorf("Prefetch.HasOrigin() = false for origin 0,0")
	}
}

func TestNewOriginPartial(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PREFETCH_ORIGIN_LAT", "0")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if cfg.Prefetch.HasOrigin() {
		t.Errorf("Prefetch.HasOrigin() = true with only a latitude")
	}
	if cfg.Prefetch.OriginLat == nil || cfg.Prefetch.OriginLon != nil {
		t.Errorf("Prefetch origin = %v, %v, want lat only", cfg.Prefetch.OriginLat, cfg.Prefetch.OriginLon)
	}
}
