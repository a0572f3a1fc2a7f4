package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jaennil/guide_helper/backend/quadtiles/internal/entity"
	"github.com/jaennil/guide_helper/backend/quadtiles/internal/provider"
	"github.com/jaennil/guide_helper/backend/quadtiles/internal/repository/tilestore"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/config"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/logger"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/metrics"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/quadkey"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

const (
	SourceCache   = "cache"
	SourceNetwork = "network"

	defaultUpstreamTimeout = 30 * time.Second
)

type Tile struct {
	Key    entity.TileKey
	Data   []byte
	Source string
}

// UpstreamFetchError reports a transport failure (Err set) or a non-2xx
// response (StatusCode set). URL carries no query string.
type UpstreamFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("upstream fetch %s: status %d", e.URL, e.StatusCode)
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Err
}

type TileUseCase struct {
	store      tilestore.TileStore
	urls       *provider.Builder
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	inflight   singleflight.Group
	logger     logger.Logger
}

func NewTileUseCase(store tilestore.TileStore, urls *provider.Builder, cfg config.Upstream, l logger.Logger) *TileUseCase {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultUpstreamTimeout
	}

	return &TileUseCase{
		store: store,
		urls:  urls,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		logger:    l,
	}
}

// GetTile serves a tile from the store, fetching and persisting it first on
// a miss. Concurrent misses for the same key share one upstream fetch.
func (uc *TileUseCase) GetTile(ctx context.Context, qk string, kind entity.Kind) (*Tile, error) {
	if err := quadkey.Validate(qk); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %v", entity.ErrUnknownKind, kind)
	}
	key := entity.TileKey{QuadKey: qk, Kind: kind}

	metrics.TilesRequests.WithLabelValues(kind.Tag()).Inc()

	exists, err := uc.store.Has(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("cache lookup %s: %w", key, err)
	}

	source := SourceCache
	if exists {
		metrics.TilesCacheHits.WithLabelValues(kind.Tag()).Inc()
		uc.logger.Debug("cache hit", "tile", key)
	} else {
		metrics.TilesCacheMisses.WithLabelValues(kind.Tag()).Inc()
		uc.logger.Debug("cache miss", "tile", key)

		fetched, err := uc.fill(ctx, key)
		if err != nil {
			return nil, err
		}
		if fetched {
			source = SourceNetwork
		}
	}

	data, ok, err := uc.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read tile %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("read tile %s: not in store after persist", key)
	}

	return &Tile{Key: key, Data: data, Source: source}, nil
}

// fill runs at most one fetch-and-persist per key at a time. The shared fetch
// is detached from the caller so one cancelled waiter does not fail the rest.
func (uc *TileUseCase) fill(ctx context.Context, key entity.TileKey) (bool, error) {
	// set only by the caller whose call starts the flight; read after the
	// result arrives on ch
	var leader bool
	ch := uc.inflight.DoChan(key.FileName(), func() (any, error) {
		leader = true
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.timeout)
		defer cancel()
		return uc.fetchAndPersist(fetchCtx, key)
	})

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-ch:
		if res.Shared && !leader {
			metrics.TilesCoalesced.Inc()
		}
		if res.Err != nil {
			return false, res.Err
		}
		return res.Val.(bool), nil
	}
}

func (uc *TileUseCase) fetchAndPersist(ctx context.Context, key entity.TileKey) (bool, error) {
	// a previous flight may have finished between the lookup and this one
	exists, err := uc.store.Has(ctx, key)
	if err != nil {
		return false, fmt.Errorf("cache lookup %s: %w", key, err)
	}
	if exists {
		return false, nil
	}

	tileURL, err := uc.urls.QuadKeyURL(key.QuadKey, key.Kind)
	if err != nil {
		return false, err
	}

	ctx, span := telemetry.Tracer().Start(ctx, "tiles.fetch")
	span.SetAttributes(
		attribute.String("tile.quad_key", key.QuadKey),
		attribute.String("tile.kind", key.Kind.Tag()),
	)
	defer span.End()

	n, err := uc.fetch(ctx, key, tileURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	span.SetAttributes(attribute.Int64("tile.size", n))
	return true, nil
}

func (uc *TileUseCase) fetch(ctx context.Context, key entity.TileKey, tileURL string) (int64, error) {
	redacted := redactURL(tileURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tileURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if uc.userAgent != "" {
		req.Header.Set("User-Agent", uc.userAgent)
	}

	uc.logger.Info("fetching from upstream", "tile", key, "url", redacted)
	metrics.TilesUpstreamRequests.WithLabelValues(key.Kind.Tag()).Inc()

	start := time.Now()
	resp, err := uc.httpClient.Do(req)
	metrics.TilesUpstreamLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TilesUpstreamErrors.WithLabelValues(key.Kind.Tag()).Inc()
		// url.Error repeats the full URL, credential included
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		uc.logger.Error("failed to fetch from upstream", "tile", key, "error", err)
		return 0, &UpstreamFetchError{URL: redacted, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.TilesUpstreamErrors.WithLabelValues(key.Kind.Tag()).Inc()
		uc.logger.Error("upstream returned non-2xx", "tile", key, "status", resp.StatusCode)
		return 0, &UpstreamFetchError{URL: redacted, StatusCode: resp.StatusCode}
	}

	n, err := uc.store.Create(ctx, key, resp.Body)
	var conflict *tilestore.CacheWriteConflictError
	if errors.As(err, &conflict) {
		uc.logger.Warn("tile persisted by another writer, serving stored copy", "tile", key)
		return 0, nil
	}
	if err != nil {
		uc.logger.Error("failed to persist tile", "tile", key, "error", err)
		return 0, fmt.Errorf("persist tile %s: %w", key, err)
	}

	uc.logger.Info("fetched tile from upstream", "tile", key, "size", n, "duration", time.Since(start))
	return n, nil
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.RawQuery = ""
	return u.String()
}
