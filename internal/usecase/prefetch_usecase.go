package usecase

import (
	"context"
	"sync"

	"github.com/jaennil/guide_helper/backend/quadtiles/internal/entity"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/logger"
	"golang.org/x/sync/errgroup"
)

type TileGetter interface {
	GetTile(ctx context.Context, qk string, kind entity.Kind) (*Tile, error)
}

type PrefetchReport struct {
	Total   int
	Cached  int
	Fetched int
	Failed  int
}

// ProgressFunc is called once per finished key, never concurrently.
type ProgressFunc func(key entity.TileKey, source string, err error)

type PrefetchUseCase struct {
	tiles   TileGetter
	workers int
	logger  logger.Logger
}

func NewPrefetchUseCase(tiles TileGetter, workers int, l logger.Logger) *PrefetchUseCase {
	if workers < 1 {
		workers = 1
	}
	return &PrefetchUseCase{
		tiles:   tiles,
		workers: workers,
		logger:  l,
	}
}

// Run pulls every key through the tile cache. A failing tile is counted and
// logged; only cancellation of ctx stops the run early.
func (uc *PrefetchUseCase) Run(ctx context.Context, keys []entity.TileKey, progress ProgressFunc) (PrefetchReport, error) {
	report := PrefetchReport{Total: len(keys)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)

	for _, key := range keys {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			tile, err := uc.tiles.GetTile(gctx, key.QuadKey, key.Kind)

			mu.Lock()
			defer mu.Unlock()

			source := ""
			switch {
			case err != nil:
				report.Failed++
				uc.logger.Warn("prefetch failed", "tile", key, "error", err)
			case tile.Source == SourceNetwork:
				report.Fetched++
				source = tile.Source
			default:
				report.Cached++
				source = tile.Source
			}
			if progress != nil {
				progress(key, source, err)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	uc.logger.Info("prefetch finished",
		"total", report.Total,
		"cached", report.Cached,
		"fetched", report.Fetched,
		"failed", report.Failed,
	)

	return report, err
}
