package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaennil/guide_helper/backend/quadtiles/internal/entity"
	"github.com/jaennil/guide_helper/backend/quadtiles/internal/grid"
	"github.com/jaennil/guide_helper/backend/quadtiles/internal/usecase"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/config"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/geo"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/logger"
	"github.com/schollz/progressbar/v3"
)

// DefaultPrefetchOrigin is the tile around Loadpot Hill.
var DefaultPrefetchOrigin = geo.Rounded{X: 16125, Y: 10434}

// RunPrefetch warms the tile store with the window around the configured
// origin and reports how many tiles failed.
func RunPrefetch(cfg *config.Config) error {
	l, err := logger.NewZapLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	keys, err := PrefetchKeys(cfg.Prefetch)
	if err != nil {
		return err
	}

	tileUseCase, closer, err := newTileUseCase(cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize tile store: %w", err)
	}
	defer closer.Close()

	l.Info("prefetching tiles",
		"tiles", len(keys),
		"radius", cfg.Prefetch.Radius,
		"kinds", cfg.Prefetch.Kinds,
		"workers", cfg.Prefetch.Workers,
	)

	bar := progressbar.NewOptions(len(keys),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetDescription("prefetch"),
	)

	uc := usecase.NewPrefetchUseCase(tileUseCase, cfg.Prefetch.Workers, l)
	report, err := uc.Run(ctx, keys, func(entity.TileKey, string, error) {
		bar.Add(1)
	})
	bar.Finish()
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d tiles failed", report.Failed, report.Total)
	}
	return nil
}

// PrefetchKeys lists the cache keys of the configured window.
func PrefetchKeys(cfg config.Prefetch) ([]entity.TileKey, error) {
	origin := DefaultPrefetchOrigin
	switch {
	case cfg.HasOrigin():
		var err error
		origin, err = geo.ToRounded(*cfg.OriginLat, *cfg.OriginLon)
		if err != nil {
			return nil, fmt.Errorf("prefetch origin: %w", err)
		}
	case cfg.OriginLat != nil || cfg.OriginLon != nil:
		return nil, errors.New("prefetch origin: both latitude and longitude must be set")
	}

	kinds := make([]entity.Kind, 0, len(cfg.Kinds))
	for _, tag := range cfg.Kinds {
		kind, err := entity.ParseKind(tag)
		if err != nil {
			return nil, fmt.Errorf("prefetch kinds: %w", err)
		}
		kinds = append(kinds, kind)
	}

	return grid.Keys(grid.Window(origin, cfg.Radius), kinds...), nil
}
