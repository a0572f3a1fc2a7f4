package app

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "github.com/jaennil/guide_helper/backend/quadtiles/internal/infrastructure/http/v1"
	"github.com/jaennil/guide_helper/backend/quadtiles/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/quadtiles/internal/provider"
	"github.com/jaennil/guide_helper/backend/quadtiles/internal/repository/tilestore"
	"github.com/jaennil/guide_helper/backend/quadtiles/internal/usecase"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/config"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/http_server"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/logger"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/telemetry"
)

const shutdownTimeout = 30 * time.Second

func Run(cfg *config.Config) {
	l, err := logger.NewZapLogger(cfg.Logger)
	if err != nil {
		log.Fatalln("failed to initialize logger: ", err)
	}
	defer l.Sync()

	l.Info("starting quadtiles service",
		"store", cfg.Store.Backend,
		"address", cfg.HTTP.Server.Host+":"+cfg.HTTP.Server.Port,
		"credential_set", cfg.Upstream.MapKey != "",
	)

	ctx := logger.WithLogger(context.Background(), l)

	shutdownTelemetry := initTelemetry(cfg.Telemetry, l)
	defer shutdownTelemetry()

	tileUseCase, closer, err := newTileUseCase(cfg, l)
	if err != nil {
		l.Fatal("failed to initialize tile store", "backend", cfg.Store.Backend, "error", err)
	}
	defer closer.Close()

	validate, err := handler.NewValidator()
	if err != nil {
		l.Fatal("failed to initialize validator", "error", err)
	}
	h := handler.NewHandler(validate, tileUseCase)

	routerCfg := v1.RouterConfig{
		ServiceName:      cfg.Telemetry.ServiceName,
		TelemetryEnabled: cfg.Telemetry.Enabled,
		RequestTimeout:   cfg.HTTP.Timeout,
	}
	if cfg.Store.Backend == tilestore.BackendFilesystem {
		routerCfg.PublicDir = cfg.Store.Dir
	}
	router := v1.NewRouter(h, l, routerCfg)

	httpServer := http_server.NewServer(ctx, cfg.HTTP.Server, router)

	go func() {
		l.Info("starting http server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("http server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Error("http server shutdown failed", "error", err)
	} else {
		l.Info("http server stopped", "address", httpServer.Addr)
	}
}

func newTileUseCase(cfg *config.Config, l logger.Logger) (*usecase.TileUseCase, io.Closer, error) {
	store, closer, err := tilestore.New(cfg.Store, l)
	if err != nil {
		return nil, nil, err
	}

	urls := provider.NewBuilder(cfg.Upstream.MapKey,
		provider.WithBaseURL(cfg.Upstream.BaseURL),
		provider.WithSatelliteURL(cfg.Upstream.SatelliteURL),
	)

	return usecase.NewTileUseCase(store, urls, cfg.Upstream, l), closer, nil
}

func initTelemetry(cfg config.Telemetry, l logger.Logger) func() {
	if !cfg.Enabled {
		return func() {}
	}

	shutdown, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	}, l)
	if err != nil {
		l.Fatal("failed to initialize telemetry", "error", err)
	}
	l.Info("telemetry initialized", "service", cfg.ServiceName)

	return func() {
		if err := shutdown(context.Background()); err != nil {
			l.Error("failed to shutdown telemetry", "error", err)
		}
	}
}
