package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/impact-sim/internal/adapter/backend"
	"github.com/couchcryptid/impact-sim/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/impact-sim/internal/adapter/kafka"
	"github.com/couchcryptid/impact-sim/internal/adapter/memory"
	"github.com/couchcryptid/impact-sim/internal/adapter/neows"
	"github.com/couchcryptid/impact-sim/internal/catalog"
	"github.com/couchcryptid/impact-sim/internal/config"
	"github.com/couchcryptid/impact-sim/internal/domain"
	"github.com/couchcryptid/impact-sim/internal/flow"
	"github.com/couchcryptid/impact-sim/internal/impact"
	"github.com/couchcryptid/impact-sim/internal/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	backendClient := backend.NewClient(cfg.ImpactAPIURL, cfg.ImpactAPITimeout, metrics, logger)

	// Catalog and details come from the impact backend or directly from NeoWs.
	var (
		catalogSource domain.CatalogSource = backendClient
		detailSource  domain.DetailSource  = backendClient
	)
	if cfg.CatalogSource == config.CatalogSourceNeoWs {
		feeds := neows.NewCachedFeed(
			neows.NewClient(cfg.NASAAPIKey, cfg.ImpactAPITimeout, metrics, logger),
			cfg.NeoWsCacheSize, cfg.NeoWsCacheTTL, clock, metrics,
		)
		src := neows.NewSource(feeds, cfg.NeoWsStartDate, cfg.NeoWsEndDate)
		catalogSource, detailSource = src, src
		logger.Info("catalog source: neows",
			"start_date", cfg.NeoWsStartDate,
			"end_date", cfg.NeoWsEndDate,
			"cache_ttl", cfg.NeoWsCacheTTL,
		)
	} else {
		logger.Info("catalog source: backend", "url", cfg.ImpactAPIURL)
	}

	var (
		points     domain.PointStore
		closePoint = func() error { return nil }
	)
	if cfg.PointStore == config.PointStoreKafka {
		store := kafkaadapter.NewPointStore(cfg.KafkaBrokers, cfg.KafkaPointTopic, logger)
		points, closePoint = store, store.Close
		logger.Info("point store: kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaPointTopic)
	} else {
		points = memory.NewPointStore()
		logger.Info("point store: memory")
	}

	loader := catalog.NewLoader(catalogSource, detailSource, logger, metrics)
	orchestrator := impact.New(backendClient, logger, metrics)
	mapDefault := domain.MapView{
		Center: domain.GeoPoint{Lat: cfg.MapDefaultLat, Lng: cfg.MapDefaultLng},
		Zoom:   cfg.MapDefaultZoom,
	}
	newController := func(l *slog.Logger) *flow.Controller {
		return flow.New(loader, orchestrator, points, mapDefault, l, metrics)
	}
	registry := flow.NewRegistry(newController, cfg.SessionIdleTimeout, clock, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, registry, points, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start session registry.
	registryDone := make(chan struct{})
	go func() {
		defer close(registryDone)
		if err := registry.Run(ctx); err != nil {
			logger.Error("session registry error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-registryDone:
	case <-shutdownCtx.Done():
		logger.Warn("session registry did not stop before the shutdown timeout")
	}
	if err := closePoint(); err != nil {
		logger.Error("point store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
