package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/soundscape-data/internal/adapter/fsstore"
	httpadapter "github.com/couchcryptid/soundscape-data/internal/adapter/http"
	"github.com/couchcryptid/soundscape-data/internal/adapter/httpstore"
	kafkaadapter "github.com/couchcryptid/soundscape-data/internal/adapter/kafka"
	"github.com/couchcryptid/soundscape-data/internal/config"
	"github.com/couchcryptid/soundscape-data/internal/dataset"
	"github.com/couchcryptid/soundscape-data/internal/domain"
	"github.com/couchcryptid/soundscape-data/internal/observability"
	"github.com/couchcryptid/soundscape-data/internal/trips"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	clock := clockwork.NewRealClock()

	var store domain.AssetStore
	if cfg.AssetBaseURL != "" {
		store = httpstore.NewClient(cfg.AssetBaseURL, cfg.AssetTimeout, logger, metrics, httpstore.WithClock(clock))
		logger.Info("serving assets over http", "base_url", cfg.AssetBaseURL, "timeout", cfg.AssetTimeout)
	} else {
		store = fsstore.NewDir(cfg.AssetDir, metrics, fsstore.WithClock(clock))
		logger.Info("serving assets from disk", "dir", cfg.AssetDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		datasetOpts []dataset.Option
		tripsOpts   []trips.Option
		writer      *kafkaadapter.Writer
	)
	if cfg.NotificationsEnabled() {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaNotifyTopic, logger)
		datasetOpts = append(datasetOpts, dataset.WithNotifier(writer))
		tripsOpts = append(tripsOpts, trips.WithNotifier(writer))
		logger.Info("load notifications enabled", "topic", cfg.KafkaNotifyTopic)
	} else {
		logger.Info("load notifications disabled")
	}

	raw, err := store.Fetch(ctx, domain.SensorsAssetKey)
	if err != nil {
		logger.Error("failed to fetch sensor registry", "error", err)
		os.Exit(1)
	}
	registry, err := domain.BuildSensorRegistry(raw)
	if err != nil {
		logger.Error("failed to build sensor registry", "error", err)
		os.Exit(1)
	}
	logger.Info("sensor registry loaded", "sensors", len(registry.Sensors()))

	datasetOpts = append(datasetOpts, dataset.WithClock(clock))
	tripsOpts = append(tripsOpts, trips.WithClock(clock))
	svc := dataset.New(store, logger, metrics, datasetOpts...)
	// Without warm-up there is no idle signal; the trips load waits only on the delay.
	var idle <-chan struct{}
	if cfg.WarmOnStart {
		idle = svc.WarmDone()
	}
	scheduler := trips.NewIdleScheduler(clock, cfg.TripsIdleDelay, idle)
	loader := trips.NewLoader(store, scheduler, logger, metrics, tripsOpts...)

	api := httpadapter.NewAPI(svc, loader, registry, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, api, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm every summary dataset; readiness flips once this completes.
	go func() {
		if !cfg.WarmOnStart {
			return
		}
		if err := svc.Warm(ctx); err != nil {
			logger.Error("dataset warm-up interrupted", "error", err)
		}
	}()

	if cfg.PreloadTrips {
		loader.Preload()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
