package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/adapter/firecsv"
	httpadapter "github.com/couchcryptid/fire-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/fire-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/fire-risk-service/internal/adapter/mapbox"
	"github.com/couchcryptid/fire-risk-service/internal/adapter/netcdf"
	"github.com/couchcryptid/fire-risk-service/internal/config"
	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
	"github.com/couchcryptid/fire-risk-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The dataset is required; without it there is nothing to serve.
	loader := netcdf.NewLoader(cfg.DataDir, cfg.LoadConcurrency, cfg.SkipUnreadable, logger, metrics)
	ds, err := loader.Load(ctx)
	if err != nil {
		logger.Error("failed to load climate dataset", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	fires, err := firecsv.Load(cfg.FiresCSV, logger)
	if err != nil {
		logger.Warn("fire register unreadable, continuing without fires", "error", err)
		fires = []domain.FireEvent{}
	}

	climate := domain.NewClimateContext(ds, fires, logger)
	warmThreshold(climate, metrics, logger)

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	api := httpadapter.NewAPI(climate, geocoder, httpadapter.HistoricalRange{
		StartYear: cfg.HistoricalStartYear,
		EndYear:   cfg.HistoricalEndYear,
	}, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, api, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	var (
		wg     sync.WaitGroup
		writer *kafkaadapter.Writer
	)
	if cfg.PublishEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(climate, geocoder, logger, metrics)
		cursor := pipeline.NewSliceCursor(len(ds.Times))
		p := pipeline.New(cursor, transformer, writer, logger, metrics, cfg.BatchSize)

		logger.Info("layer publishing enabled", "topic", cfg.KafkaSinkTopic, "run_id", transformer.RunID())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Run(ctx); err != nil {
				logger.Error("layer publisher error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	wg.Wait()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// warmThreshold computes the global threshold before traffic arrives and
// records whether alerts will run degraded.
func warmThreshold(climate *domain.ClimateContext, metrics *observability.Metrics, logger *slog.Logger) {
	start := time.Now()
	g, err := climate.Threshold()
	metrics.ThresholdComputeSeconds.Set(time.Since(start).Seconds())
	if err != nil {
		metrics.ThresholdDegraded.Set(1)
		logger.Warn("global threshold unavailable, alerts use per-slice thresholds", "error", err)
		return
	}
	metrics.ThresholdDegraded.Set(0)
	logger.Info("global threshold computed",
		"threshold", g.Threshold,
		"mean", g.Mean,
		"std", g.Std,
		"values", g.Count,
		"skipped_slices", len(g.Skipped),
	)
}
