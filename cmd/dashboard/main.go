package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/solar-eda/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/solar-eda/internal/adapter/kafka"
	"github.com/couchcryptid/solar-eda/internal/chart"
	"github.com/couchcryptid/solar-eda/internal/config"
	"github.com/couchcryptid/solar-eda/internal/observability"
	"github.com/couchcryptid/solar-eda/internal/pipeline"
	"github.com/couchcryptid/solar-eda/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Event publishing is feature-flagged via KAFKA_ENABLED.
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("event publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("event publishing disabled")
	}

	p := pipeline.New(store.New(cfg.DatasetLimit), publisher, logger, metrics, pipeline.Options{
		Format:    chart.Format(cfg.ChartFormat),
		WidthCM:   cfg.ChartWidthCM,
		HeightCM:  cfg.ChartHeightCM,
		MaxPoints: cfg.TimeSeriesMaxPoints,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, cfg.MaxUploadBytes, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Preload datasets, then report ready.
	go func() {
		defer p.MarkReady()
		if cfg.DataDir == "" {
			return
		}
		results, err := p.LoadDir(ctx, cfg.DataDir)
		if err != nil {
			logger.Error("preload failed", "dir", cfg.DataDir, "error", err)
			return
		}
		loaded := 0
		for _, res := range results {
			if res.OK() {
				loaded++
			}
		}
		logger.Info("preload complete", "dir", cfg.DataDir, "files", len(results), "loaded", loaded)
	}()

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
