package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/fire-index-etl/internal/adapter/filestore"
	httpadapter "github.com/couchcryptid/fire-index-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/fire-index-etl/internal/adapter/kafka"
	"github.com/couchcryptid/fire-index-etl/internal/adapter/scenesource"
	"github.com/couchcryptid/fire-index-etl/internal/config"
	"github.com/couchcryptid/fire-index-etl/internal/observability"
	"github.com/couchcryptid/fire-index-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		logger.Error("failed to load profile", "path", cfg.ProfilePath, "error", err)
		os.Exit(1)
	}

	source := scenesource.NewCachedSource(scenesource.Router{
		Remote: scenesource.NewClient(cfg.SceneFetchTimeout, metrics, logger),
		Local:  filestore.NewReader(metrics),
	}, cfg.SceneCacheSize, metrics)
	logger.Info("scene source ready", "cache_size", cfg.SceneCacheSize, "fetch_timeout", cfg.SceneFetchTimeout)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(source, profile, cfg.Params, cfg.OutputDir, logger, metrics)

	// Composites are stored before their notices are published.
	loader := pipeline.Loaders{filestore.NewWriter(logger), writer}

	p := pipeline.New(reader, transformer, loader, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start composite pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	logger.Info("fire index etl running",
		"source_topic", cfg.KafkaSourceTopic,
		"sink_topic", cfg.KafkaSinkTopic,
		"output_dir", cfg.OutputDir,
		"mode", cfg.Params.Mode,
		"bit_depth", cfg.Params.BitDepth,
		"gamma", cfg.Params.Gamma,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
