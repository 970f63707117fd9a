package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/wiroj/stocketl/internal/api"
	"github.com/wiroj/stocketl/internal/calendar"
	"github.com/wiroj/stocketl/internal/config"
	"github.com/wiroj/stocketl/internal/database"
	"github.com/wiroj/stocketl/internal/loader"
	"github.com/wiroj/stocketl/internal/metrics"
	"github.com/wiroj/stocketl/internal/pipeline"
	"github.com/wiroj/stocketl/internal/storage"
	"github.com/wiroj/stocketl/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/pipeline.local.yaml", "path to config file")
	dateArg := flag.String("date", "", "run day as YYYY-MM-DD (default: today)")
	serveMetrics := flag.Bool("metrics", false, "serve Prometheus metrics while running")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Local development keeps secrets in .env; absence is fine.
	_ = godotenv.Load()

	logger.Info("starting pipeline",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	day := time.Now()
	if *dateArg != "" {
		day, err = time.Parse("2006-01-02", *dateArg)
		if err != nil {
			logger.Error("invalid -date", "value", *dateArg, "error", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()

	if *serveMetrics {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
		logger.Info("metrics endpoint up", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
	}

	gw, cleanup, err := newGateway(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to create storage gateway", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	apiClient := api.NewClient(
		cfg.API.BaseURL,
		cfg.API.Key,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)

	bucket := cfg.Storage.Bucket
	resolver := pipeline.NewResolver(gw, bucket, cfg.Extractor.TopN, logger)
	pacer := pipeline.NewPacer(cfg.Extractor.Pause)
	extractor := pipeline.NewExtractor(gw, apiClient, bucket, cfg.Extractor.TopN, pacer, logger)

	loaders := []pipeline.Loader{
		loader.NewWideRow(gw, pool, bucket, cfg.Loader.FetchConcurrency, logger),
		loader.NewLookup(gw, pool, bucket, logger),
	}

	// The real market calendar is an external collaborator; weekends are
	// the only data this binary carries itself.
	cal := calendar.NewStatic(nil)

	runner := pipeline.NewRunner(resolver, extractor, loaders, cal, gw, bucket, logger)

	report, err := runner.Run(ctx, day)
	if err != nil {
		logger.Error("run failed", "day", pipeline.DayPrefix(day), "error", err)
		os.Exit(1)
	}

	if report.Skipped {
		logger.Info("run skipped", "reason", report.SkipReason)
		return
	}
	logger.Info("run finished",
		"run_id", report.RunID,
		"stages", report.StagesRun,
	)
}

// newGateway selects the object-store backend once; everything else sees
// only the Gateway interface.
func newGateway(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.Gateway, func(), error) {
	switch cfg.Backend {
	case "minio":
		gw, err := storage.NewMinIO(storage.MinIOOptions{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			UseSSL:    cfg.MinIO.UseSSL,
			Logger:    logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return gw, func() {}, nil
	case "gcs":
		gw, err := storage.NewGCS(ctx, storage.GCSOptions{
			ProjectID: cfg.GCS.ProjectID,
			Logger:    logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return gw, func() { gw.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
