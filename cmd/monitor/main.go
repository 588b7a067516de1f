package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-site-risk/internal/adapter/api"
	httpadapter "github.com/couchcryptid/storm-site-risk/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-site-risk/internal/adapter/kafka"
	"github.com/couchcryptid/storm-site-risk/internal/adapter/nws"
	"github.com/couchcryptid/storm-site-risk/internal/adapter/postgres"
	"github.com/couchcryptid/storm-site-risk/internal/adapter/redis"
	"github.com/couchcryptid/storm-site-risk/internal/config"
	"github.com/couchcryptid/storm-site-risk/internal/monitor"
	"github.com/couchcryptid/storm-site-risk/internal/observability"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := postgres.NewSiteRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	checks := map[string]httpadapter.ReadinessChecker{
		"postgres": httpadapter.CheckFunc(repo.Ping),
	}

	// Alert cache: Redis when configured so replicas share one cache,
	// otherwise an in-process LRU.
	var cache nws.AlertCache
	if cfg.RedisAddr != "" {
		rc := redis.NewAlertCache(cfg)
		defer rc.Close() //nolint:errcheck // best-effort on exit
		cache = rc
		checks["redis"] = httpadapter.CheckFunc(rc.Ping)
		logger.Info("alert cache: redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	} else {
		cache = nws.NewMemoryCache(cfg.AlertCacheSize, nil)
		logger.Info("alert cache: memory", "max_entries", cfg.AlertCacheSize)
	}

	client := nws.NewClient(cfg.NWSBaseURL, cfg.NWSUserAgent, cfg.NWSTimeout, metrics, logger)
	source := nws.NewCachedSource(client, cache, cfg.StalenessThreshold, metrics, logger)

	writer := kafkaadapter.NewWriter(cfg, logger)
	assessor := monitor.NewAssessor(source, cfg.FetchConcurrency, logger)
	reports := monitor.NewReportStore()

	m := monitor.New(repo, repo, writer, assessor, reports, logger, metrics, monitor.Options{
		Schedule:       cfg.RefreshSchedule,
		PublishRetries: cfg.PublishRetries,
	})
	checks["monitor"] = m

	svc := monitor.NewService(repo, repo, assessor, reports, cfg.StalenessThreshold)
	app := api.NewApp(svc, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, checks, logger)

	// Start ops server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", "error", err)
		}
	}()

	// Start API server.
	go func() {
		logger.Info("api server starting", "addr", cfg.APIAddr)
		if err := app.Listen(cfg.APIAddr); err != nil {
			logger.Error("api server error", "error", err)
		}
	}()

	// Start refresh loop.
	go func() {
		if err := m.Run(ctx); err != nil {
			logger.Error("monitor error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("api server shutdown error", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
