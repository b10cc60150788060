package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecfuse/internal/config"
	dbRedis "github.com/kailas-cloud/vecfuse/internal/db/redis"
	logpkg "github.com/kailas-cloud/vecfuse/internal/logger"
	"github.com/kailas-cloud/vecfuse/internal/metrics"
	pipelinerepo "github.com/kailas-cloud/vecfuse/internal/repository/pipeline"
	chiTransport "github.com/kailas-cloud/vecfuse/internal/transport/chi"
	fusionuc "github.com/kailas-cloud/vecfuse/internal/usecase/fusion"
	healthuc "github.com/kailas-cloud/vecfuse/internal/usecase/health"
	pipelineuc "github.com/kailas-cloud/vecfuse/internal/usecase/pipeline"
	"github.com/kailas-cloud/vecfuse/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vecfuse API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Pipeline store: Redis/Valkey hash per pipeline, or process memory
	var (
		repo     pipelineuc.Repository
		dbPinger healthuc.DBPinger
	)
	switch cfg.Database.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Database.Addrs,
			Password:   cfg.Database.Password,
			ClientName: "vecfuse",
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")

		repo = pipelinerepo.New(store, cfg.Storage.KeyPrefix)
		dbPinger = store
	default:
		logger.Warn("No database configured, pipelines are kept in memory")
		repo = pipelinerepo.NewMemory()
	}

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterFusionMetrics()

	defaults, err := cfg.Fusion.DefaultPipeline()
	if err != nil {
		logger.Fatal("Invalid default pipeline", zap.Error(err))
	}

	pipelineSvc := pipelineuc.New(repo)
	fusionSvc := fusionuc.New(pipelineSvc, defaults)
	healthSvc := healthuc.New(dbPinger, pipelineSvc)

	server := chiTransport.NewServer(fusionSvc, pipelineSvc, healthSvc, logger).
		WithLimits(chiTransport.Limits{
			MaxShards:       cfg.Fusion.MaxShards,
			MaxHitsPerShard: cfg.Fusion.MaxHitsPerShard,
			MaxBodyBytes:    cfg.HTTP.MaxBodyBytes,
		})

	opts := chiTransport.RouterOptions{APIKeys: cfg.Auth.APIKeys}
	if cfg.RateLimit.Enabled {
		opts.RateLimiter = chiTransport.NewRateLimiter(ctx, chiTransport.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		})
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, logger, opts),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", addr),
			zap.String("default_normalization", string(defaults.Normalization())),
			zap.String("default_combination", string(defaults.Combination())),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
