package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentalhub/internal/api"
	"rentalhub/internal/config"
	"rentalhub/internal/database"
	"rentalhub/internal/events"
	"rentalhub/internal/logging"
	"rentalhub/internal/metrics"
	"rentalhub/internal/repository"
	"rentalhub/internal/seed"
	"rentalhub/internal/service"
	"rentalhub/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	retry := worker.PolicyFromConfig(cfg.Worker)

	store, err := openStore(ctx, cfg, redisClient, retry, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	repos := repository.New(store)
	bus := events.NewEventBus()
	scheduler := worker.NewScheduler(repos.Jobs, redisClient, retry, cfg.Worker.PollInterval, logger)

	opts := service.OptionsFromConfig(cfg.Service, logger)
	service.NewNotifier(repos.Notifications, scheduler, opts).Register(bus)
	admin := service.NewAdmin(service.NewAPI(repos, bus, opts), repos, store, opts)

	go scheduler.Start(ctx)
	go database.NewBackupService(store, cfg.Backup, logging.Component(logger, "backup")).Start(ctx)

	startMetrics(ctx, cfg, logger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API, logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
		go grpcServer.WatchHealth(ctx, store, 10*time.Second)
	}

	if !cfg.API.Enabled {
		logger.Warn().Msg("HTTP API is disabled in config, only background workers will run")
	}
	httpServer := api.NewHTTPServer(cfg, admin, logger)

	return startServers(ctx, cfg, grpcServer, httpServer, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logging.Component(baseLogger, "api-main"), closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := database.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		if cfg.Storage.Driver == config.DriverRedis && cfg.Storage.FallbackToMemory {
			logger.Warn().Err(err).Msg("redis is not reachable yet, storage starts on the memory fallback")
			return client
		}
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func openStore(ctx context.Context, cfg *config.Config, rdb *redis.Client, retry worker.RetryPolicy, logger *zerolog.Logger) (*database.Store, error) {
	backend, err := database.OpenBackend(cfg.Storage, rdb, cfg.Redis, logging.Component(logger, "storage"))
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Storage.Driver).Msg("open storage backend")
		return nil, err
	}

	store, err := database.Open(ctx, backend, seed.Seeder(cfg.Storage.SeedFile), database.Options{
		LastWriteWins:      cfg.Storage.LastWriteWins,
		MaxConflictRetries: cfg.Storage.MaxConflictRetries,
		Backoff:            retry.NextDelay,
		Logger:             logging.Component(logger, "store"),
	})
	if err != nil {
		_ = backend.Close()
		logger.Error().Err(err).Msg("open store")
		return nil, err
	}

	logger.Info().
		Str("driver", cfg.Storage.Driver).
		Str("path", cfg.Storage.Path).
		Bool("last_write_wins", cfg.Storage.LastWriteWins).
		Msg("store opened")
	return store, nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	cfg *config.Config,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	if cfg.API.Enabled {
		go func() {
			if err := httpServer.Start(); err != nil {
				logger.Error().Err(err).Msg("http server stopped")
			}
		}()
	}

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Bool("grpc", grpcServer != nil).Msg("rentalhub started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("rentalhub stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
