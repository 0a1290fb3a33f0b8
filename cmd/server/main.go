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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fraszczakszymon/dfp-query-tool/internal/admanager"
	"github.com/fraszczakszymon/dfp-query-tool/internal/analytics"
	"github.com/fraszczakszymon/dfp-query-tool/internal/api"
	"github.com/fraszczakszymon/dfp-query-tool/internal/config"
	"github.com/fraszczakszymon/dfp-query-tool/internal/db"
	"github.com/fraszczakszymon/dfp-query-tool/internal/lineitem"
	"github.com/fraszczakszymon/dfp-query-tool/internal/observability"
	"github.com/fraszczakszymon/dfp-query-tool/internal/targeting"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.OTLPEndpoint, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown()
	}

	metrics := observability.NewPrometheusRegistry()

	client := admanager.NewClient(cfg.AdManagerBaseURL, cfg.AdManagerToken, cfg.AdManagerTimeout, metrics, logger)

	// The root ad unit rarely changes; resolve it once per process start.
	root, err := client.RootAdUnit(ctx)
	if err != nil {
		return fmt.Errorf("fetch root ad unit: %w", err)
	}
	logger.Info("resolved network root ad unit", zap.String("ad_unit_id", root.AdUnitID))

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = db.InitRedis(cfg.RedisAddr)
		if err != nil {
			// The cache is an optimization; run uncached rather than refuse
			// to start.
			logger.Warn("redis unavailable, resolver cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer func() { _ = redisClient.Close() }()
		}
	}
	resolver := targeting.NewCachedResolver(client, redisClient, cfg.ResolverCacheTTL, metrics, logger)

	var journal lineitem.Journal
	if cfg.JournalEnabled {
		pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime)
		if err != nil {
			return fmt.Errorf("init postgres: %w", err)
		}
		defer func() { _ = pg.Close() }()
		journal = pg
	}

	var analyticsSvc analytics.Service
	if cfg.AnalyticsEnabled {
		ch, err := analytics.InitClickHouse(cfg.ClickHouseDSN)
		if err != nil {
			return fmt.Errorf("init clickhouse: %w", err)
		}
		defer func() { _ = ch.Close() }()
		analyticsSvc = ch
	}

	builder := targeting.NewTreeBuilder(resolver)
	assembler := lineitem.NewAssembler(builder, root)
	service := lineitem.NewService(client, assembler, journal, analyticsSvc, metrics, logger)

	server := api.NewServer(logger, service, metrics, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
