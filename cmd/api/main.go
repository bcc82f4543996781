// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the personapi HTTP server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and run migrations (idempotent).
//  4. Connect to Redis when configured.
//  5. Build the security services and route policy.
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/personapi/internal/api"
	"github.com/taibuivan/personapi/internal/platform/access"
	"github.com/taibuivan/personapi/internal/platform/config"
	"github.com/taibuivan/personapi/internal/platform/constants"
	"github.com/taibuivan/personapi/internal/platform/metrics"
	"github.com/taibuivan/personapi/internal/platform/migration"
	pgstore "github.com/taibuivan/personapi/internal/platform/postgres"
	redisstore "github.com/taibuivan/personapi/internal/platform/redis"
	"github.com/taibuivan/personapi/internal/platform/sec"
	"github.com/taibuivan/personapi/internal/users/account"
	"github.com/taibuivan/personapi/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if level := cfg.LogLevel(); level != slog.LevelInfo {
		log = newLogger(level)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("redis_enabled", cfg.RedisEnabled()),
		slog.Duration("token_ttl", cfg.JWTTTL),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log,
		pgstore.WithMaxConns(cfg.DatabaseMaxConns),
	)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 4. Identity cache (Redis when configured, in-process otherwise) ───
	var (
		identityCache auth.IdentityCache
		rdb           *goredis.Client
	)
	switch {
	case cfg.IdentityCacheTTL == 0:
		log.Info("identity_cache_disabled")
	case cfg.RedisEnabled():
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log,
			redisstore.WithPoolSize(cfg.RedisPoolSize),
			redisstore.WithOperationTimeout(cfg.RedisOperationTimeout),
		)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_error", slog.Any("error", cerr))
			}
		}()
		identityCache = auth.NewRedisIdentityCache(rdb, cfg.IdentityCacheTTL)
	default:
		identityCache = auth.NewMemoryIdentityCache(cfg.IdentityCacheSize, cfg.IdentityCacheTTL)
	}

	// ── 5. Security ───────────────────────────────────────────────────────
	// A weak secret, bad cost or broken route table is fatal at startup.
	tokenService, err := sec.NewTokenService([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTTTL)
	must(log, err, "initialize token service")

	hasher, err := sec.NewPasswordHasher(cfg.BcryptCost)
	must(log, err, "initialize password hasher")

	policy, err := access.Load(cfg.RoutePolicyPath)
	must(log, err, "load route policy")
	log.Info("route_policy_loaded", slog.Int("rules", len(policy.Rules())))

	// ── 6. Metrics ────────────────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	authMetrics := metrics.NewAuth(registry)

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	healthDependencies := api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
	}
	if rdb != nil {
		healthDependencies.CheckCache = func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		}
	}
	liveness, readiness := api.NewHealthHandlers(healthDependencies, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	credentialStore := auth.NewCredentialStore(pool)
	serviceOptions := []auth.ServiceOption{auth.WithMetrics(authMetrics)}
	if identityCache != nil {
		serviceOptions = append(serviceOptions, auth.WithIdentityCache(identityCache))
	}
	authService := auth.NewService(credentialStore, hasher, tokenService, serviceOptions...)
	accountService := account.NewService(authService)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	server := api.NewServer(appCtx, cfg, log,
		api.Security{
			Verifier: tokenService,
			Loader:   authService,
			Policy:   policy,
			Metrics:  authMetrics,
		},
		api.Handlers{
			Liveness:  liveness,
			Readiness: readiness,
			Metrics:   metrics.Handler(registry),
			Auth:      auth.NewHandler(authService),
			Account:   account.NewHandler(accountService),
		},
	)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the JSON logger carrying the app attribute on every entry.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
