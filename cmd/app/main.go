package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"astro-partner/internal/astro"
	"astro-partner/internal/cache"
	"astro-partner/internal/config"
	"astro-partner/internal/httpserver"
	"astro-partner/internal/logging"
	"astro-partner/internal/metrics"
	"astro-partner/internal/profile"
	"astro-partner/internal/repo"
	"astro-partner/internal/session"
	"astro-partner/internal/wizard"
	"astro-partner/migrations"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogJSON)
	logger.Info("starting astro-partner", "env", cfg.AppEnv, "api_base_url", cfg.APIBaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricRegistry := metrics.Registry(cfg.MetricsNamespace)

	store, err := repo.New(ctx, cfg.DatabaseURL, cfg.SQLitePath, logger)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	if err := store.RunMigrations(ctx, migrations.Files); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("store migrated")

	redisClient := cache.New(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		UseTLS:   cfg.RedisTLS,
	}, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("failed closing redis", "error", err)
		}
	}()
	if err := redisClient.Ping(ctx); err != nil {
		logger.Warn("redis ping failed, profile cache disabled until reachable", "error", err)
	}

	astroClient := astro.New(astro.Config{
		BaseURL:         cfg.APIBaseURL,
		Timeout:         cfg.APITimeout,
		ProfileCacheTTL: cfg.ProfileCacheTTL,
	}, logger, metricRegistry, redisClient)

	sessions := session.NewManager(store, logger)

	// Built here so an embedding UI can drive them; the ops server only
	// exposes read-side admin endpoints.
	onboarding := wizard.New(astroClient, sessions, logger, metricRegistry, wizard.Config{
		OTPCodeLength: cfg.OTPCodeLength,
	})
	statusController := profile.NewStatusController(astroClient, sessions, logger, metricRegistry)
	logger.Info("workflow ready", "wizard_state", string(onboarding.State()), "chat_online", statusController.ChatOnline())

	httpSrv := httpserver.New(cfg.HTTPListenAddr, logger, metricRegistry, cfg.PublicBasePath)
	httpSrv.SetDependencies(httpserver.Dependencies{
		Store:   store,
		Redis:   redisClient,
		Astro:   astroClient,
		Session: sessions,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	return nil
}
