package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pulseboardhq/pulseboard-backend/api"
	"github.com/pulseboardhq/pulseboard-backend/api/routes"
	"github.com/pulseboardhq/pulseboard-backend/internal/analytics"
	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/config"
	"github.com/pulseboardhq/pulseboard-backend/pkg/db"
	"github.com/pulseboardhq/pulseboard-backend/pkg/instance"
	"github.com/pulseboardhq/pulseboard-backend/pkg/logger"
	"github.com/pulseboardhq/pulseboard-backend/pkg/metrics"
	"github.com/pulseboardhq/pulseboard-backend/pkg/migrate"
	"github.com/pulseboardhq/pulseboard-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	if port := os.Getenv("PORT"); port != "" {
		cfg.App.Port = port
	}

	registry := prometheus.NewRegistry()
	computeMetrics := metrics.NewComputeMetrics(registry)

	eventsRepo := events.NewRepository(dbClient.DB())
	analyticsService := analytics.NewService(eventsRepo, cfg.Analytics, logg, computeMetrics)

	router := routes.NewRouter(cfg, logg, registry, dbClient, redisClient, analyticsService, eventsRepo, computeMetrics)
	server := api.NewServer(cfg, logg, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     server.Addr(),
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}
