package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/internal/generator"
	"github.com/pulseboardhq/pulseboard-backend/pkg/config"
	"github.com/pulseboardhq/pulseboard-backend/pkg/db"
	"github.com/pulseboardhq/pulseboard-backend/pkg/logger"
	"github.com/pulseboardhq/pulseboard-backend/pkg/migrate"
)

const insertChunk = 1000

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	profilePath := flag.String("profile", "", "yaml profile overriding the default simulation")
	users := flag.Int("users", 0, "override the simulated population size")
	seed := flag.Int64("seed", 0, "override the random seed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	profile := generator.DefaultProfile()
	if *profilePath != "" {
		profile, err = generator.LoadProfile(*profilePath)
		if err != nil {
			logg.Error(context.Background(), "failed to load profile", err)
			os.Exit(1)
		}
	}
	if *users > 0 {
		profile.Users = *users
	}
	if *seed != 0 {
		profile.Seed = *seed
	}

	gen, err := generator.New(profile)
	if err != nil {
		logg.Error(context.Background(), "invalid profile", err)
		os.Exit(1)
	}

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

	batch := gen.Generate()
	repo := events.NewRepository(dbClient.DB())

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"users":  profile.Users,
		"seed":   profile.Seed,
		"events": len(batch),
	})
	logg.Info(ctx, "seeding synthetic events")

	var inserted int64
	for start := 0; start < len(batch); start += insertChunk {
		end := start + insertChunk
		if end > len(batch) {
			end = len(batch)
		}
		n, err := repo.InsertBatch(context.Background(), batch[start:end])
		if err != nil {
			logg.Error(ctx, "failed to insert batch", err)
			os.Exit(1)
		}
		inserted += n
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"inserted":   inserted,
		"duplicates": int64(len(batch)) - inserted,
	})
	logg.Info(ctx, "seed complete")
}
