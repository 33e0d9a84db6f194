package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/immuse/tourwizard/internal/app"
	"github.com/immuse/tourwizard/internal/config"
	"github.com/immuse/tourwizard/internal/queue"
	"github.com/immuse/tourwizard/internal/queue/workers"
)

const concurrency = 4

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.Level}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	// The worker shares state with the API only through Postgres.
	if cfg.Database.URL == "" {
		slog.Error("worker requires DATABASE_URL")
		os.Exit(1)
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to start services", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: concurrency,
			Logger:      newAsynqLogger(logger),
		},
	)

	registry := queue.NewHandlersRegistry()
	registry.RegisterFunc(queue.TypeArchiveIngest, workers.NewIngestWorker(a.Ingest).ProcessTask)

	slog.Info("starting worker", "concurrency", concurrency)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
