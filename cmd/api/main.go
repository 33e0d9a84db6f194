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

	"github.com/joho/godotenv"

	"github.com/immuse/tourwizard/internal/api"
	"github.com/immuse/tourwizard/internal/api/handlers"
	"github.com/immuse/tourwizard/internal/app"
	"github.com/immuse/tourwizard/internal/config"
	"github.com/immuse/tourwizard/internal/queue"
)

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

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start services", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Async ingestion needs redis for the task queue.
	var q handlers.Enqueuer
	if a.Redis != nil {
		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		q = qc
	}

	router := api.NewRouter(cfg, a.Services(q))
	defer router.Close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Minute, // synchronous ingestion can be slow
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
