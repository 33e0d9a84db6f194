// Package app wires configuration into the services shared by the API and
// the worker.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/immuse/tourwizard/internal/api"
	"github.com/immuse/tourwizard/internal/api/handlers"
	"github.com/immuse/tourwizard/internal/archive"
	"github.com/immuse/tourwizard/internal/cache"
	"github.com/immuse/tourwizard/internal/config"
	"github.com/immuse/tourwizard/internal/content"
	"github.com/immuse/tourwizard/internal/database"
	"github.com/immuse/tourwizard/internal/embedding"
	"github.com/immuse/tourwizard/internal/generate"
	"github.com/immuse/tourwizard/internal/guardrails"
	"github.com/immuse/tourwizard/internal/index"
	"github.com/immuse/tourwizard/internal/ingest"
	"github.com/immuse/tourwizard/internal/llm"
	"github.com/immuse/tourwizard/internal/museum"
	"github.com/immuse/tourwizard/internal/storage"
	"github.com/immuse/tourwizard/internal/store"
	"github.com/immuse/tourwizard/internal/tour"
)

type App struct {
	Config *config.Config

	DB    *pgxpool.Pool // nil when running on the in-memory store
	Redis *redis.Client // nil when redis was unreachable at startup
	Store store.Store

	Museums  *museum.Service
	Archives *archive.Service
	Ingest   *ingest.Pipeline
	Tours    *tour.Service
	Content  *content.Service
}

// New connects to the configured backends and builds every service.
// Postgres and redis are optional: without DATABASE_URL the process keeps
// its data in memory, and without redis content generations are not cached.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	if cfg.Database.URL != "" {
		pool, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(ctx, pool, os.DirFS(cfg.Database.MigrationsPath)); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		a.DB = pool
		a.Store = store.NewPostgres(pool)
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store")
		a.Store = store.NewMemory()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without cache", "error", err)
		rdb.Close()
	} else {
		a.Redis = rdb
	}

	var oc *openai.Client
	if cfg.LLM.OpenAIKey != "" {
		oc = llm.NewOpenAIClient(cfg.LLM.OpenAIKey, cfg.LLM.OpenAIBaseURL)
	}
	providers := llm.ProvidersFromConfig(cfg.LLM, oc)
	if len(providers) == 0 {
		slog.Warn("no generative provider configured, generated content will use fallbacks")
	}
	gw := llm.NewGateway(cfg.LLM, providers...)
	gen := generate.NewGenerator(gw)

	idx, err := index.New(cfg, index.Deps{
		OpenAI:   oc,
		DB:       a.DB,
		Embedder: embedding.NewService(gw, cfg.Index.EmbeddingModel),
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build index: %w", err)
	}

	objects, err := storage.New(cfg.Storage)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build storage: %w", err)
	}

	var contentCache content.Cache
	if a.Redis != nil {
		contentCache = cache.NewCache(a.Redis)
	}

	guard := guardrails.Default(cfg.Content.MaxFieldChars)
	bucket := cfg.Storage.Bucket
	a.Museums = museum.NewService(a.Store, objects, bucket)
	a.Archives = archive.NewService(a.Store, objects, bucket, cfg.Ingest.MaxUploadBytes)
	a.Ingest = ingest.NewPipeline(a.Store, objects, bucket, idx,
		ingest.NewHTTPFetcher(cfg.Ingest.FetchTimeout, cfg.Ingest.MaxUploadBytes))
	a.Tours = tour.NewService(a.Store, idx, gen, tour.Options{
		TopK:     cfg.Index.SearchTopK,
		Language: cfg.Content.Language,
		Guard:    guard,
	})
	a.Content = content.NewService(gen, contentCache, content.Options{
		Language: cfg.Content.Language,
		CacheTTL: cfg.Cache.TTL,
		Guard:    guard,
	})

	slog.Info("services ready",
		"index_backend", cfg.Index.Backend,
		"storage_backend", cfg.Storage.Backend,
		"postgres", a.DB != nil,
		"redis", a.Redis != nil,
		"providers", len(providers),
	)
	return a, nil
}

// Services exposes the app to the HTTP router. q may be nil.
func (a *App) Services(q handlers.Enqueuer) api.Services {
	checks := map[string]handlers.Pinger{"store": a.Store}
	if a.Redis != nil {
		checks["redis"] = cache.NewCache(a.Redis)
	}
	return api.Services{
		Museums:  a.Museums,
		Archives: a.Archives,
		Ingest:   a.Ingest,
		Tours:    a.Tours,
		Content:  a.Content,
		Queue:    q,
		Checks:   checks,
	}
}

func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
