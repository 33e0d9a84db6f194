package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	LLM      LLMConfig
	Storage  StorageConfig
	Index    IndexConfig
	Ingest   IngestConfig
	Content  ContentConfig
	Cache    CacheConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
	RateLimit   float64 // requests per second per client
	RateBurst   int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig guards operator routes. Auth is disabled when JWTSecret is empty.
type AuthConfig struct {
	JWTSecret string
}

type LLMConfig struct {
	OpenAIKey        string
	OpenAIBaseURL    string
	AnthropicKey     string
	OllamaURL        string
	DefaultProvider  string
	DefaultModel     string
	FallbackProvider string
	MaxRetries       int
}

type StorageConfig struct {
	Backend     string // "local" or "supabase"
	Root        string // local backend root directory
	SupabaseURL string
	SupabaseKey string
	Bucket      string
}

type IndexConfig struct {
	Backend        string // "openai", "pgvector" or "memory"
	EmbeddingModel string
	SearchTopK     int
}

type IngestConfig struct {
	MaxUploadBytes int64
	FetchTimeout   time.Duration
}

type ContentConfig struct {
	Language string
	// MaxFieldChars bounds each visitor-supplied text field.
	MaxFieldChars int
}

type CacheConfig struct {
	TTL time.Duration
}

type LogConfig struct {
	Level slog.Level
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	rateLimit, err := getEnvFloat("RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	rateBurst, err := getEnvInt("RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	// No automatic retry unless explicitly configured.
	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	topK, err := getEnvInt("INDEX_SEARCH_TOP_K", 8)
	if err != nil {
		return nil, fmt.Errorf("invalid INDEX_SEARCH_TOP_K: %w", err)
	}

	maxUpload, err := getEnvInt("INGEST_MAX_UPLOAD_BYTES", 32<<20)
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_MAX_UPLOAD_BYTES: %w", err)
	}

	fetchTimeout, err := getEnvDuration("INGEST_FETCH_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_FETCH_TIMEOUT: %w", err)
	}

	maxFieldChars, err := getEnvInt("CONTENT_MAX_FIELD_CHARS", 2000)
	if err != nil {
		return nil, fmt.Errorf("invalid CONTENT_MAX_FIELD_CHARS: %w", err)
	}

	cacheTTL, err := getEnvDuration("CACHE_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        port,
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
			RateLimit:   rateLimit,
			RateBurst:   rateBurst,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		LLM: LLMConfig{
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			OllamaURL:        getEnv("OLLAMA_URL", ""),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "openai"),
			DefaultModel:     getEnv("LLM_DEFAULT_MODEL", "gpt-4o-mini"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			MaxRetries:       maxRetries,
		},
		Storage: StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", "local"),
			Root:        getEnv("STORAGE_ROOT", "uploads"),
			SupabaseURL: getEnv("SUPABASE_URL", ""),
			SupabaseKey: getEnv("SUPABASE_SERVICE_KEY", ""),
			Bucket:      getEnv("STORAGE_BUCKET", "archives"),
		},
		Index: IndexConfig{
			Backend:        getEnv("INDEX_BACKEND", "openai"),
			EmbeddingModel: getEnv("INDEX_EMBEDDING_MODEL", "text-embedding-3-small"),
			SearchTopK:     topK,
		},
		Ingest: IngestConfig{
			MaxUploadBytes: int64(maxUpload),
			FetchTimeout:   fetchTimeout,
		},
		Content: ContentConfig{
			Language:      getEnv("CONTENT_LANGUAGE", "Ukrainian"),
			MaxFieldChars: maxFieldChars,
		},
		Cache: CacheConfig{
			TTL: cacheTTL,
		},
		Log: LogConfig{
			Level: level,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var problems []string
	switch c.Storage.Backend {
	case "local":
	case "supabase":
		if c.Storage.SupabaseURL == "" || c.Storage.SupabaseKey == "" {
			problems = append(problems, "SUPABASE_URL and SUPABASE_SERVICE_KEY are required for STORAGE_BACKEND=supabase")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}

	switch c.Index.Backend {
	case "openai":
		if c.LLM.OpenAIKey == "" {
			problems = append(problems, "OPENAI_API_KEY is required for INDEX_BACKEND=openai")
		}
	case "pgvector":
		if c.Database.URL == "" {
			problems = append(problems, "DATABASE_URL is required for INDEX_BACKEND=pgvector")
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("unknown INDEX_BACKEND %q", c.Index.Backend))
	}

	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		problems = append(problems, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
