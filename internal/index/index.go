// Package index is the searchable archive collection behind each museum.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	openai "github.com/sashabaranov/go-openai"

	"github.com/immuse/tourwizard/internal/config"
	"github.com/immuse/tourwizard/internal/embedding"
)

// File is one archive document submitted to a collection.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// Passage is a search hit inside a collection.
type Passage struct {
	FileID   string  `json:"fileId"`
	Filename string  `json:"filename"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// Index creates collections, adds files to them and searches them.
// Handles are opaque to callers.
type Index interface {
	CreateCollection(ctx context.Context, name string) (string, error)
	AddFile(ctx context.Context, handle string, f File) (string, error)
	Search(ctx context.Context, handle, query string, topK int) ([]Passage, error)
}

// ErrUnknownCollection is returned when a handle does not resolve.
var ErrUnknownCollection = errors.New("unknown collection")

// Deps are the shared clients a backend may need.
type Deps struct {
	OpenAI   *openai.Client
	DB       *pgxpool.Pool
	Embedder *embedding.Service
}

// New builds the backend selected by cfg.Index.Backend.
func New(cfg *config.Config, deps Deps) (Index, error) {
	switch cfg.Index.Backend {
	case "openai":
		if deps.OpenAI == nil {
			return nil, fmt.Errorf("openai index requires OPENAI_API_KEY")
		}
		return NewOpenAIIndex(deps.OpenAI, cfg.LLM.OpenAIKey, cfg.LLM.OpenAIBaseURL), nil
	case "pgvector":
		if deps.DB == nil || deps.Embedder == nil {
			return nil, fmt.Errorf("pgvector index requires DATABASE_URL and an embedding provider")
		}
		return NewPgVectorIndex(deps.DB, deps.Embedder), nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
}
