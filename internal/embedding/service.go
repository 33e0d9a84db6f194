// Package embedding batches text embedding calls through the LLM gateway.
package embedding

import (
	"context"
	"fmt"

	"github.com/immuse/tourwizard/internal/llm"
)

// Embedder is the slice of llm.Gateway the service needs.
type Embedder interface {
	Embed(ctx context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error)
}

type Service struct {
	embedder Embedder
	model    string
}

func NewService(e Embedder, model string) *Service {
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &Service{embedder: e, model: model}
}

// batchSize keeps one request under provider input limits.
const batchSize = 100

// Embed returns one vector per input text, in order.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		batch := texts[i:min(i+batchSize, len(texts))]

		resp, err := s.embedder.Embed(ctx, llm.EmbeddingRequest{Model: s.model, Input: batch})
		if err != nil {
			return nil, fmt.Errorf("embed batch %d: %w", i/batchSize, err)
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("embed batch %d: got %d vectors for %d inputs", i/batchSize, len(resp.Embeddings), len(batch))
		}
		out = append(out, resp.Embeddings...)
	}
	return out, nil
}

func (s *Service) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
