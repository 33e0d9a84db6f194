package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/immuse/tourwizard/internal/config"
)

type gateway struct {
	providers        map[string]Provider
	defaultProvider  string
	defaultModel     string
	fallbackProvider string
	maxRetries       int
}

// NewGateway registers providers by name. The default model applies only to
// requests routed to the default provider; other providers use their own.
func NewGateway(cfg config.LLMConfig, providers ...Provider) Gateway {
	g := &gateway{
		providers:        make(map[string]Provider, len(providers)),
		defaultProvider:  cfg.DefaultProvider,
		defaultModel:     cfg.DefaultModel,
		fallbackProvider: cfg.FallbackProvider,
		maxRetries:       cfg.MaxRetries,
	}
	for _, p := range providers {
		g.providers[p.Name()] = p
	}
	return g
}

// ProvidersFromConfig builds every provider that has credentials configured.
// The OpenAI client is shared with the archive index.
func ProvidersFromConfig(cfg config.LLMConfig, oc *openai.Client) []Provider {
	var out []Provider
	if oc != nil {
		out = append(out, NewOpenAIProvider(oc))
	}
	if cfg.AnthropicKey != "" {
		out = append(out, NewAnthropicProvider(cfg.AnthropicKey))
	}
	if cfg.OllamaURL != "" {
		out = append(out, NewOllamaProvider(cfg.OllamaURL))
	}
	return out
}

func (g *gateway) Provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}
	return p, nil
}

func (g *gateway) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	providerName := req.Provider
	if providerName == "" {
		providerName = g.defaultProvider
	}

	resp, err := g.chatWithRetry(ctx, providerName, g.withModel(providerName, req))
	if err != nil && g.fallbackProvider != "" && g.fallbackProvider != providerName && ctx.Err() == nil {
		slog.Warn("primary provider failed, trying fallback",
			"primary", providerName,
			"fallback", g.fallbackProvider,
			"error", err,
		)
		// model names are provider specific
		fallbackReq := req
		fallbackReq.Model = ""
		return g.chatWithRetry(ctx, g.fallbackProvider, fallbackReq)
	}
	return resp, err
}

func (g *gateway) withModel(providerName string, req ChatRequest) ChatRequest {
	if req.Model == "" && providerName == g.defaultProvider {
		req.Model = g.defaultModel
	}
	return req
}

func (g *gateway) chatWithRetry(ctx context.Context, providerName string, req ChatRequest) (*ChatResponse, error) {
	p, err := g.Provider(providerName)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			slog.Debug("retrying LLM call", "provider", providerName, "attempt", attempt)
		}

		resp, err := p.ChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	if g.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("all retries exhausted for %s: %w", providerName, lastErr)
}

func (g *gateway) Embed(ctx context.Context, req EmbeddingRequest) (*EmbeddingResponse, error) {
	providerName := req.Provider
	if providerName == "" {
		providerName = g.defaultProvider
	}

	p, err := g.Provider(providerName)
	if err != nil {
		return nil, err
	}
	return p.GenerateEmbedding(ctx, req)
}

func (g *gateway) ListModels() []ModelInfo {
	var models []ModelInfo
	for _, p := range g.providers {
		for _, m := range p.Models() {
			models = append(models, ModelInfo{Provider: p.Name(), Model: m})
		}
	}
	return models
}
