package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/llm"
)

// Chatter is the slice of llm.Gateway used for generation.
type Chatter interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

func (p Prompt) messages() []llm.Message {
	var msgs []llm.Message
	if p.System != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: p.System})
	}
	return append(msgs, llm.Message{Role: "user", Content: p.User})
}

// ErrEmptyOutput is returned when the provider answers with no content.
var ErrEmptyOutput = errors.New("empty completion")

// Generator is safe for concurrent use.
type Generator struct {
	chat Chatter
}

func NewGenerator(c Chatter) *Generator {
	return &Generator{chat: c}
}

// Structured asks for a document matching schema and decodes it into out.
// Every failure is an apperr External error.
func (g *Generator) Structured(ctx context.Context, p Prompt, schema *Schema, out any) error {
	op := "generate " + schema.Name()

	resp, err := g.chat.Chat(ctx, llm.ChatRequest{
		Messages:       p.messages(),
		Temperature:    p.Temperature,
		MaxTokens:      p.MaxTokens,
		ResponseSchema: &llm.ResponseSchema{Name: schema.Name(), Schema: schema.Raw()},
	})
	if err != nil {
		return apperr.External(op, err)
	}

	doc := []byte(stripFences(resp.Content))
	if len(doc) == 0 {
		return apperr.External(op, ErrEmptyOutput)
	}
	if err := schema.Validate(doc); err != nil {
		return apperr.External(op, err)
	}
	if err := json.Unmarshal(doc, out); err != nil {
		return apperr.External(op, fmt.Errorf("decode %s: %w", schema.Name(), err))
	}
	return nil
}

// Text asks for a free-form completion.
func (g *Generator) Text(ctx context.Context, p Prompt) (string, error) {
	resp, err := g.chat.Chat(ctx, llm.ChatRequest{
		Messages:    p.messages(),
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	})
	if err != nil {
		return "", apperr.External("generate text", err)
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", apperr.External("generate text", ErrEmptyOutput)
	}
	return text, nil
}

// stripFences removes a markdown code fence some providers wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
