// Package content generates the wizard's short content blocks: selectable
// chips, a tour preview and a narrated story intro. Every operation answers
// with a fixed fallback when generation fails.
package content

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/cache"
	"github.com/immuse/tourwizard/internal/generate"
	"github.com/immuse/tourwizard/internal/guardrails"
	"github.com/immuse/tourwizard/internal/metrics"
	"github.com/immuse/tourwizard/internal/prompt"
)

var (
	//go:embed chips.schema.json
	chipsSchemaJSON []byte
	//go:embed preview.schema.json
	previewSchemaJSON []byte
	//go:embed story_intro.schema.json
	storyIntroSchemaJSON []byte

	chipsSchema      = generate.MustCompileSchema("ChipSets", chipsSchemaJSON)
	previewSchema    = generate.MustCompileSchema("Preview", previewSchemaJSON)
	storyIntroSchema = generate.MustCompileSchema("StoryIntro", storyIntroSchemaJSON)
)

// Structurer is the subset of generate.Generator the service uses.
type Structurer interface {
	Structured(ctx context.Context, p generate.Prompt, schema *generate.Schema, out any) error
}

// Cache holds successful generations. It may be nil.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Options struct {
	Language string
	CacheTTL time.Duration
	// Guard screens visitor text; defaults to guardrails.Default.
	Guard *guardrails.Pipeline
}

type Service struct {
	gen   Structurer
	cache Cache
	opts  Options
}

func NewService(gen Structurer, c Cache, opts Options) *Service {
	if opts.Language == "" {
		opts.Language = "Ukrainian"
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.Guard == nil {
		opts.Guard = guardrails.Default(guardrails.DefaultMaxFieldChars)
	}
	return &Service{gen: gen, cache: c, opts: opts}
}

// MuseumData is the museum description the wizard sends along.
type MuseumData struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

func (m *MuseumData) withDefaults() MuseumData {
	var d MuseumData
	if m != nil {
		d = MuseumData{Name: strings.TrimSpace(m.Name), Description: strings.TrimSpace(m.Description), Website: strings.TrimSpace(m.Website)}
	}
	if d.Name == "" {
		d.Name = "Museum"
	}
	if d.Description == "" {
		d.Description = "no description"
	}
	if d.Website == "" {
		d.Website = "—"
	}
	return d
}

// Selections are the visitor's wizard choices.
type Selections struct {
	Motivations []string `json:"motivations"`
	Interests   []string `json:"interests"`
	Level       string   `json:"level"`
	Time        string   `json:"time"`
}

func (s *Selections) vars(museum MuseumData, language string) map[string]string {
	return map[string]string{
		"language":    language,
		"museum":      museum.Name,
		"description": museum.Description,
		"website":     museum.Website,
		"motivations": prompt.List(s.Motivations, "not specified"),
		"interests":   prompt.List(s.Interests, "not specified"),
		"level":       orNotSpecified(s.Level),
		"time":        orNotSpecified(s.Time),
	}
}

func (s *Selections) fields() []guardrails.Field {
	if s == nil {
		return nil
	}
	return []guardrails.Field{
		{Name: "selections.motivations", Text: strings.Join(s.Motivations, ", ")},
		{Name: "selections.interests", Text: strings.Join(s.Interests, ", ")},
		{Name: "selections.level", Text: s.Level},
		{Name: "selections.time", Text: s.Time},
	}
}

func (m *MuseumData) fields() []guardrails.Field {
	if m == nil {
		return nil
	}
	return []guardrails.Field{
		{Name: "museumData.name", Text: m.Name},
		{Name: "museumData.description", Text: m.Description},
		{Name: "museumData.website", Text: m.Website},
	}
}

// screen rejects visitor text that must not reach a prompt.
func (s *Service) screen(ctx context.Context, museum *MuseumData, sel *Selections) error {
	return s.opts.Guard.Validate(ctx, "Validation error", append(museum.fields(), sel.fields()...)...)
}

func orNotSpecified(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "not specified"
	}
	return s
}

func requireFields(msg string, fields map[string]bool) error {
	var problems []apperr.FieldError
	for _, name := range []string{"museumId", "museumData", "selections"} {
		present, checked := fields[name]
		if checked && !present {
			problems = append(problems, apperr.FieldError{Field: name, Message: "is required"})
		}
	}
	if len(problems) > 0 {
		return apperr.Validation(msg, problems...)
	}
	return nil
}

// cached serves kind from the cache or generates it. Only successful
// generations are stored; cache failures are logged and ignored.
func cached[T any](ctx context.Context, s *Service, kind string, keyParts []any, generateFn func(context.Context) (T, error), fallback T) T {
	var key string
	if s.cache != nil {
		k, err := cache.Key(kind, keyParts...)
		if err == nil {
			key = k
			var hit T
			switch err := s.cache.Get(ctx, key, &hit); {
			case err == nil:
				metrics.ContentCacheHits.WithLabelValues(kind).Inc()
				return hit
			case !errors.Is(err, cache.ErrMiss):
				slog.Warn("content cache read failed", "kind", kind, "error", err)
			}
		}
	}

	outcome := generate.Attempt(ctx, kind, generateFn, fallback)
	if !outcome.Fallback && key != "" {
		if err := s.cache.Set(ctx, key, outcome.Value, s.opts.CacheTTL); err != nil {
			slog.Warn("content cache write failed", "kind", kind, "error", err)
		}
	}
	return outcome.Value
}

func (s *Service) structured(ctx context.Context, tmpl prompt.Template, vars map[string]string, temperature float64, maxTokens int, schema *generate.Schema, out any) error {
	system, user, err := tmpl.Render(vars)
	if err != nil {
		return err
	}
	return s.gen.Structured(ctx, generate.Prompt{System: system, User: user, Temperature: temperature, MaxTokens: maxTokens}, schema, out)
}
