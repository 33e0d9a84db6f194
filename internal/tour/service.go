// Package tour generates, stores and retrieves visitor tour plans.
package tour

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/generate"
	"github.com/immuse/tourwizard/internal/guardrails"
	"github.com/immuse/tourwizard/internal/index"
	"github.com/immuse/tourwizard/internal/models"
	"github.com/immuse/tourwizard/internal/prompt"
	"github.com/immuse/tourwizard/internal/store"
	"github.com/immuse/tourwizard/pkg/tokenizer"
)

//go:embed tour_plan.schema.json
var tourPlanSchemaJSON []byte

var tourPlanSchema = generate.MustCompileSchema("TourPlan", tourPlanSchemaJSON)

// FallbackWarning accompanies a plan that was not generated.
const FallbackWarning = "Fallback tour generated due to API error"

var errNoStops = errors.New("generated plan has no stops")

// Searcher finds archive passages in a museum's collection.
type Searcher interface {
	Search(ctx context.Context, handle, query string, topK int) ([]index.Passage, error)
}

// Generator is the subset of generate.Generator the service uses.
type Generator interface {
	Structured(ctx context.Context, p generate.Prompt, schema *generate.Schema, out any) error
	Text(ctx context.Context, p generate.Prompt) (string, error)
}

type Options struct {
	TopK     int
	Language string
	// Guard screens visitor text; defaults to guardrails.Default.
	Guard *guardrails.Pipeline
}

type Service struct {
	store  store.Store
	search Searcher
	gen    Generator
	opts   Options
}

func NewService(st store.Store, search Searcher, gen Generator, opts Options) *Service {
	if opts.TopK <= 0 {
		opts.TopK = 8
	}
	if opts.Language == "" {
		opts.Language = "Ukrainian"
	}
	if opts.Guard == nil {
		opts.Guard = guardrails.Default(guardrails.DefaultMaxFieldChars)
	}
	return &Service{store: st, search: search, gen: gen, opts: opts}
}

type CreateInput struct {
	MuseumID  string   `json:"museumId"`
	Interests []string `json:"interests"`
	Level     string   `json:"level"`
	Minutes   float64  `json:"minutes"`
}

type CreateResult struct {
	ID            uuid.UUID         `json:"id"`
	TourRequestID uuid.UUID         `json:"tourRequestId"`
	Result        models.TourResult `json:"result"`
	Warning       string            `json:"warning,omitempty"`
}

type validInput struct {
	museumID  uuid.UUID
	interests []string
	level     models.Level
	minutes   int
}

// validate checks the request without touching storage or external services.
// An unparseable museum id is reported later as NotFound.
func validate(ctx context.Context, guard *guardrails.Pipeline, in CreateInput) (validInput, bool, error) {
	var v validInput
	var problems []apperr.FieldError

	idOK := true
	if strings.TrimSpace(in.MuseumID) == "" {
		problems = append(problems, apperr.FieldError{Field: "museumId", Message: "is required"})
	} else if id, err := uuid.Parse(strings.TrimSpace(in.MuseumID)); err == nil {
		v.museumID = id
	} else {
		idOK = false
	}

	if len(in.Interests) == 0 {
		problems = append(problems, apperr.FieldError{Field: "interests", Message: "must contain at least one interest"})
	}
	for i, interest := range in.Interests {
		interest = strings.TrimSpace(interest)
		if interest == "" {
			problems = append(problems, apperr.FieldError{Field: fmt.Sprintf("interests[%d]", i), Message: "must not be empty"})
			continue
		}
		v.interests = append(v.interests, interest)
	}
	screened, err := guard.Screen(ctx, guardrails.Field{Name: "interests", Text: strings.Join(v.interests, ", ")})
	if err != nil {
		return v, idOK, err
	}
	problems = append(problems, screened...)

	if level, ok := models.ParseLevel(in.Level); ok {
		v.level = level
	} else {
		problems = append(problems, apperr.FieldError{Field: "level", Message: "must be one of child, adult, professional"})
	}

	if in.Minutes != math.Trunc(in.Minutes) || in.Minutes < models.MinTourMinutes || in.Minutes > models.MaxTourMinutes {
		problems = append(problems, apperr.FieldError{
			Field:   "minutes",
			Message: fmt.Sprintf("must be a whole number between %d and %d", models.MinTourMinutes, models.MaxTourMinutes),
		})
	} else {
		v.minutes = int(in.Minutes)
	}

	if len(problems) > 0 {
		return v, idOK, apperr.Validation("Validation error", problems...)
	}
	return v, idOK, nil
}

// Create validates the request, persists it and stores a generated plan.
// A generation failure yields the fallback plan and a warning, not an error.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	v, idOK, err := validate(ctx, s.opts.Guard, in)
	if err != nil {
		return nil, err
	}
	if !idOK {
		return nil, apperr.NotFound("Museum not found")
	}

	m, err := s.store.GetMuseum(ctx, v.museumID)
	if err != nil {
		return nil, err
	}
	if !m.HasIndex() {
		return nil, apperr.InvalidState("Museum archives not processed yet")
	}

	req := &models.TourRequest{MuseumID: m.ID, Interests: v.interests, Level: v.level, Minutes: v.minutes}
	if err := s.store.CreateTourRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("create tour request: %w", err)
	}

	outcome := generate.Attempt(ctx, "tour_plan", func(ctx context.Context) (models.TourResult, error) {
		return s.generatePlan(ctx, m, req)
	}, FallbackPlan(m.Name, req.Minutes))

	raw, err := json.Marshal(outcome.Value)
	if err != nil {
		return nil, fmt.Errorf("encode tour plan: %w", err)
	}
	plan := &models.TourPlan{MuseumID: m.ID, TourRequestID: req.ID, Result: raw}
	if err := s.store.CreateTourPlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("create tour plan: %w", err)
	}

	res := &CreateResult{ID: plan.ID, TourRequestID: req.ID, Result: outcome.Value}
	if outcome.Fallback {
		res.Warning = FallbackWarning
	}
	slog.Info("tour created", "tour_id", plan.ID, "museum_id", m.ID, "fallback", outcome.Fallback, "stops", len(outcome.Value.Stops))
	return res, nil
}

func (s *Service) generatePlan(ctx context.Context, m *models.Museum, req *models.TourRequest) (models.TourResult, error) {
	var plan models.TourResult

	passages, err := s.search.Search(ctx, *m.IndexHandle, strings.Join(req.Interests, " "), s.opts.TopK)
	if err != nil {
		return plan, apperr.External("search archives", err)
	}

	system, user, err := prompt.TourPlan.Render(map[string]string{
		"language":  s.opts.Language,
		"museum":    m.Name,
		"interests": strings.Join(req.Interests, ", "),
		"level":     string(req.Level),
		"minutes":   strconv.Itoa(req.Minutes),
		"excerpts":  buildExcerpts(passages),
	})
	if err != nil {
		return plan, err
	}

	p := generate.Prompt{System: system, User: user, Temperature: 0.4, MaxTokens: 2000}
	if err := s.gen.Structured(ctx, p, tourPlanSchema, &plan); err != nil {
		return plan, err
	}
	if len(plan.Stops) == 0 {
		return plan, apperr.External("generate TourPlan", errNoStops)
	}
	return plan, nil
}

// maxExcerptTokens bounds the archive context placed in one prompt.
const maxExcerptTokens = 6000

func buildExcerpts(passages []index.Passage) string {
	if len(passages) == 0 {
		return "(no matching excerpts)"
	}
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	passages = passages[:tokenizer.Fit(texts, maxExcerptTokens)]

	var sb strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&sb, "[Source %d] (%s)\n%s\n\n", i+1, p.Filename, p.Text)
	}
	return strings.TrimSpace(sb.String())
}

// FallbackPlan is the single-stop plan stored when generation fails.
func FallbackPlan(museumName string, minutes int) models.TourResult {
	return models.TourResult{
		Museum:       museumName,
		TotalMinutes: float64(minutes),
		Stops: []models.TourStop{{
			Title:      "Introductory tour",
			Room:       "Main hall",
			Minutes:    float64(min(minutes, 30)),
			Why:        "A general overview of the museum and its collection",
			SourceRefs: []string{},
		}},
		RouteNotes: "The full tour will be available once the museum archives are processed",
		Fallbacks:  []string{"Check that the museum archives have been processed"},
	}
}

type MuseumSummary struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type RequestSummary struct {
	Interests []string     `json:"interests"`
	Level     models.Level `json:"level"`
	Minutes   int          `json:"minutes"`
	CreatedAt time.Time    `json:"createdAt"`
}

type Detail struct {
	ID          uuid.UUID       `json:"id"`
	Museum      MuseumSummary   `json:"museum"`
	TourRequest RequestSummary  `json:"tourRequest"`
	Result      json.RawMessage `json:"result"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	d, err := s.store.GetTourPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{
		ID:     d.Plan.ID,
		Museum: MuseumSummary{Name: d.Museum.Name, Description: d.Museum.Description},
		TourRequest: RequestSummary{
			Interests: d.Request.Interests,
			Level:     d.Request.Level,
			Minutes:   d.Request.Minutes,
			CreatedAt: d.Request.CreatedAt,
		},
		Result:    d.Plan.Result,
		CreatedAt: d.Plan.CreatedAt,
	}, nil
}

type PreviewInput struct {
	MuseumName string   `json:"museumName"`
	Level      string   `json:"level"`
	Minutes    float64  `json:"minutes"`
	Interests  []string `json:"interests"`
}

type PreviewResult struct {
	MuseumName  string   `json:"museumName"`
	TourContent string   `json:"tourContent"`
	Level       string   `json:"level"`
	Minutes     float64  `json:"minutes"`
	Interests   []string `json:"interests"`
}

// Preview writes a free-text tour of the first room. Unlike Create it has
// no fallback; generation failures are returned.
func (s *Service) Preview(ctx context.Context, in PreviewInput) (*PreviewResult, error) {
	if strings.TrimSpace(in.MuseumName) == "" {
		return nil, apperr.Validation("Validation error", apperr.FieldError{Field: "museumName", Message: "is required"})
	}
	if in.Interests == nil {
		in.Interests = []string{}
	}
	if err := s.opts.Guard.Validate(ctx, "Validation error",
		guardrails.Field{Name: "museumName", Text: in.MuseumName},
		guardrails.Field{Name: "level", Text: in.Level},
		guardrails.Field{Name: "interests", Text: strings.Join(in.Interests, ", ")},
	); err != nil {
		return nil, err
	}

	system, user, err := prompt.TourPreview.Render(map[string]string{
		"language":  s.opts.Language,
		"museum":    strings.TrimSpace(in.MuseumName),
		"level":     strings.TrimSpace(in.Level),
		"minutes":   strconv.FormatFloat(in.Minutes, 'f', -1, 64),
		"interests": prompt.List(in.Interests, "not specified"),
	})
	if err != nil {
		return nil, err
	}

	text, err := s.gen.Text(ctx, generate.Prompt{System: system, User: user, Temperature: 0.7, MaxTokens: 500})
	if err != nil {
		return nil, fmt.Errorf("generate tour preview: %w", err)
	}
	return &PreviewResult{
		MuseumName:  in.MuseumName,
		TourContent: text,
		Level:       in.Level,
		Minutes:     in.Minutes,
		Interests:   in.Interests,
	}, nil
}
