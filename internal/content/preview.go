package content

import (
	"context"
	"strings"

	"github.com/immuse/tourwizard/internal/prompt"
)

type PreviewInput struct {
	MuseumID   string      `json:"museumId"`
	MuseumData *MuseumData `json:"museumData"`
	Selections *Selections `json:"selections"`
}

type Hero struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

type RoutePreviewRoom struct {
	Room    string  `json:"room"`
	Focus   string  `json:"focus"`
	Why     string  `json:"why"`
	Minutes float64 `json:"minutes"`
}

type FirstObject struct {
	Title            string   `json:"title"`
	Room             string   `json:"room"`
	Reason           string   `json:"reason"`
	SourceRefs       []string `json:"source_refs"`
	SearchQuery      string   `json:"search_query"`
	PreferredSources []string `json:"preferred_sources"`
	ImageURLs        []string `json:"image_urls"`
}

type Preview struct {
	Hero         Hero               `json:"hero"`
	WhatToExpect []string           `json:"what_to_expect"`
	RoutePreview []RoutePreviewRoom `json:"route_preview"`
	FirstObject  FirstObject        `json:"first_object"`
}

func fallbackPreview(museumName string) Preview {
	return Preview{
		Hero: Hero{
			Title:    "A personal tour of " + museumName,
			Subtitle: "Tailored to your interests",
		},
		WhatToExpect: []string{
			"An interactive route through the key exhibits",
			"Detailed explanations of the historical context",
			"A chance to ask questions and get answers",
			"Personal recommendations for further exploration",
		},
		RoutePreview: []RoutePreviewRoom{
			{Room: "Main hall", Focus: "Introduction to the museum's exhibition", Why: "Get to know the core collection", Minutes: 15},
			{Room: "Special exhibition", Focus: "Exhibits matching your interests", Why: "Content picked for you", Minutes: 20},
		},
		FirstObject: FirstObject{
			Title:            "A remarkable exhibit",
			Room:             "Main hall",
			Reason:           "This exhibit matches your interests",
			SourceRefs:       []string{"museum_catalogue"},
			SearchQuery:      museumName + " exhibit",
			PreferredSources: []string{"Wikimedia", "official museum website"},
			ImageURLs:        []string{},
		},
	}
}

// Preview returns a mobile teaser of the personalized tour.
func (s *Service) Preview(ctx context.Context, in PreviewInput) (*Preview, error) {
	if err := requireFields("Museum ID and selections are required", map[string]bool{
		"museumId":   strings.TrimSpace(in.MuseumID) != "",
		"selections": in.Selections != nil,
	}); err != nil {
		return nil, err
	}
	if err := s.screen(ctx, in.MuseumData, in.Selections); err != nil {
		return nil, err
	}
	museum := in.MuseumData.withDefaults()

	preview := cached(ctx, s, "preview", []any{museum, in.Selections, s.opts.Language}, func(ctx context.Context) (Preview, error) {
		var p Preview
		err := s.structured(ctx, prompt.Preview, in.Selections.vars(museum, s.opts.Language), 0.8, 1500, previewSchema, &p)
		return p, err
	}, fallbackPreview(museum.Name))
	return &preview, nil
}
