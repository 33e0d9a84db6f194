package content

import (
	"context"
	"strings"

	"github.com/immuse/tourwizard/internal/prompt"
)

type StoryIntroInput struct {
	MuseumID   string      `json:"museumId"`
	MuseumData *MuseumData `json:"museumData"`
	Selections *Selections `json:"selections"`
}

type Welcome struct {
	Title     string `json:"title"`
	Paragraph string `json:"paragraph"`
}

type OutlineRoom struct {
	Room       string   `json:"room"`
	Summary    string   `json:"summary"`
	KeyObjects []string `json:"key_objects"`
	SourceRefs []string `json:"source_refs"`
}

type StoryIntro struct {
	Welcome  Welcome       `json:"welcome"`
	Outline  []OutlineRoom `json:"outline"`
	TimeNote string        `json:"time_note"`
	CTALabel string        `json:"cta_label"`
}

func fallbackStoryIntro(sel *Selections) StoryIntro {
	duration := strings.TrimSpace(sel.Time)
	if duration == "" {
		duration = "60 min"
	}
	return StoryIntro{
		Welcome: Welcome{
			Title: "Welcome!",
			Paragraph: "This route is tailored to your interests: " + prompt.List(sel.Interests, "general interests") +
				". Start in the first room and follow the hints; at the end you can leave a rating and comments so we can make the tour even better.",
		},
		Outline: []OutlineRoom{
			{
				Room:       "European painting hall",
				Summary:    "Paintings from the Renaissance to the Baroque, including works by Italian and Flemish masters.",
				KeyObjects: []string{"Portrait of an unknown nobleman", "Landscape with shepherds", "Still life with fruit"},
				SourceRefs: []string{"european_painting_catalogue.pdf"},
			},
			{
				Room:       "Sculpture hall",
				Summary:    "Marble and bronze sculpture tracing the evolution of art from antiquity to the present day.",
				KeyObjects: []string{"Bust of a Roman emperor", "Statue of Aphrodite", "Modern abstract composition"},
				SourceRefs: []string{"sculpture_collection.txt"},
			},
			{
				Room:       "Decorative arts hall",
				Summary:    "Furniture, tableware and jewellery showing how crafts and design developed over the centuries.",
				KeyObjects: []string{"Inlaid casket", "Porcelain service", "Silver goblet"},
				SourceRefs: []string{"decorative_arts.pdf"},
			},
		},
		TimeNote: "Estimated duration: " + duration + ".",
		CTALabel: "Start tour",
	}
}

// StoryIntro returns a warm narrated welcome and a short room outline.
func (s *Service) StoryIntro(ctx context.Context, in StoryIntroInput) (*StoryIntro, error) {
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

	intro := cached(ctx, s, "story_intro", []any{museum, in.Selections, s.opts.Language}, func(ctx context.Context) (StoryIntro, error) {
		var si StoryIntro
		err := s.structured(ctx, prompt.StoryIntro, in.Selections.vars(museum, s.opts.Language), 0.8, 1200, storyIntroSchema, &si)
		return si, err
	}, fallbackStoryIntro(in.Selections))
	return &intro, nil
}
