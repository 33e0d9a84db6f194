package content

import (
	"context"
	"strings"

	"github.com/immuse/tourwizard/internal/prompt"
)

// MinChips is how many unique motivations and interests are always offered.
const MinChips = 5

var (
	FallbackMotivations = []string{
		"Learn more about the authors",
		"Understand the collection",
		"First time here",
		"I'm a tourist",
		"Temporary exhibitions",
		"Atmosphere and space",
		"Photo opportunities",
		"For children and family",
		"Recommended by friends",
		"Education and research",
	}
	FallbackInterests = []string{
		"European painting",
		"Renaissance",
		"Baroque and Rococo",
		"Portrait, landscape, still life",
		"Icon painting",
		"Sculpture",
		"Decorative arts",
		"Asian art",
		"Antiquity and archaeology",
		"Religion and mythology",
		"History and society",
		"Techniques and materials",
		"Collectors and patrons",
	}
	FixedLevels = []string{"For children", "Basic", "Advanced", "Professional"}
	FixedTimes  = []string{"30 min", "60 min", "90 min", "120+ min"}
)

type ChipsInput struct {
	MuseumID   string      `json:"museumId"`
	MuseumData *MuseumData `json:"museumData"`
}

type Chips struct {
	Motivations []string `json:"motivations"`
	Interests   []string `json:"interests"`
	Levels      []string `json:"levels"`
	Times       []string `json:"times"`
}

type chipSets struct {
	Motivations []string `json:"motivations"`
	Interests   []string `json:"interests"`
	Levels      []string `json:"levels"`
	Times       []string `json:"times"`
}

func fallbackChips() Chips {
	return Chips{
		Motivations: clone(FallbackMotivations),
		Interests:   clone(FallbackInterests),
		Levels:      clone(FixedLevels),
		Times:       clone(FixedTimes),
	}
}

// Chips returns museum-specific wizard options. Levels and times are fixed.
func (s *Service) Chips(ctx context.Context, in ChipsInput) (*Chips, error) {
	if err := requireFields("Museum ID and museum data are required", map[string]bool{
		"museumId":   strings.TrimSpace(in.MuseumID) != "",
		"museumData": in.MuseumData != nil,
	}); err != nil {
		return nil, err
	}
	if err := s.screen(ctx, in.MuseumData, nil); err != nil {
		return nil, err
	}
	museum := in.MuseumData.withDefaults()

	chips := cached(ctx, s, "chips", []any{museum, s.opts.Language}, func(ctx context.Context) (Chips, error) {
		var sets chipSets
		vars := map[string]string{
			"language":    s.opts.Language,
			"museum":      museum.Name,
			"description": museum.Description,
			"website":     museum.Website,
		}
		if err := s.structured(ctx, prompt.Chips, vars, 0.7, 1000, chipsSchema, &sets); err != nil {
			return Chips{}, err
		}
		return Chips{
			Motivations: Dedupe(sets.Motivations, FallbackMotivations),
			Interests:   Dedupe(sets.Interests, FallbackInterests),
			Levels:      clone(FixedLevels),
			Times:       clone(FixedTimes),
		}, nil
	}, fallbackChips())
	return &chips, nil
}

// Dedupe drops blank and repeated entries. An empty result is replaced by
// the whole fallback; fewer than MinChips entries are padded from fallback
// in its order, skipping entries already present.
func Dedupe(dynamic, fallback []string) []string {
	seen := make(map[string]bool, len(dynamic))
	var unique []string
	for _, v := range dynamic {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		unique = append(unique, v)
	}
	if len(unique) == 0 {
		return clone(fallback)
	}
	for _, v := range fallback {
		if len(unique) >= MinChips {
			break
		}
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	return unique
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
