package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelChild        Level = "child"
	LevelAdult        Level = "adult"
	LevelProfessional Level = "professional"
)

var levelAliases = map[string]Level{
	"child":         LevelChild,
	"children":      LevelChild,
	"діти":          LevelChild,
	"adult":         LevelAdult,
	"adults":        LevelAdult,
	"дорослі":       LevelAdult,
	"professional":  LevelProfessional,
	"professionals": LevelProfessional,
	"професіонали":  LevelProfessional,
}

// ParseLevel accepts the canonical level codes and the wizard's display labels.
func ParseLevel(s string) (Level, bool) {
	l, ok := levelAliases[strings.ToLower(strings.TrimSpace(s))]
	return l, ok
}

const (
	MinTourMinutes = 15
	MaxTourMinutes = 180
)

type TourRequest struct {
	ID        uuid.UUID `json:"id" db:"id"`
	MuseumID  uuid.UUID `json:"museumId" db:"museum_id"`
	Interests []string  `json:"interests" db:"interests"`
	Level     Level     `json:"level" db:"level"`
	Minutes   int       `json:"minutes" db:"minutes"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type TourPlan struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	MuseumID      uuid.UUID       `json:"museumId" db:"museum_id"`
	TourRequestID uuid.UUID       `json:"tourRequestId" db:"tour_request_id"`
	Result        json.RawMessage `json:"result" db:"result"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

// TourPlanDetail is a stored plan joined with its museum and request.
type TourPlanDetail struct {
	Plan    TourPlan
	Museum  Museum
	Request TourRequest
}

// TourResult is the generated itinerary document.
type TourResult struct {
	Museum       string     `json:"museum"`
	TotalMinutes float64    `json:"total_minutes"`
	Stops        []TourStop `json:"stops"`
	RouteNotes   string     `json:"route_notes"`
	Fallbacks    []string   `json:"fallbacks"`
}

type TourStop struct {
	Title      string   `json:"title"`
	Room       string   `json:"room"`
	Minutes    float64  `json:"minutes"`
	Why        string   `json:"why"`
	SourceRefs []string `json:"source_refs"`
}
