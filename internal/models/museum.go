package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Museum struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	Name               string          `json:"name" db:"name"`
	Website            *string         `json:"website,omitempty" db:"website"`
	Description        *string         `json:"description,omitempty" db:"description"`
	IndexHandle        *string         `json:"vectorStoreId,omitempty" db:"index_handle"`
	FloorplanNotes     *string         `json:"floorplanNotes,omitempty" db:"floorplan_notes"`
	Floorplan          json.RawMessage `json:"floorplan,omitempty" db:"floorplan"`
	FloorplanImagePath *string         `json:"floorplanImagePath,omitempty" db:"floorplan_image_path"`
	CreatedAt          time.Time       `json:"createdAt" db:"created_at"`
}

// HasIndex reports whether the museum's external index handle is assigned.
func (m *Museum) HasIndex() bool {
	return m.IndexHandle != nil && *m.IndexHandle != ""
}

// Floorplan is the structured description of a museum's floors.
type Floorplan struct {
	Floors []Floor `json:"floors"`
}

type Floor struct {
	Name    string   `json:"name"`
	Rooms   []Room   `json:"rooms"`
	Markers []Marker `json:"markers"`
}

type Room struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	BBox []float64 `json:"bbox"` // x, y, width, height
}

type Marker struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	RoomID     string    `json:"roomId"`
	Point      []float64 `json:"point"` // x, y
	Keywords   []string  `json:"keywords"`
	EstMinutes float64   `json:"estMinutes"`
}

// FloorplanUpdate is what a floor plan save writes onto the museum row.
type FloorplanUpdate struct {
	Notes     *string
	Structure json.RawMessage
	ImagePath *string
}
