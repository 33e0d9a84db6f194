// Package museum creates museums and stores their floor plans.
package museum

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/generate"
	"github.com/immuse/tourwizard/internal/models"
	"github.com/immuse/tourwizard/internal/storage"
	"github.com/immuse/tourwizard/internal/store"
)

//go:embed floorplan.schema.json
var floorplanSchemaJSON []byte

var floorplanSchema = generate.MustCompileSchema("Floorplan", floorplanSchemaJSON)

type Service struct {
	store   store.Store
	storage storage.Storage
	bucket  string
}

func NewService(st store.Store, objects storage.Storage, bucket string) *Service {
	return &Service{store: st, storage: objects, bucket: bucket}
}

type CreateInput struct {
	Name        string  `json:"name"`
	Website     *string `json:"website"`
	Description *string `json:"description"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Museum, error) {
	var problems []apperr.FieldError

	name := strings.TrimSpace(in.Name)
	if name == "" {
		problems = append(problems, apperr.FieldError{Field: "name", Message: "is required"})
	}
	website := blankToNil(in.Website)
	if website != nil && !IsHTTPURL(*website) {
		problems = append(problems, apperr.FieldError{Field: "website", Message: "must be an absolute http(s) URL"})
	}
	if len(problems) > 0 {
		return nil, apperr.Validation("Validation error", problems...)
	}

	m := &models.Museum{Name: name, Website: website, Description: blankToNil(in.Description)}
	if err := s.store.CreateMuseum(ctx, m); err != nil {
		return nil, fmt.Errorf("create museum: %w", err)
	}
	slog.Info("museum created", "museum_id", m.ID)
	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Museum, error) {
	return s.store.GetMuseum(ctx, id)
}

// Image is an uploaded floor plan picture.
type Image struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type FloorplanInput struct {
	Notes     *string
	Structure json.RawMessage
	Image     *Image
}

type FloorplanResult struct {
	MuseumID  uuid.UUID         `json:"museumId"`
	ImagePath *string           `json:"imagePath"`
	Notes     *string           `json:"notes"`
	Structure *models.Floorplan `json:"structure"`
}

// SaveFloorplan validates the structure, stores the optional image and
// replaces the museum's floor plan.
func (s *Service) SaveFloorplan(ctx context.Context, id uuid.UUID, in FloorplanInput) (*FloorplanResult, error) {
	if _, err := s.store.GetMuseum(ctx, id); err != nil {
		return nil, err
	}

	var structure *models.Floorplan
	raw := json.RawMessage(strings.TrimSpace(string(in.Structure)))
	if len(raw) > 0 && string(raw) != "null" {
		if err := floorplanSchema.Validate(raw); err != nil {
			return nil, apperr.Validation("Invalid structure JSON", apperr.FieldError{Field: "structure", Message: err.Error()})
		}
		structure = &models.Floorplan{}
		if err := json.Unmarshal(raw, structure); err != nil {
			return nil, apperr.Validation("Invalid structure JSON", apperr.FieldError{Field: "structure", Message: err.Error()})
		}
	} else {
		raw = nil
	}

	var imagePath *string
	if in.Image != nil {
		p := path.Join(id.String(), "floorplan", uuid.NewString()+"-"+SafeBasename(in.Image.Filename, "floorplan"))
		contentType := in.Image.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if err := s.storage.Upload(ctx, s.bucket, p, in.Image.Body, contentType); err != nil {
			return nil, fmt.Errorf("store floorplan image: %w", err)
		}
		imagePath = &p
	}

	notes := blankToNil(in.Notes)
	if err := s.store.SaveFloorplan(ctx, id, models.FloorplanUpdate{Notes: notes, Structure: raw, ImagePath: imagePath}); err != nil {
		return nil, fmt.Errorf("save floorplan: %w", err)
	}
	return &FloorplanResult{MuseumID: id, ImagePath: imagePath, Notes: notes, Structure: structure}, nil
}

// IsHTTPURL reports whether s is an absolute http or https URL with a host.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SafeBasename strips directories from a client supplied filename.
func SafeBasename(name, fallback string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := path.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == ".." || base == "" {
		return fallback
	}
	return base
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
