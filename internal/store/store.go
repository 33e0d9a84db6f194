// Package store persists museums, archive files, tour requests and tour plans.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/immuse/tourwizard/internal/models"
)

// Store is implemented by Postgres and Memory. Lookups of unknown ids return
// an apperr NotFound error.
type Store interface {
	CreateMuseum(ctx context.Context, m *models.Museum) error
	GetMuseum(ctx context.Context, id uuid.UUID) (*models.Museum, error)
	// SetIndexHandle assigns the museum's index handle only if none is set yet
	// and returns the handle stored after the call.
	SetIndexHandle(ctx context.Context, museumID uuid.UUID, handle string) (string, error)
	SaveFloorplan(ctx context.Context, museumID uuid.UUID, fp models.FloorplanUpdate) error

	CreateArchiveFile(ctx context.Context, f *models.ArchiveFile) error
	// ListArchiveFiles returns the museum's files newest first.
	ListArchiveFiles(ctx context.Context, museumID uuid.UUID) ([]models.ArchiveFile, error)
	// IngestableArchiveFiles returns PENDING and UPLOADED files oldest first.
	IngestableArchiveFiles(ctx context.Context, museumID uuid.UUID) ([]models.ArchiveFile, error)
	UpdateArchiveFile(ctx context.Context, id uuid.UUID, upd models.ArchiveUpdate) error

	CreateTourRequest(ctx context.Context, r *models.TourRequest) error
	CreateTourPlan(ctx context.Context, p *models.TourPlan) error
	GetTourPlan(ctx context.Context, id uuid.UUID) (*models.TourPlanDetail, error)

	Ping(ctx context.Context) error
}
