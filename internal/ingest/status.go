package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/immuse/tourwizard/internal/models"
)

type FileStatus struct {
	ID        uuid.UUID            `json:"id"`
	Filename  string               `json:"filename"`
	Status    models.ArchiveStatus `json:"status"`
	Error     *string              `json:"error"`
	CreatedAt time.Time            `json:"createdAt"`
}

type StatusReport struct {
	MuseumID      uuid.UUID                    `json:"museumId"`
	VectorStoreID *string                      `json:"vectorStoreId"`
	OverallStatus models.ArchiveStatus         `json:"overallStatus"`
	StatusCounts  map[models.ArchiveStatus]int `json:"statusCounts"`
	Files         []FileStatus                 `json:"files"`
}

// Terminal reports whether polling can stop.
func (r *StatusReport) Terminal() bool {
	return r.OverallStatus.Terminal()
}

// Overall derives the museum-level status. Any FAILED file wins, then any
// file not yet terminal; otherwise, including with no files, READY.
func Overall(files []models.ArchiveFile) models.ArchiveStatus {
	pending := false
	for _, f := range files {
		switch f.Status {
		case models.ArchiveStatusFailed:
			return models.ArchiveStatusFailed
		case models.ArchiveStatusIndexing, models.ArchiveStatusUploaded, models.ArchiveStatusPending:
			pending = true
		}
	}
	if pending {
		return models.ArchiveStatusIndexing
	}
	return models.ArchiveStatusReady
}

// BuildStatus summarizes files, which are expected newest first.
func BuildStatus(m *models.Museum, files []models.ArchiveFile) *StatusReport {
	r := &StatusReport{
		MuseumID:      m.ID,
		VectorStoreID: m.IndexHandle,
		OverallStatus: Overall(files),
		StatusCounts:  make(map[models.ArchiveStatus]int),
		Files:         make([]FileStatus, 0, len(files)),
	}
	for _, f := range files {
		r.StatusCounts[f.Status]++
		r.Files = append(r.Files, FileStatus{
			ID:        f.ID,
			Filename:  f.Filename,
			Status:    f.Status,
			Error:     f.Error,
			CreatedAt: f.CreatedAt,
		})
	}
	return r
}

// Status is read-only. It fails with NotFound for an unknown museum.
func (p *Pipeline) Status(ctx context.Context, museumID uuid.UUID) (*StatusReport, error) {
	m, err := p.store.GetMuseum(ctx, museumID)
	if err != nil {
		return nil, err
	}
	files, err := p.store.ListArchiveFiles(ctx, museumID)
	if err != nil {
		return nil, fmt.Errorf("list archive files: %w", err)
	}
	return BuildStatus(m, files), nil
}
