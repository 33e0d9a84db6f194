// Package ingest pushes a museum's pending archive files into its search
// index and reports the resulting per-file statuses.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/index"
	"github.com/immuse/tourwizard/internal/metrics"
	"github.com/immuse/tourwizard/internal/models"
	"github.com/immuse/tourwizard/internal/storage"
	"github.com/immuse/tourwizard/internal/store"
)

type Pipeline struct {
	store   store.Store
	storage storage.Storage
	bucket  string
	index   index.Index
	fetcher Fetcher
}

func NewPipeline(st store.Store, objects storage.Storage, bucket string, idx index.Index, f Fetcher) *Pipeline {
	return &Pipeline{store: st, storage: objects, bucket: bucket, index: idx, fetcher: f}
}

type Counts struct {
	Total  int `json:"total"`
	Ready  int `json:"ready"`
	Failed int `json:"failed"`
}

type FileResult struct {
	ID          uuid.UUID            `json:"id"`
	Filename    string               `json:"filename"`
	Status      models.ArchiveStatus `json:"status"`
	Error       string               `json:"error,omitempty"`
	IndexFileID string               `json:"indexFileId,omitempty"`
}

type Report struct {
	VectorStoreID string       `json:"vectorStoreId"`
	Counts        Counts       `json:"counts"`
	Results       []FileResult `json:"results"`
}

// Prepare loads the museum and its ingestable files. It fails with NotFound
// for an unknown museum and InvalidState when nothing is pending.
func (p *Pipeline) Prepare(ctx context.Context, museumID uuid.UUID) (*models.Museum, []models.ArchiveFile, error) {
	m, err := p.store.GetMuseum(ctx, museumID)
	if err != nil {
		return nil, nil, err
	}
	files, err := p.store.IngestableArchiveFiles(ctx, museumID)
	if err != nil {
		return nil, nil, fmt.Errorf("load ingestable files: %w", err)
	}
	if len(files) == 0 {
		return nil, nil, apperr.InvalidState("No files to ingest")
	}
	return m, files, nil
}

// Run ingests every PENDING or UPLOADED file of the museum, oldest first.
// A failing file is marked FAILED without affecting the others. If ctx is
// cancelled, files not yet started stay eligible and the report of the
// files already processed is returned together with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, museumID uuid.UUID) (*Report, error) {
	m, files, err := p.Prepare(ctx, museumID)
	if err != nil {
		return nil, err
	}

	handle, err := p.ensureHandle(ctx, m)
	if err != nil {
		return nil, err
	}

	report := &Report{VectorStoreID: handle, Counts: Counts{Total: len(files)}, Results: make([]FileResult, 0, len(files))}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			slog.Warn("ingestion interrupted", "museum_id", museumID, "processed", len(report.Results),
				"total", report.Counts.Total, "ready", report.Counts.Ready, "failed", report.Counts.Failed)
			return report, err
		}
		res := p.ingestFile(ctx, handle, f)
		switch res.Status {
		case models.ArchiveStatusReady:
			report.Counts.Ready++
		case models.ArchiveStatusFailed:
			report.Counts.Failed++
		}
		report.Results = append(report.Results, res)
	}

	slog.Info("ingestion finished", "museum_id", museumID,
		"total", report.Counts.Total, "ready", report.Counts.Ready, "failed", report.Counts.Failed)
	return report, nil
}

// ensureHandle returns the museum's index handle, creating the collection
// when none is assigned. Concurrent runs for one museum may each create a
// collection; only the first persisted handle is kept and used.
func (p *Pipeline) ensureHandle(ctx context.Context, m *models.Museum) (string, error) {
	if m.HasIndex() {
		return *m.IndexHandle, nil
	}
	created, err := p.index.CreateCollection(ctx, m.Name)
	if err != nil {
		return "", apperr.External("create index collection", err)
	}
	handle, err := p.store.SetIndexHandle(ctx, m.ID, created)
	if err != nil {
		return "", fmt.Errorf("persist index handle: %w", err)
	}
	if handle != created {
		slog.Warn("index handle already assigned, discarding new collection",
			"museum_id", m.ID, "kept", handle, "discarded", created)
	} else {
		slog.Info("index collection created", "museum_id", m.ID, "handle", handle)
	}
	return handle, nil
}

func (p *Pipeline) ingestFile(ctx context.Context, handle string, f models.ArchiveFile) FileResult {
	// status writes must land even if the caller goes away mid-file
	writeCtx := context.WithoutCancel(ctx)
	res := FileResult{ID: f.ID, Filename: f.Filename}

	if err := p.store.UpdateArchiveFile(writeCtx, f.ID, models.ArchiveUpdate{Status: models.ArchiveStatusIndexing}); err != nil {
		return p.fail(writeCtx, res, fmt.Errorf("mark indexing: %w", err))
	}

	data, mimeType, err := p.readBytes(ctx, f)
	if err != nil {
		return p.fail(writeCtx, res, err)
	}

	fileID, err := p.index.AddFile(ctx, handle, index.File{Name: f.Filename, MimeType: mimeType, Data: data})
	if err != nil {
		return p.fail(writeCtx, res, err)
	}

	upd := models.ArchiveUpdate{Status: models.ArchiveStatusReady, IndexFileID: &fileID}
	if f.SourceType == models.SourceURL && f.URL != nil {
		upd.StoragePath = f.URL
	}
	if err := p.store.UpdateArchiveFile(writeCtx, f.ID, upd); err != nil {
		return p.fail(writeCtx, res, fmt.Errorf("mark ready: %w", err))
	}

	metrics.IngestFiles.WithLabelValues(string(models.ArchiveStatusReady)).Inc()
	slog.Info("archive file indexed", "archive_id", f.ID, "filename", f.Filename, "index_file_id", fileID)
	res.Status = models.ArchiveStatusReady
	res.IndexFileID = fileID
	return res
}

func (p *Pipeline) readBytes(ctx context.Context, f models.ArchiveFile) ([]byte, string, error) {
	mimeType := f.MimeType
	if f.SourceType == models.SourceURL && f.URL != nil {
		data, contentType, err := p.fetcher.Fetch(ctx, *f.URL)
		if err != nil {
			return nil, "", err
		}
		if mimeType == "" {
			mimeType = contentType
		}
		return data, orDefault(mimeType), nil
	}

	data, err := storage.ReadAll(ctx, p.storage, p.bucket, f.StoragePath)
	if err != nil {
		return nil, "", fmt.Errorf("read stored file: %w", err)
	}
	return data, orDefault(mimeType), nil
}

func (p *Pipeline) fail(ctx context.Context, res FileResult, cause error) FileResult {
	msg := cause.Error()
	if err := p.store.UpdateArchiveFile(ctx, res.ID, models.ArchiveUpdate{Status: models.ArchiveStatusFailed, Error: &msg}); err != nil {
		slog.Error("failed to record archive failure", "archive_id", res.ID, "error", err)
	}
	metrics.IngestFiles.WithLabelValues(string(models.ArchiveStatusFailed)).Inc()
	slog.Warn("archive file failed", "archive_id", res.ID, "filename", res.Filename, "error", cause)
	res.Status = models.ArchiveStatusFailed
	res.Error = msg
	return res
}

func orDefault(mimeType string) string {
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}
