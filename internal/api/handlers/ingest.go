package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/ingest"
)

// Enqueuer schedules background ingestion runs.
type Enqueuer interface {
	EnqueueArchiveIngest(ctx context.Context, museumID uuid.UUID) error
}

type IngestHandler struct {
	pipeline *ingest.Pipeline
	queue    Enqueuer
}

// NewIngestHandler serves ingestion. q may be nil, in which case only
// synchronous runs are available.
func NewIngestHandler(p *ingest.Pipeline, q Enqueuer) *IngestHandler {
	return &IngestHandler{pipeline: p, queue: q}
}

type queuedResponse struct {
	Queued   bool      `json:"queued"`
	MuseumID uuid.UUID `json:"museumId"`
	Files    int       `json:"files"`
}

// Trigger ingests the museum's pending files. With ?async=true the run is
// handed to the worker after the same precondition checks.
func (h *IngestHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Museum not found")
	if err != nil {
		writeError(w, r, err)
		return
	}

	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	if !async {
		report, err := h.pipeline.Run(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	if h.queue == nil {
		writeError(w, r, apperr.InvalidState("Asynchronous ingestion is not available"))
		return
	}
	_, files, err := h.pipeline.Prepare(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.queue.EnqueueArchiveIngest(r.Context(), id); err != nil {
		writeError(w, r, fmt.Errorf("queue ingestion: %w", err))
		return
	}
	slog.Info("ingestion queued", "museum_id", id, "files", len(files))
	writeJSON(w, http.StatusAccepted, queuedResponse{Queued: true, MuseumID: id, Files: len(files)})
}

func (h *IngestHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Museum not found")
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.pipeline.Status(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
