// Package workers holds the asynq task handlers run by cmd/worker.
package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/ingest"
	"github.com/immuse/tourwizard/internal/queue"
)

// Runner runs one ingestion pass for a museum.
type Runner interface {
	Run(ctx context.Context, museumID uuid.UUID) (*ingest.Report, error)
}

type IngestWorker struct {
	runner Runner
}

func NewIngestWorker(r Runner) *IngestWorker {
	return &IngestWorker{runner: r}
}

// ProcessTask handles archive:ingest. A museum with nothing left to ingest
// is not an error; another run may have already picked its files up.
func (w *IngestWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	museumID, err := queue.ParseArchiveIngest(t)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	slog.Info("processing ingestion", "museum_id", museumID)
	report, err := w.runner.Run(ctx, museumID)
	switch {
	case err == nil:
	case apperr.Is(err, apperr.KindInvalidState):
		slog.Info("nothing to ingest", "museum_id", museumID)
		return nil
	case apperr.Is(err, apperr.KindNotFound):
		return fmt.Errorf("ingest museum %s: %v: %w", museumID, err, asynq.SkipRetry)
	default:
		if report != nil {
			slog.Warn("ingestion task interrupted", "museum_id", museumID, "processed", len(report.Results),
				"ready", report.Counts.Ready, "failed", report.Counts.Failed)
		}
		return fmt.Errorf("ingest museum %s: %w", museumID, err)
	}

	slog.Info("ingestion task finished", "museum_id", museumID, "vector_store_id", report.VectorStoreID,
		"total", report.Counts.Total, "ready", report.Counts.Ready, "failed", report.Counts.Failed)
	return nil
}
