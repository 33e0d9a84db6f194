// Package queue carries background ingestion jobs over asynq.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/config"
)

// IngestTimeout bounds one asynchronous ingestion run.
const IngestTimeout = 30 * time.Minute

type Client struct {
	client *asynq.Client
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{client: asynq.NewClient(RedisOpt(cfg))}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueArchiveIngest schedules ingestion of a museum's pending files.
// A failed run is not retried, and a museum has at most one queued run.
func (c *Client) EnqueueArchiveIngest(ctx context.Context, museumID uuid.UUID) error {
	task, err := NewArchiveIngestTask(museumID)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(0),
		asynq.Timeout(IngestTimeout),
		asynq.Unique(IngestTimeout),
	)
	switch {
	case errors.Is(err, asynq.ErrDuplicateTask):
		return apperr.InvalidState("Ingestion already queued for this museum")
	case err != nil:
		return fmt.Errorf("enqueue %s: %w", TypeArchiveIngest, err)
	}
	return nil
}
