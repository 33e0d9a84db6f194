package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TypeArchiveIngest = "archive:ingest"

type ArchiveIngestPayload struct {
	MuseumID string `json:"museum_id"`
}

func NewArchiveIngestTask(museumID uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(ArchiveIngestPayload{MuseumID: museumID.String()})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeArchiveIngest, data), nil
}

// ParseArchiveIngest decodes the museum id from an archive:ingest task.
func ParseArchiveIngest(t *asynq.Task) (uuid.UUID, error) {
	var payload ArchiveIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return uuid.Nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	id, err := uuid.Parse(payload.MuseumID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse museum ID: %w", err)
	}
	return id, nil
}
