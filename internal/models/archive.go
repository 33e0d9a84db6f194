package models

import (
	"time"

	"github.com/google/uuid"
)

type ArchiveStatus string

const (
	ArchiveStatusPending  ArchiveStatus = "PENDING"
	ArchiveStatusUploaded ArchiveStatus = "UPLOADED"
	ArchiveStatusIndexing ArchiveStatus = "INDEXING"
	ArchiveStatusReady    ArchiveStatus = "READY"
	ArchiveStatusFailed   ArchiveStatus = "FAILED"
)

// Ingestable reports whether ingestion may start from this status.
func (s ArchiveStatus) Ingestable() bool {
	return s == ArchiveStatusPending || s == ArchiveStatusUploaded
}

func (s ArchiveStatus) Terminal() bool {
	return s == ArchiveStatusReady || s == ArchiveStatusFailed
}

type SourceType string

const (
	SourceUpload SourceType = "UPLOAD"
	SourceURL    SourceType = "URL"
)

type ArchiveFile struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	MuseumID    uuid.UUID     `json:"museumId" db:"museum_id"`
	Filename    string        `json:"filename" db:"filename"`
	MimeType    string        `json:"mimeType,omitempty" db:"mime_type"`
	SizeBytes   int64         `json:"sizeBytes" db:"size_bytes"`
	StoragePath string        `json:"storagePath" db:"storage_path"`
	SourceType  SourceType    `json:"sourceType" db:"source_type"`
	URL         *string       `json:"url,omitempty" db:"url"`
	Status      ArchiveStatus `json:"status" db:"status"`
	Error       *string       `json:"error" db:"error"`
	IndexFileID *string       `json:"indexFileId,omitempty" db:"index_file_id"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
}

// ArchiveUpdate carries one ingestion status transition. Nil fields are left unchanged.
type ArchiveUpdate struct {
	Status      ArchiveStatus
	Error       *string
	StoragePath *string
	IndexFileID *string
}
