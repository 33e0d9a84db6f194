package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/immuse/tourwizard/pkg/chunker"
	"github.com/immuse/tourwizard/pkg/textextract"
)

// VectorEmbedder turns texts into vectors of the archive_chunks dimension.
type VectorEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// PgVectorIndex stores extracted, chunked and embedded archive text in Postgres.
type PgVectorIndex struct {
	db       *pgxpool.Pool
	embedder VectorEmbedder
	chunking chunker.Options
}

func NewPgVectorIndex(db *pgxpool.Pool, embedder VectorEmbedder) *PgVectorIndex {
	return &PgVectorIndex{db: db, embedder: embedder, chunking: chunker.DefaultOptions()}
}

func (x *PgVectorIndex) CreateCollection(ctx context.Context, name string) (string, error) {
	id := uuid.New()
	if _, err := x.db.Exec(ctx, `INSERT INTO archive_collections (id, name) VALUES ($1, $2)`, id, name); err != nil {
		return "", fmt.Errorf("insert collection: %w", err)
	}
	return id.String(), nil
}

func (x *PgVectorIndex) collection(ctx context.Context, handle string) (uuid.UUID, error) {
	id, err := uuid.Parse(handle)
	if err != nil {
		return uuid.Nil, fmt.Errorf("collection %q: %w", handle, ErrUnknownCollection)
	}
	var found uuid.UUID
	err = x.db.QueryRow(ctx, `SELECT id FROM archive_collections WHERE id = $1`, id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("collection %q: %w", handle, ErrUnknownCollection)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup collection: %w", err)
	}
	return found, nil
}

func (x *PgVectorIndex) AddFile(ctx context.Context, handle string, f File) (string, error) {
	collectionID, err := x.collection(ctx, handle)
	if err != nil {
		return "", err
	}

	doc, err := textextract.Extract(f.Data, f.Name, f.MimeType)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	chunks := chunker.Split(doc.Content, x.chunking)
	if len(chunks) == 0 {
		return "", fmt.Errorf("extract text: %s has no text content", f.Name)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := x.embedder.Embed(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("embed chunks: %w", err)
	}

	fileID := uuid.New()
	tx, err := x.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i, c := range chunks {
		batch.Queue(
			`INSERT INTO archive_chunks (id, collection_id, file_id, filename, chunk_index, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), collectionID, fileID, f.Name, c.Index, c.Content, pgvector.NewVector(vectors[i]),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return "", fmt.Errorf("insert chunks: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit chunks: %w", err)
	}

	slog.Debug("indexed archive file", "collection", handle, "filename", f.Name, "chunks", len(chunks), "format", doc.Format)
	return fileID.String(), nil
}

func (x *PgVectorIndex) Search(ctx context.Context, handle, query string, topK int) ([]Passage, error) {
	collectionID, err := x.collection(ctx, handle)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 8
	}

	vec, err := x.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := x.db.Query(ctx,
		`SELECT file_id, filename, content, 1 - (embedding <=> $1) AS score
		 FROM archive_chunks
		 WHERE collection_id = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(vec), collectionID, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var passages []Passage
	for rows.Next() {
		var p Passage
		var fileID uuid.UUID
		if err := rows.Scan(&fileID, &p.Filename, &p.Text, &p.Score); err != nil {
			return nil, fmt.Errorf("scan passage: %w", err)
		}
		p.FileID = fileID.String()
		passages = append(passages, p)
	}
	return passages, rows.Err()
}
