package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/models"
)

type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

const museumColumns = `id, name, website, description, index_handle, floorplan_notes, floorplan, floorplan_image_path, created_at`

func scanMuseum(row pgx.Row, m *models.Museum) error {
	return row.Scan(&m.ID, &m.Name, &m.Website, &m.Description, &m.IndexHandle,
		&m.FloorplanNotes, &m.Floorplan, &m.FloorplanImagePath, &m.CreatedAt)
}

func (s *Postgres) CreateMuseum(ctx context.Context, m *models.Museum) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO museums (id, name, website, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		m.ID, m.Name, m.Website, m.Description,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert museum: %w", err)
	}
	return nil
}

func (s *Postgres) GetMuseum(ctx context.Context, id uuid.UUID) (*models.Museum, error) {
	var m models.Museum
	err := scanMuseum(s.db.QueryRow(ctx, `SELECT `+museumColumns+` FROM museums WHERE id = $1`, id), &m)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Museum not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get museum: %w", err)
	}
	return &m, nil
}

func (s *Postgres) SetIndexHandle(ctx context.Context, museumID uuid.UUID, handle string) (string, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE museums SET index_handle = $2 WHERE id = $1 AND index_handle IS NULL`,
		museumID, handle,
	)
	if err != nil {
		return "", fmt.Errorf("set index handle: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return handle, nil
	}

	m, err := s.GetMuseum(ctx, museumID)
	if err != nil {
		return "", err
	}
	if !m.HasIndex() {
		return "", fmt.Errorf("set index handle: museum %s has no handle after update", museumID)
	}
	return *m.IndexHandle, nil
}

func (s *Postgres) SaveFloorplan(ctx context.Context, museumID uuid.UUID, fp models.FloorplanUpdate) error {
	var structure any
	if len(fp.Structure) > 0 {
		structure = fp.Structure
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE museums
		 SET floorplan_notes = $2, floorplan = $3, floorplan_image_path = COALESCE($4, floorplan_image_path)
		 WHERE id = $1`,
		museumID, fp.Notes, structure, fp.ImagePath,
	)
	if err != nil {
		return fmt.Errorf("save floorplan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Museum not found")
	}
	return nil
}

const archiveColumns = `id, museum_id, filename, mime_type, size_bytes, storage_path, source_type, url, status, error, index_file_id, created_at`

func scanArchive(row pgx.Row, f *models.ArchiveFile) error {
	return row.Scan(&f.ID, &f.MuseumID, &f.Filename, &f.MimeType, &f.SizeBytes, &f.StoragePath,
		&f.SourceType, &f.URL, &f.Status, &f.Error, &f.IndexFileID, &f.CreatedAt)
}

func (s *Postgres) CreateArchiveFile(ctx context.Context, f *models.ArchiveFile) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO archive_files (id, museum_id, filename, mime_type, size_bytes, storage_path, source_type, url, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		f.ID, f.MuseumID, f.Filename, f.MimeType, f.SizeBytes, f.StoragePath, f.SourceType, f.URL, f.Status,
	).Scan(&f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert archive file: %w", err)
	}
	return nil
}

func (s *Postgres) ListArchiveFiles(ctx context.Context, museumID uuid.UUID) ([]models.ArchiveFile, error) {
	return s.queryArchives(ctx,
		`SELECT `+archiveColumns+` FROM archive_files WHERE museum_id = $1 ORDER BY created_at DESC`,
		museumID,
	)
}

func (s *Postgres) IngestableArchiveFiles(ctx context.Context, museumID uuid.UUID) ([]models.ArchiveFile, error) {
	return s.queryArchives(ctx,
		`SELECT `+archiveColumns+` FROM archive_files
		 WHERE museum_id = $1 AND status IN ('PENDING', 'UPLOADED')
		 ORDER BY created_at ASC`,
		museumID,
	)
}

func (s *Postgres) queryArchives(ctx context.Context, sql string, args ...any) ([]models.ArchiveFile, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list archive files: %w", err)
	}
	defer rows.Close()

	var files []models.ArchiveFile
	for rows.Next() {
		var f models.ArchiveFile
		if err := scanArchive(rows, &f); err != nil {
			return nil, fmt.Errorf("scan archive file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *Postgres) UpdateArchiveFile(ctx context.Context, id uuid.UUID, upd models.ArchiveUpdate) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE archive_files
		 SET status = $2,
		     error = COALESCE($3, error),
		     storage_path = COALESCE($4, storage_path),
		     index_file_id = COALESCE($5, index_file_id)
		 WHERE id = $1`,
		id, upd.Status, upd.Error, upd.StoragePath, upd.IndexFileID,
	)
	if err != nil {
		return fmt.Errorf("update archive file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Archive file not found")
	}
	return nil
}

func (s *Postgres) CreateTourRequest(ctx context.Context, r *models.TourRequest) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO tour_requests (id, museum_id, interests, level, minutes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		r.ID, r.MuseumID, r.Interests, r.Level, r.Minutes,
	).Scan(&r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tour request: %w", err)
	}
	return nil
}

func (s *Postgres) CreateTourPlan(ctx context.Context, p *models.TourPlan) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO tour_plans (id, museum_id, tour_request_id, result)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		p.ID, p.MuseumID, p.TourRequestID, p.Result,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tour plan: %w", err)
	}
	return nil
}

func (s *Postgres) GetTourPlan(ctx context.Context, id uuid.UUID) (*models.TourPlanDetail, error) {
	var d models.TourPlanDetail
	err := s.db.QueryRow(ctx,
		`SELECT p.id, p.museum_id, p.tour_request_id, p.result, p.created_at,
		        m.id, m.name, m.description,
		        r.id, r.museum_id, r.interests, r.level, r.minutes, r.created_at
		 FROM tour_plans p
		 JOIN museums m ON m.id = p.museum_id
		 JOIN tour_requests r ON r.id = p.tour_request_id
		 WHERE p.id = $1`,
		id,
	).Scan(&d.Plan.ID, &d.Plan.MuseumID, &d.Plan.TourRequestID, &d.Plan.Result, &d.Plan.CreatedAt,
		&d.Museum.ID, &d.Museum.Name, &d.Museum.Description,
		&d.Request.ID, &d.Request.MuseumID, &d.Request.Interests, &d.Request.Level, &d.Request.Minutes, &d.Request.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Tour not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get tour plan: %w", err)
	}
	return &d, nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
