package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/config"
	"github.com/immuse/tourwizard/internal/database"
	"github.com/immuse/tourwizard/internal/models"
)

// setupPostgres starts a pgvector-enabled Postgres and applies the migrations.
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/pgvector/pgvector:pg16",
		postgres.WithDatabase("tourwizard_test"),
		postgres.WithUsername("tourwizard"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.NewPool(ctx, config.DatabaseConfig{URL: dsn, MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.RunMigrations(ctx, pool, os.DirFS("../../migrations")))
	return pool
}

func TestPostgres_MuseumAndHandle(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	s := NewPostgres(pool)

	m := newMuseum(t, s)
	_, err := s.GetMuseum(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	got, err := s.SetIndexHandle(ctx, m.ID, "vs_a")
	require.NoError(t, err)
	assert.Equal(t, "vs_a", got)

	got, err = s.SetIndexHandle(ctx, m.ID, "vs_b")
	require.NoError(t, err)
	assert.Equal(t, "vs_a", got)

	notes := "ground floor first"
	require.NoError(t, s.SaveFloorplan(ctx, m.ID, models.FloorplanUpdate{
		Notes:     &notes,
		Structure: []byte(`{"floors":[]}`),
	}))
	stored, err := s.GetMuseum(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, notes, *stored.FloorplanNotes)
	assert.JSONEq(t, `{"floors":[]}`, string(stored.Floorplan))
}

func TestPostgres_ArchivesAndTours(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	s := NewPostgres(pool)
	m := newMuseum(t, s)

	url := "https://example.org/letters.pdf"
	first := &models.ArchiveFile{MuseumID: m.ID, Filename: "letters.pdf", SourceType: models.SourceURL, URL: &url, Status: models.ArchiveStatusPending}
	require.NoError(t, s.CreateArchiveFile(ctx, first))
	second := &models.ArchiveFile{MuseumID: m.ID, Filename: "map.png", MimeType: "image/png", SizeBytes: 10,
		StoragePath: m.ID.String() + "/map.png", SourceType: models.SourceUpload, Status: models.ArchiveStatusUploaded}
	require.NoError(t, s.CreateArchiveFile(ctx, second))

	pending, err := s.IngestableArchiveFiles(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	msg := "upstream 500"
	require.NoError(t, s.UpdateArchiveFile(ctx, first.ID, models.ArchiveUpdate{Status: models.ArchiveStatusFailed, Error: &msg}))

	files, err := s.ListArchiveFiles(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		if f.ID == first.ID {
			assert.Equal(t, models.ArchiveStatusFailed, f.Status)
			assert.Equal(t, msg, *f.Error)
		}
	}

	req := &models.TourRequest{MuseumID: m.ID, Interests: []string{"icons", "maps"}, Level: models.LevelChild, Minutes: 30}
	require.NoError(t, s.CreateTourRequest(ctx, req))
	plan := &models.TourPlan{MuseumID: m.ID, TourRequestID: req.ID, Result: []byte(`{"stops":[{"title":"x"}]}`)}
	require.NoError(t, s.CreateTourPlan(ctx, plan))

	detail, err := s.GetTourPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"icons", "maps"}, detail.Request.Interests)
	assert.Equal(t, models.LevelChild, detail.Request.Level)
	assert.Equal(t, m.Name, detail.Museum.Name)

	_, err = s.GetTourPlan(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
