package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/models"
)

func filesWith(statuses ...models.ArchiveStatus) []models.ArchiveFile {
	files := make([]models.ArchiveFile, len(statuses))
	for i, s := range statuses {
		files[i] = models.ArchiveFile{ID: uuid.New(), Status: s}
	}
	return files
}

func TestOverall(t *testing.T) {
	cases := []struct {
		name  string
		files []models.ArchiveFile
		want  models.ArchiveStatus
	}{
		{"no files", nil, models.ArchiveStatusReady},
		{"all ready", filesWith(models.ArchiveStatusReady, models.ArchiveStatusReady), models.ArchiveStatusReady},
		{"failed beats ready", filesWith(models.ArchiveStatusReady, models.ArchiveStatusFailed, models.ArchiveStatusReady), models.ArchiveStatusFailed},
		{"failed beats indexing", filesWith(models.ArchiveStatusIndexing, models.ArchiveStatusFailed), models.ArchiveStatusFailed},
		{"pending", filesWith(models.ArchiveStatusReady, models.ArchiveStatusPending), models.ArchiveStatusIndexing},
		{"uploaded", filesWith(models.ArchiveStatusUploaded), models.ArchiveStatusIndexing},
		{"indexing", filesWith(models.ArchiveStatusIndexing, models.ArchiveStatusReady), models.ArchiveStatusIndexing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overall(tc.files))
		})
	}
}

func TestStatus_NoFiles(t *testing.T) {
	fx := newFixture(t)
	r, err := fx.pipeline.Status(context.Background(), fx.museum.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ArchiveStatusReady, r.OverallStatus)
	assert.NotNil(t, r.Files)
	assert.Empty(t, r.Files)
	assert.Empty(t, r.StatusCounts)
	assert.Nil(t, r.VectorStoreID)
}

func TestStatus_AfterIngest(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.upload(t, "ok.txt", "ok")
	fx.upload(t, "bad.txt", "bad")
	fx.idx.failNames["bad.txt"] = true

	before, err := fx.pipeline.Status(ctx, fx.museum.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ArchiveStatusIndexing, before.OverallStatus)
	assert.Equal(t, map[models.ArchiveStatus]int{models.ArchiveStatusUploaded: 2}, before.StatusCounts)

	_, err = fx.pipeline.Run(ctx, fx.museum.ID)
	require.NoError(t, err)

	after, err := fx.pipeline.Status(ctx, fx.museum.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ArchiveStatusFailed, after.OverallStatus)
	assert.Equal(t, map[models.ArchiveStatus]int{models.ArchiveStatusReady: 1, models.ArchiveStatusFailed: 1}, after.StatusCounts)
	require.Len(t, after.Files, 2)
	assert.Equal(t, "bad.txt", after.Files[0].Filename)
	require.NotNil(t, after.VectorStoreID)
	assert.Equal(t, "vs_1", *after.VectorStoreID)
}

func TestStatus_UnknownMuseum(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.pipeline.Status(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func sequence(statuses ...models.ArchiveStatus) (func(context.Context) (*StatusReport, error), *int) {
	calls := 0
	return func(context.Context) (*StatusReport, error) {
		s := statuses[len(statuses)-1]
		if calls < len(statuses) {
			s = statuses[calls]
		}
		calls++
		return &StatusReport{OverallStatus: s}, nil
	}, &calls
}

func TestWaitForTerminal(t *testing.T) {
	fetch, calls := sequence(models.ArchiveStatusIndexing, models.ArchiveStatusIndexing, models.ArchiveStatusReady)
	var seen []int
	r, err := WaitForTerminal(context.Background(), fetch, PollOptions{
		Interval:    time.Millisecond,
		MaxAttempts: 5,
		OnAttempt:   func(n int, _ *StatusReport) { seen = append(seen, n) },
	})
	require.NoError(t, err)
	assert.Equal(t, models.ArchiveStatusReady, r.OverallStatus)
	assert.Equal(t, 3, *calls)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestWaitForTerminal_Exhausted(t *testing.T) {
	fetch, calls := sequence(models.ArchiveStatusIndexing)
	r, err := WaitForTerminal(context.Background(), fetch, PollOptions{Interval: time.Millisecond, MaxAttempts: 3})
	assert.ErrorIs(t, err, ErrPollExhausted)
	require.NotNil(t, r)
	assert.Equal(t, models.ArchiveStatusIndexing, r.OverallStatus)
	assert.Equal(t, 3, *calls)
}

func TestWaitForTerminal_FailedIsTerminal(t *testing.T) {
	fetch, _ := sequence(models.ArchiveStatusFailed)
	r, err := WaitForTerminal(context.Background(), fetch, PollOptions{Interval: time.Millisecond, MaxAttempts: 3})
	require.NoError(t, err)
	assert.Equal(t, models.ArchiveStatusFailed, r.OverallStatus)
}

func TestWaitForTerminal_FetchErrorAndCancel(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := WaitForTerminal(context.Background(), func(context.Context) (*StatusReport, error) { return nil, boom },
		PollOptions{Interval: time.Millisecond, MaxAttempts: 3})
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	fetch, calls := sequence(models.ArchiveStatusIndexing)
	wrapped := func(ctx context.Context) (*StatusReport, error) {
		defer cancel()
		return fetch(ctx)
	}
	_, err = WaitForTerminal(ctx, wrapped, PollOptions{Interval: time.Hour, MaxAttempts: 3})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, *calls)
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4"))
		case "/big":
			w.Write([]byte(strings.Repeat("x", 64)))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()
	ctx := context.Background()
	f := NewHTTPFetcher(5*time.Second, 16)

	data, contentType, err := f.Fetch(ctx, srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
	assert.Equal(t, "application/pdf", contentType)

	_, _, err = f.Fetch(ctx, srv.URL+"/big")
	assert.ErrorContains(t, err, "exceeds 16 bytes")

	_, _, err = f.Fetch(ctx, srv.URL+"/boom")
	assert.ErrorContains(t, err, "500")
}
