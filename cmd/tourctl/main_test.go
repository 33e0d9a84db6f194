package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immuse/tourwizard/internal/auth"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	err := app.RunContext(context.Background(), append([]string{"tourctl"}, args...))
	return out.String(), err
}

func TestStatusWaitsForTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/museums/m1/ingest/status", r.URL.Path)
		overall := "INDEXING"
		if calls.Add(1) >= 3 {
			overall = "READY"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"museumId":"7f1b7a52-8f5e-4d57-9a55-2a9d1c1f0e11","overallStatus":%q,"statusCounts":{},"files":[]}`, overall)
	}))
	defer srv.Close()

	out, err := run(t, "--api", srv.URL, "--log-level", "error", "status", "--museum", "m1", "--wait", "--interval", "1ms", "--max-attempts", "5")
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "READY", report["overallStatus"])
}

func TestStatusWaitGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"overallStatus":"INDEXING","statusCounts":{"PENDING":1},"files":[]}`)
	}))
	defer srv.Close()

	_, err := run(t, "--api", srv.URL, "--log-level", "error", "status", "--museum", "m1", "--wait", "--interval", "1ms", "--max-attempts", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not terminal")
}

func TestTourCreateSendsInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{"icons", "maps"}, body["interests"])
		assert.Equal(t, "child", body["level"])
		assert.EqualValues(t, 30, body["minutes"])
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"7f1b7a52-8f5e-4d57-9a55-2a9d1c1f0e11","tourRequestId":"7f1b7a52-8f5e-4d57-9a55-2a9d1c1f0e12","result":{"museum":"X","total_minutes":30,"stops":[],"route_notes":"","fallbacks":[]}}`)
	}))
	defer srv.Close()

	out, err := run(t, "--api", srv.URL, "tour", "create", "-m", "m1", "-i", "icons", "-i", "maps", "--level", "child", "--minutes", "30")
	require.NoError(t, err)
	assert.Contains(t, out, `"tourRequestId"`)
}

func TestTokenIssue(t *testing.T) {
	out, err := run(t, "token", "issue", "--secret", "s3cret", "--subject", "curator")
	require.NoError(t, err)

	claims, err := auth.NewJWTMiddleware("s3cret").Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, auth.RoleOperator, claims.Role)
	assert.Equal(t, "curator", claims.Subject)
}

func TestTourGetNeedsID(t *testing.T) {
	_, err := run(t, "tour", "get")
	require.Error(t, err)
}
