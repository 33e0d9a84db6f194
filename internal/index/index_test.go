package index

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immuse/tourwizard/internal/config"
	"github.com/immuse/tourwizard/internal/llm"
)

var (
	_ Index = (*Memory)(nil)
	_ Index = (*OpenAIIndex)(nil)
	_ Index = (*PgVectorIndex)(nil)
)

func TestMemory_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	x := NewMemory()

	handle, err := x.CreateCollection(ctx, "Museum")
	require.NoError(t, err)

	_, err = x.AddFile(ctx, handle, File{Name: "icons.txt", MimeType: "text/plain", Data: []byte("The icon hall holds Kyiv icons of the 17th century.")})
	require.NoError(t, err)
	_, err = x.AddFile(ctx, handle, File{Name: "arms.txt", Data: []byte("Armour and sabres of the Cossack era.")})
	require.NoError(t, err)

	hits, err := x.Search(ctx, handle, "icons", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "icons.txt", hits[0].Filename)

	hits, err = x.Search(ctx, handle, "nothing matches", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemory_UnknownCollectionAndFormat(t *testing.T) {
	ctx := context.Background()
	x := NewMemory()

	_, err := x.AddFile(ctx, "mem_missing", File{Name: "a.txt", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrUnknownCollection)

	_, err = x.Search(ctx, "mem_missing", "x", 1)
	assert.ErrorIs(t, err, ErrUnknownCollection)

	handle, err := x.CreateCollection(ctx, "m")
	require.NoError(t, err)
	_, err = x.AddFile(ctx, handle, File{Name: "scan.png", MimeType: "image/png", Data: []byte{1, 2}})
	assert.Error(t, err)
}

// fakeOpenAI serves the vector store and files endpoints used by OpenAIIndex.
func fakeOpenAI(t *testing.T, attachStatus string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/vector_stores":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "Lviv Museum", body["name"])
			_, _ = w.Write([]byte(`{"id":"vs_123","object":"vector_store","name":"Lviv Museum"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/files":
			if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
				return
			}
			assert.Equal(t, "assistants", r.FormValue("purpose"))
			f, hdr, err := r.FormFile("file")
			if !assert.NoError(t, err) {
				return
			}
			data, _ := io.ReadAll(f)
			assert.Equal(t, "letters.pdf", hdr.Filename)
			assert.Equal(t, "%PDF", string(data))
			_, _ = w.Write([]byte(`{"id":"file_abc","object":"file","purpose":"assistants"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/vector_stores/vs_123/files":
			_, _ = w.Write([]byte(`{"id":"file_abc","object":"vector_store.file","status":"` + attachStatus + `","vector_store_id":"vs_123"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/vector_stores/vs_123/search":
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			var body vsSearchRequest
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, 3, body.MaxNumResults)
			_, _ = w.Write([]byte(`{"data":[{"file_id":"file_abc","filename":"letters.pdf","score":0.91,
				"content":[{"type":"text","text":"Letter one."},{"type":"text","text":"Letter two."}]}]}`))
		case r.URL.Path == "/v1/vector_stores/vs_gone/search":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"No vector store found"}}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestOpenAIIndex_Lifecycle(t *testing.T) {
	srv := fakeOpenAI(t, "in_progress")
	defer srv.Close()

	ctx := context.Background()
	x := NewOpenAIIndex(llm.NewOpenAIClient("sk-test", srv.URL+"/v1"), "sk-test", srv.URL+"/v1/")

	handle, err := x.CreateCollection(ctx, "Lviv Museum")
	require.NoError(t, err)
	assert.Equal(t, "vs_123", handle)

	fileID, err := x.AddFile(ctx, handle, File{Name: "letters.pdf", MimeType: "application/pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "file_abc", fileID)

	// a URL archive named without an extension is uploaded under its type
	_, err = x.AddFile(ctx, handle, File{Name: "letters", MimeType: "application/pdf", Data: []byte("%PDF")})
	require.NoError(t, err)

	hits, err := x.Search(ctx, handle, "letters", 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Letter one.\nLetter two.", hits[0].Text)
	assert.InDelta(t, 0.91, hits[0].Score, 1e-9)

	_, err = x.Search(ctx, "vs_gone", "letters", 3)
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestUploadName(t *testing.T) {
	tests := []struct {
		name, mimeType, want string
	}{
		{"letters.pdf", "text/plain", "letters.pdf"},
		{"letters", "application/pdf", "letters.pdf"},
		{"notes", "text/plain; charset=utf-8", "notes.txt"},
		{"inventory", "text/markdown", "inventory.md"},
		{"archive", "application/octet-stream", "archive"},
		{"archive", "", "archive"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, uploadName(tt.name, tt.mimeType), tt.name+" "+tt.mimeType)
	}
}

func TestOpenAIIndex_AttachFailed(t *testing.T) {
	srv := fakeOpenAI(t, "failed")
	defer srv.Close()

	x := NewOpenAIIndex(llm.NewOpenAIClient("sk-test", srv.URL+"/v1"), "sk-test", srv.URL+"/v1")
	_, err := x.AddFile(context.Background(), "vs_123", File{Name: "letters.pdf", Data: []byte("%PDF")})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "processing failed"))
}

func TestNew(t *testing.T) {
	cfg := &config.Config{Index: config.IndexConfig{Backend: "memory"}}
	x, err := New(cfg, Deps{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, x)

	cfg.Index.Backend = "openai"
	_, err = New(cfg, Deps{})
	assert.Error(t, err)

	cfg.Index.Backend = "pgvector"
	_, err = New(cfg, Deps{})
	assert.Error(t, err)

	cfg.Index.Backend = "weaviate"
	_, err = New(cfg, Deps{})
	assert.Error(t, err)
}
