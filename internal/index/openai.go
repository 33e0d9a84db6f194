package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIIndex keeps each collection in an OpenAI vector store.
type OpenAIIndex struct {
	client     *openai.Client
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIIndex(client *openai.Client, apiKey, baseURL string) *OpenAIIndex {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIIndex{
		client:     client,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: time.Minute},
	}
}

func (x *OpenAIIndex) CreateCollection(ctx context.Context, name string) (string, error) {
	vs, err := x.client.CreateVectorStore(ctx, openai.VectorStoreRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("create vector store: %w", err)
	}
	return vs.ID, nil
}

func (x *OpenAIIndex) AddFile(ctx context.Context, handle string, f File) (string, error) {
	uploaded, err := x.client.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    uploadName(f.Name, f.MimeType),
		Bytes:   f.Data,
		Purpose: openai.PurposeAssistants,
	})
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}

	vsf, err := x.client.CreateVectorStoreFile(ctx, handle, openai.VectorStoreFileRequest{FileID: uploaded.ID})
	if err != nil {
		return "", fmt.Errorf("attach file to vector store: %w", err)
	}
	if vsf.Status == "failed" {
		return "", fmt.Errorf("attach file to vector store: processing failed")
	}
	return uploaded.ID, nil
}

var commonExtensions = map[string]string{
	"text/plain":         ".txt",
	"text/markdown":      ".md",
	"text/csv":           ".csv",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// uploadName gives an extensionless name one matching mimeType. The files
// endpoint takes no content type and detects the format from the name.
func uploadName(name, mimeType string) string {
	if path.Ext(name) != "" {
		return name
	}
	base, _, err := mime.ParseMediaType(mimeType)
	if err != nil || base == "application/octet-stream" {
		return name
	}
	if ext, ok := commonExtensions[base]; ok {
		return name + ext
	}
	if exts, _ := mime.ExtensionsByType(base); len(exts) > 0 {
		return name + exts[0]
	}
	return name
}

type vsSearchRequest struct {
	Query         string `json:"query"`
	MaxNumResults int    `json:"max_num_results,omitempty"`
}

type vsSearchResponse struct {
	Data []struct {
		FileID   string  `json:"file_id"`
		Filename string  `json:"filename"`
		Score    float64 `json:"score"`
		Content  []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

// Search calls the vector store search endpoint, which the SDK does not wrap.
func (x *OpenAIIndex) Search(ctx context.Context, handle, query string, topK int) ([]Passage, error) {
	body, err := json.Marshal(vsSearchRequest{Query: query, MaxNumResults: topK})
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}

	url := fmt.Sprintf("%s/vector_stores/%s/search", x.baseURL, handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+x.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search vector store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("search vector store %s: %w", handle, ErrUnknownCollection)
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("search vector store (%d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out vsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	passages := make([]Passage, 0, len(out.Data))
	for _, d := range out.Data {
		var text strings.Builder
		for _, c := range d.Content {
			if c.Type == "text" {
				if text.Len() > 0 {
					text.WriteString("\n")
				}
				text.WriteString(c.Text)
			}
		}
		passages = append(passages, Passage{FileID: d.FileID, Filename: d.Filename, Text: text.String(), Score: d.Score})
	}
	return passages, nil
}
