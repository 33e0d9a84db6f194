// Package client is a typed HTTP client for the tour wizard API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/archive"
	"github.com/immuse/tourwizard/internal/ingest"
	"github.com/immuse/tourwizard/internal/models"
	"github.com/immuse/tourwizard/internal/museum"
	"github.com/immuse/tourwizard/internal/tour"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string              `json:"error"`
	Details []apperr.FieldError `json:"details"`
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+" "+d.Message)
	}
	return fmt.Sprintf("api error %d: %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the API rooted at baseURL. token is sent as a
// bearer token when non-empty.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Minute},
	}
}

func (c *Client) CreateMuseum(ctx context.Context, in museum.CreateInput) (*models.Museum, error) {
	return call[models.Museum](ctx, c, http.MethodPost, "/api/v1/museums", in)
}

func (c *Client) UploadArchive(ctx context.Context, museumID, filename string, data io.Reader) (*archive.Receipt, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(filePartHeader("file", filename))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	var out archive.Receipt
	if err := c.do(ctx, http.MethodPost, museumPath(museumID, "archives"), mw.FormDataContentType(), &buf, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// filePartHeader is multipart.CreateFormFile's header with the content type
// guessed from the file extension.
func filePartHeader(field, filename string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return h
}

func (c *Client) AddArchiveURL(ctx context.Context, museumID, rawURL string) (*archive.Receipt, error) {
	return call[archive.Receipt](ctx, c, http.MethodPost, museumPath(museumID, "archives"), map[string]string{"url": rawURL})
}

// Ingest runs ingestion synchronously and returns its report.
func (c *Client) Ingest(ctx context.Context, museumID string) (*ingest.Report, error) {
	return call[ingest.Report](ctx, c, http.MethodPost, museumPath(museumID, "ingest"), nil)
}

// IngestAsync queues ingestion on the worker.
func (c *Client) IngestAsync(ctx context.Context, museumID string) error {
	return c.doJSON(ctx, http.MethodPost, museumPath(museumID, "ingest")+"?async=true", nil, nil)
}

func (c *Client) Status(ctx context.Context, museumID string) (*ingest.StatusReport, error) {
	return call[ingest.StatusReport](ctx, c, http.MethodGet, museumPath(museumID, "ingest/status"), nil)
}

func (c *Client) CreateTour(ctx context.Context, in tour.CreateInput) (*tour.CreateResult, error) {
	return call[tour.CreateResult](ctx, c, http.MethodPost, "/api/v1/tours", in)
}

func (c *Client) GetTour(ctx context.Context, id string) (*tour.Detail, error) {
	return call[tour.Detail](ctx, c, http.MethodGet, "/api/v1/tours/"+url.PathEscape(id), nil)
}

func museumPath(id, suffix string) string {
	return "/api/v1/museums/" + url.PathEscape(id) + "/" + suffix
}

func call[T any](ctx context.Context, c *Client, method, path string, in any) (*T, error) {
	var out T
	if err := c.doJSON(ctx, method, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, body, out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
