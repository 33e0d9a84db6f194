// Package textextract turns archive files into plain text for the local index.
package textextract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupported is returned for formats without a text extractor.
var ErrUnsupported = errors.New("unsupported file type")

type Document struct {
	Content string
	Pages   int
	Format  string
}

// Extract detects the format from the MIME type, falling back to the
// filename extension.
func Extract(data []byte, filename, mimeType string) (*Document, error) {
	format := Detect(filename, mimeType)
	switch format {
	case "pdf":
		return extractPDF(data)
	case "docx":
		return extractDOCX(data)
	case "html":
		return &Document{Content: stripTags(string(data)), Pages: 1, Format: format}, nil
	case "txt", "md", "csv", "json":
		return &Document{Content: string(bytes.TrimSpace(data)), Pages: 1, Format: format}, nil
	default:
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupported, filename, mimeType)
	}
}

// Detect maps a MIME type or extension to a short format name, or "".
func Detect(filename, mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	switch mt {
	case "application/pdf":
		return "pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "docx"
	case "text/html", "application/xhtml+xml":
		return "html"
	case "text/plain":
		return "txt"
	case "text/markdown", "text/x-markdown":
		return "md"
	case "text/csv":
		return "csv"
	case "application/json":
		return "json"
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "pdf"
	case ".docx":
		return "docx"
	case ".html", ".htm":
		return "html"
	case ".txt":
		return "txt"
	case ".md", ".markdown":
		return "md"
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	}
	return ""
}

func extractPDF(data []byte) (*Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	return &Document{Content: strings.TrimSpace(buf.String()), Pages: numPages, Format: "pdf"}, nil
}

func extractDOCX(data []byte) (*Document, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open DOCX: %w", err)
	}

	for _, f := range reader.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open document.xml: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read document.xml: %w", err)
		}
		return &Document{Content: stripTags(string(content)), Pages: 1, Format: "docx"}, nil
	}
	return nil, fmt.Errorf("open DOCX: word/document.xml missing")
}

// stripTags drops markup and collapses whitespace.
func stripTags(s string) string {
	var result strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			result.WriteRune(' ')
		case !inTag:
			result.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(result.String()), " ")
}
