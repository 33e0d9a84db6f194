package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	"github.com/immuse/tourwizard/pkg/chunker"
	"github.com/immuse/tourwizard/pkg/textextract"
)

// Memory is a process-local keyword index for development without an
// external service.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]memoryChunk
}

type memoryChunk struct {
	fileID   string
	filename string
	text     string
	terms    map[string]int
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]memoryChunk)}
}

func (x *Memory) CreateCollection(_ context.Context, _ string) (string, error) {
	handle := "mem_" + uuid.NewString()
	x.mu.Lock()
	x.collections[handle] = nil
	x.mu.Unlock()
	return handle, nil
}

func (x *Memory) AddFile(_ context.Context, handle string, f File) (string, error) {
	doc, err := textextract.Extract(f.Data, f.Name, f.MimeType)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	fileID := "file_" + uuid.NewString()
	var added []memoryChunk
	for _, c := range chunker.Split(doc.Content, chunker.DefaultOptions()) {
		added = append(added, memoryChunk{fileID: fileID, filename: f.Name, text: c.Content, terms: terms(c.Content)})
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	existing, ok := x.collections[handle]
	if !ok {
		return "", fmt.Errorf("collection %q: %w", handle, ErrUnknownCollection)
	}
	x.collections[handle] = append(existing, added...)
	return fileID, nil
}

func (x *Memory) Search(_ context.Context, handle, query string, topK int) ([]Passage, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	chunks, ok := x.collections[handle]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", handle, ErrUnknownCollection)
	}

	q := terms(query)
	var hits []Passage
	for _, c := range chunks {
		score := 0
		for t := range q {
			score += c.terms[t]
		}
		if score > 0 {
			hits = append(hits, Passage{FileID: c.fileID, Filename: c.filename, Text: c.text, Score: float64(score)})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func terms(s string) map[string]int {
	out := make(map[string]int)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[w]++
	}
	return out
}
