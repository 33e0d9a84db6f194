// Package chunker splits extracted archive text into overlapping passages.
package chunker

import (
	"strings"
	"unicode/utf8"
)

type Strategy string

const (
	StrategyRecursive Strategy = "recursive"
	StrategyFixed     Strategy = "fixed"
)

type Options struct {
	Size     int // target chunk size in runes
	Overlap  int // runes repeated from the end of the previous chunk
	Strategy Strategy
}

type Chunk struct {
	Content string
	Index   int
}

func DefaultOptions() Options {
	return Options{Size: 1000, Overlap: 150, Strategy: StrategyRecursive}
}

// Split returns non-blank chunks of text in document order.
func Split(text string, opts Options) []Chunk {
	if opts.Size <= 0 {
		opts.Size = 1000
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.Size {
		opts.Overlap = 0
	}

	var parts []string
	switch opts.Strategy {
	case StrategyFixed:
		parts = splitFixed(text, opts.Size-opts.Overlap)
	default:
		parts = splitRecursive(text, []string{"\n\n", "\n", ". ", " "}, opts.Size-opts.Overlap)
	}

	var chunks []Chunk
	prev := ""
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		content := p
		if opts.Overlap > 0 && prev != "" {
			content = tail(prev, opts.Overlap) + " " + p
		}
		chunks = append(chunks, Chunk{Content: content, Index: len(chunks)})
		prev = p
	}
	return chunks
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[len(r)-n:]))
}

func splitFixed(text string, size int) []string {
	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); i += size {
		end := min(i+size, len(runes))
		out = append(out, string(runes[i:end]))
	}
	return out
}

func splitRecursive(text string, separators []string, size int) []string {
	if utf8.RuneCountInString(text) <= size {
		return []string{text}
	}
	if len(separators) == 0 {
		return splitFixed(text, size)
	}

	sep := separators[0]
	var out []string
	var current strings.Builder
	for _, part := range strings.Split(text, sep) {
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+len(sep)+utf8.RuneCountInString(part) > size {
			out = append(out, splitRecursive(current.String(), separators[1:], size)...)
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(part)
	}
	if current.Len() > 0 {
		out = append(out, splitRecursive(current.String(), separators[1:], size)...)
	}
	return out
}
