// Package tokenizer estimates prompt sizes without a model-specific vocabulary.
package tokenizer

import (
	"strings"
)

// CountTokens approximates the token count of text from its word count,
// at roughly four tokens for every three words.
func CountTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return max(words*4/3, 1)
}

// Fit returns how many leading texts fit within budget tokens. The first
// text is always counted so a prompt never ends up with no context at all.
func Fit(texts []string, budget int) int {
	used := 0
	for i, t := range texts {
		used += CountTokens(t)
		if used > budget && i > 0 {
			return i
		}
	}
	return len(texts)
}
