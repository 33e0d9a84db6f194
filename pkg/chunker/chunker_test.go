package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_ShortTextIsOneChunk(t *testing.T) {
	chunks := Split("  A short letter.  ", DefaultOptions())
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short letter.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestSplit_BlankText(t *testing.T) {
	assert.Empty(t, Split(" \n\n ", DefaultOptions()))
}

func TestSplit_RecursivePrefersParagraphs(t *testing.T) {
	para := strings.Repeat("word ", 30)
	text := para + "\n\n" + para + "\n\n" + para
	chunks := Split(text, Options{Size: 200, Strategy: StrategyRecursive})
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), 200)
	}
}

func TestSplit_FixedWithOverlap(t *testing.T) {
	text := strings.Repeat("a", 25)
	chunks := Split(text, Options{Size: 10, Overlap: 2, Strategy: StrategyFixed})
	require.Len(t, chunks, 4)
	assert.Equal(t, strings.Repeat("a", 8), chunks[0].Content)
	assert.Equal(t, "aa "+strings.Repeat("a", 8), chunks[1].Content)
}

func TestSplit_MultibyteRunes(t *testing.T) {
	text := strings.Repeat("ї", 15)
	chunks := Split(text, Options{Size: 5, Strategy: StrategyFixed})
	require.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("ї", 5), chunks[2].Content)
}

func TestSplit_InvalidOverlapIgnored(t *testing.T) {
	chunks := Split(strings.Repeat("b", 20), Options{Size: 10, Overlap: 10, Strategy: StrategyFixed})
	require.Len(t, chunks, 2)
}
