package ai

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkerOrdinalsAreMonotonic(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		sb.WriteString(fmt.Sprintf("## Section %d\n\n", i))
		for j := 0; j < 5; j++ {
			sb.WriteString(strings.Repeat("lorem ipsum dolor sit amet ", 20))
			sb.WriteString("\n\n")
		}
	}
	chunks := NewChunker().Chunk(context.Background(), sb.String())
	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		require.Equal(t, i, chunk.Ordinal)
		require.NotEmpty(t, chunk.Content)
	}
}

func TestChunkerHeadingStartsNewChunk(t *testing.T) {
	source := "# First\n\nalpha text here\n\n# Second\n\nbeta text here\n"
	chunks := NewChunker().Chunk(context.Background(), source)
	require.Len(t, chunks, 2)
	require.Contains(t, chunks[0].Content, "First")
	require.Contains(t, chunks[0].Content, "alpha")
	require.NotContains(t, chunks[0].Content, "beta")
	require.Contains(t, chunks[1].Content, "Second")
	require.Contains(t, chunks[1].Content, "beta")
}

func TestChunkerSplitsOversizedSection(t *testing.T) {
	paragraph := strings.Repeat("word ", 150)
	source := "# Big\n\n" + paragraph + "\n\n" + paragraph + "\n\n" + paragraph + "\n\n" + paragraph
	chunks := NewChunker().Chunk(context.Background(), source)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		require.Contains(t, chunk.Content, "Big")
	}
}

func TestChunkerKeepsCodeBlocksIntact(t *testing.T) {
	source := "# Code\n\nintro\n\n```go\nfunc main() {}\n```\n"
	chunks := NewChunker().Chunk(context.Background(), source)
	require.Len(t, chunks, 1)
	require.Contains(t, chunks[0].Content, "```go\nfunc main() {}\n```")
}

func TestChunkerPlainTextWithoutHeadings(t *testing.T) {
	chunks := NewChunker().Chunk(context.Background(), "just a short note with no structure")
	require.Len(t, chunks, 1)
	require.Equal(t, 0, chunks[0].Ordinal)
}

func TestChunkerEmptyInput(t *testing.T) {
	require.Empty(t, NewChunker().Chunk(context.Background(), ""))
	require.Empty(t, NewChunker().Chunk(context.Background(), "   \n\n  "))
}

func TestEstimateTokens(t *testing.T) {
	require.Equal(t, 3, estimateTokens("three short words"))
	require.Equal(t, 1, estimateTokens("!"))
	require.Zero(t, estimateTokens(""))
	// CJK counts runes, not words.
	require.GreaterOrEqual(t, estimateTokens("你好世界"), 4)
}
