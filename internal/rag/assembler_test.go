package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askbase/askbase/internal/model"
)

func rankedChunk(docID, filename string, ordinal int, content string, score float64) model.RetrievalResult {
	return model.RetrievalResult{
		Chunk:    model.Chunk{DocumentID: docID, Ordinal: ordinal, Content: content},
		Filename: filename,
		Score:    score,
	}
}

func TestAssembleGroupsByFirstAppearanceAndOrdinal(t *testing.T) {
	got := Assemble([]model.RetrievalResult{
		rankedChunk("docA", "a.md", 2, "A2", 0.9),
		rankedChunk("docB", "b.md", 0, "B0", 0.8),
		rankedChunk("docA", "a.md", 0, "A0", 0.7),
	})

	require.Len(t, got.Documents, 2)
	require.Equal(t, "docA", got.Documents[0].DocumentID)
	require.Equal(t, "docB", got.Documents[1].DocumentID)

	require.Len(t, got.Documents[0].Chunks, 2)
	require.Equal(t, "A0", got.Documents[0].Chunks[0].Content)
	require.Equal(t, "A2", got.Documents[0].Chunks[1].Content)

	require.Less(t, strings.Index(got.Text, "A0"), strings.Index(got.Text, "A2"))
	require.Less(t, strings.Index(got.Text, "A2"), strings.Index(got.Text, "B0"))
}

func TestAssembleLabelsSources(t *testing.T) {
	got := Assemble([]model.RetrievalResult{
		rankedChunk("docA", "guide.md", 0, "hello", 0.9),
	})
	require.Contains(t, got.Text, "Source: guide.md")
	require.Contains(t, got.Text, "hello")
}

func TestAssembleFallsBackToDocumentIDLabel(t *testing.T) {
	got := Assemble([]model.RetrievalResult{
		rankedChunk("doc-777", "", 0, "body", 0.5),
	})
	require.Contains(t, got.Text, "Source: doc-777")
}

func TestAssembleEmptyInput(t *testing.T) {
	got := Assemble(nil)
	require.Empty(t, got.Documents)
	require.Empty(t, got.Text)
}
