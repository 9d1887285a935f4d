package rag

import (
	"sort"
	"strings"

	"github.com/askbase/askbase/internal/model"
)

// DocumentGroup is the retrieved chunks of one document, in ordinal order.
type DocumentGroup struct {
	DocumentID string
	Filename   string
	Chunks     []model.Chunk
}

// GroundingContext is the assembled retrieval output: documents in the
// order they first appeared in the ranking, each document's chunks restored
// to reading order, plus the formatted grounding text.
type GroundingContext struct {
	Documents []DocumentGroup
	Text      string
}

// Assemble groups ranked results by document. Document order follows the
// first appearance of each document in the ranking; within a document the
// chunks are reordered by ordinal so the text reads naturally. Empty input
// assembles to empty text, which callers treat as "no grounding".
func Assemble(results []model.RetrievalResult) GroundingContext {
	if len(results) == 0 {
		return GroundingContext{}
	}

	index := make(map[string]int)
	var groups []DocumentGroup
	for _, res := range results {
		pos, ok := index[res.Chunk.DocumentID]
		if !ok {
			pos = len(groups)
			index[res.Chunk.DocumentID] = pos
			groups = append(groups, DocumentGroup{
				DocumentID: res.Chunk.DocumentID,
				Filename:   res.Filename,
			})
		}
		groups[pos].Chunks = append(groups[pos].Chunks, res.Chunk)
	}
	for i := range groups {
		sort.Slice(groups[i].Chunks, func(a, b int) bool {
			return groups[i].Chunks[a].Ordinal < groups[i].Chunks[b].Ordinal
		})
	}

	var sb strings.Builder
	for _, group := range groups {
		label := group.Filename
		if label == "" {
			label = group.DocumentID
		}
		sb.WriteString("Source: ")
		sb.WriteString(label)
		sb.WriteString("\n")
		for _, chunk := range group.Chunks {
			sb.WriteString(chunk.Content)
			sb.WriteString("\n\n")
		}
		sb.WriteString("---\n")
	}
	return GroundingContext{Documents: groups, Text: sb.String()}
}
