package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/askbase/askbase/internal/model"
	appErr "github.com/askbase/askbase/internal/pkg/errors"
)

const (
	DefaultTopK = 5

	// taskTypeQuery marks query-side embeddings for providers that
	// distinguish retrieval task types.
	taskTypeQuery = "RETRIEVAL_QUERY"

	// candidateFactor over-fetches from the store so the final stable
	// ranking and tie-breaking happen here, not in SQL.
	candidateFactor = 4
)

// Retriever embeds a query and ranks visible chunks by cosine similarity.
type Retriever struct {
	embedder Embedder
	store    ChunkStore
	dim      int
}

// NewRetriever builds a retriever. dim is the deployment-wide embedding
// dimension; 0 disables the check.
func NewRetriever(embedder Embedder, store ChunkStore, dim int) *Retriever {
	return &Retriever{embedder: embedder, store: store, dim: dim}
}

// Retrieve returns the topK most similar chunks visible to scope: global
// documents plus those scoped to that thread. An empty store or scope yields
// an empty result, not an error. Ranking is stable: score descending, ties
// broken by ascending ordinal, then by document id.
func (r *Retriever) Retrieve(ctx context.Context, query string, scope string, topK int) ([]model.RetrievalResult, error) {
	if topK <= 0 {
		return nil, nil
	}
	vec, err := r.embedder.Embed(ctx, query, taskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if r.dim > 0 && len(vec) != r.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", appErr.ErrDimMismatch, len(vec), r.dim)
	}

	results, err := r.store.Query(ctx, scope, vec, topK*candidateFactor)
	if err != nil {
		return nil, fmt.Errorf("query chunk store: %w", err)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Chunk.Ordinal != results[j].Chunk.Ordinal {
			return results[i].Chunk.Ordinal < results[j].Chunk.Ordinal
		}
		return results[i].Chunk.DocumentID < results[j].Chunk.DocumentID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}
