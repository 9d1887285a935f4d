// Package rag implements the retrieval-augmented answer pipeline: per-thread
// conversation memory with summarization, standalone-query rewriting, vector
// retrieval over the chunk store, grounding-context assembly, prompt
// composition and streamed generation. The surrounding service and transport
// layers are thin; everything stateful about answering a turn lives here.
package rag

import (
	"context"

	"github.com/askbase/askbase/internal/ai"
	"github.com/askbase/askbase/internal/model"
)

// Generator is the external generation capability. ai.IGenerator satisfies
// it; tests plug in fakes.
type Generator interface {
	Generate(ctx context.Context, instruction string, msgs []ai.ChatMessage) (string, error)
	GenerateStream(ctx context.Context, instruction string, msgs []ai.ChatMessage, onDelta func(delta string) error) (string, error)
}

// Embedder is the external embedding capability. ai.IEmbedder satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

// ChunkStore serves scoped similarity candidates. repo.ChunkRepo satisfies
// it. An empty scope sees only global documents.
type ChunkStore interface {
	Query(ctx context.Context, scope string, queryVec []float32, limit int) ([]model.RetrievalResult, error)
}

// MessageStore is the conversation log store. repo.MessageRepo satisfies it.
type MessageStore interface {
	Append(ctx context.Context, threadID string, msg model.Message) (model.Message, error)
	List(ctx context.Context, threadID string) ([]model.Message, error)
	ReplaceWithSummary(ctx context.Context, threadID string, summary model.Message, keep []model.Message) error
}

func toChatMessages(msgs []model.Message) []ai.ChatMessage {
	out := make([]ai.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ai.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
