package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askbase/askbase/internal/ai"
	"github.com/askbase/askbase/internal/repo"
)

const taskTypeDocument = "RETRIEVAL_DOCUMENT"

// EmbeddingBackfillJob repairs chunks whose embedding call failed at ingest
// time. Until repaired they exist but never match a query.
type EmbeddingBackfillJob struct {
	chunks       *repo.ChunkRepo
	embedder     ai.IEmbedder
	batchSize    int
	embedTimeout time.Duration
}

func NewEmbeddingBackfillJob(chunks *repo.ChunkRepo, embedder ai.IEmbedder, batchSize int, embedTimeout time.Duration) *EmbeddingBackfillJob {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &EmbeddingBackfillJob{
		chunks:       chunks,
		embedder:     embedder,
		batchSize:    batchSize,
		embedTimeout: embedTimeout,
	}
}

func (j *EmbeddingBackfillJob) Name() string {
	return "embedding_backfill"
}

func (j *EmbeddingBackfillJob) Run(ctx context.Context) error {
	pending, err := j.chunks.ListUnembedded(ctx, j.batchSize)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	logger := logutil.GetLogger(ctx)
	repaired := 0
	for _, chunk := range pending {
		if ctx.Err() != nil {
			break
		}
		embedding, err := j.embed(ctx, chunk.Content)
		if err != nil {
			// Leave the rest for the next tick; the provider is likely
			// still down.
			logger.Warn("backfill embedding failed",
				zap.String("chunk_id", chunk.ID), zap.Error(err))
			break
		}
		if err := j.chunks.UpdateEmbedding(ctx, chunk.ID, embedding); err != nil {
			logger.Error("backfill update failed",
				zap.String("chunk_id", chunk.ID), zap.Error(err))
			continue
		}
		repaired++
	}
	logger.Info("embedding backfill pass",
		zap.Int("pending", len(pending)), zap.Int("repaired", repaired))
	return nil
}

func (j *EmbeddingBackfillJob) embed(ctx context.Context, text string) ([]float32, error) {
	if j.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.embedTimeout)
		defer cancel()
	}
	return j.embedder.Embed(ctx, text, taskTypeDocument)
}
