package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/askbase/askbase/internal/model"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// PutDocument stores a document together with all of its chunks in one
// transaction: retrieval sees either the whole document or none of it.
func (r *ChunkRepo) PutDocument(ctx context.Context, doc *model.Document, chunks []model.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var threadID interface{}
	if id, ok := doc.Visibility.ThreadID(); ok {
		threadID = id
	}
	const insertDoc = `
		INSERT INTO documents (id, filename, content, byte_size, mime_type, source_url, thread_id, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := tx.ExecContext(ctx, insertDoc,
		doc.ID, doc.Filename, doc.Content, doc.ByteSize, doc.MimeType, doc.SourceURL, threadID, doc.Ctime,
	); err != nil {
		return err
	}

	const insertChunk = `
		INSERT INTO chunks (id, document_id, ordinal, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, chunk := range chunks {
		var embedding interface{}
		if chunk.Embedding != nil {
			embedding = pgvector.NewVector(chunk.Embedding)
		}
		if _, err := tx.ExecContext(ctx, insertChunk,
			chunk.ID, chunk.DocumentID, chunk.Ordinal, chunk.Content, embedding,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Query returns up to limit chunk candidates visible to scope, scored by
// cosine similarity against queryVec. Scoped documents of other threads are
// never returned; an empty scope sees only global documents.
func (r *ChunkRepo) Query(ctx context.Context, scope string, queryVec []float32, limit int) ([]model.RetrievalResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	const query = `
		SELECT c.id, c.document_id, c.ordinal, c.content, d.filename,
		       1 - (c.embedding <=> $1) AS score
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL
		  AND (d.thread_id IS NULL OR d.thread_id = $2)
		ORDER BY c.embedding <=> $1 ASC, c.ordinal ASC, c.document_id ASC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(queryVec), scope, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.RetrievalResult
	for rows.Next() {
		var item model.RetrievalResult
		if err := rows.Scan(
			&item.Chunk.ID, &item.Chunk.DocumentID, &item.Chunk.Ordinal,
			&item.Chunk.Content, &item.Filename, &item.Score,
		); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

// ListUnembedded returns chunks whose embedding is still missing, typically
// after a degraded ingest. The backfill job repairs them.
func (r *ChunkRepo) ListUnembedded(ctx context.Context, limit int) ([]model.Chunk, error) {
	const query = `
		SELECT id, document_id, ordinal, content
		FROM chunks
		WHERE embedding IS NULL
		ORDER BY document_id, ordinal
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chunks []model.Chunk
	for rows.Next() {
		var chunk model.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Ordinal, &chunk.Content); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (r *ChunkRepo) UpdateEmbedding(ctx context.Context, chunkID string, embedding []float32) error {
	const query = `UPDATE chunks SET embedding = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, pgvector.NewVector(embedding), chunkID)
	return err
}
