package model

// Chunk is a bounded span of a document's text. Ordinal is unique and
// increasing within the owning document; Embedding is nil until the chunk
// has been embedded (a degraded ingest leaves it for the backfill job).
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Ordinal    int       `json:"ordinal"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
}

// RetrievalResult is one ranked chunk. Score is cosine similarity in
// [-1, 1], higher is better.
type RetrievalResult struct {
	Chunk    Chunk   `json:"chunk"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}
