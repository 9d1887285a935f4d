package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askbase/askbase/internal/ai"
	"github.com/askbase/askbase/internal/filestore"
	"github.com/askbase/askbase/internal/model"
	appErr "github.com/askbase/askbase/internal/pkg/errors"
)

const (
	// taskTypeDocument marks corpus-side embeddings for providers that
	// distinguish retrieval task types.
	taskTypeDocument = "RETRIEVAL_DOCUMENT"

	MaxUploadBytes = 4 << 20
)

var allowedExts = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
}

type documentWriter interface {
	PutDocument(ctx context.Context, doc *model.Document, chunks []model.Chunk) error
}

// IngestService turns an uploaded file into a retrievable document: raw
// bytes to the file store, text split into chunks, each chunk embedded and
// the whole document committed in one transaction. Embedding failures
// degrade rather than abort: the chunk lands without a vector and the
// backfill job repairs it later.
type IngestService struct {
	chunks       documentWriter
	chunker      *ai.Chunker
	embedder     ai.IEmbedder
	files        filestore.Store
	embedTimeout time.Duration
}

type IngestRequest struct {
	Filename   string
	SourceURL  string
	Content    []byte
	Visibility model.Visibility
}

func NewIngestService(chunks documentWriter, chunker *ai.Chunker,
	embedder ai.IEmbedder, files filestore.Store, embedTimeout time.Duration) *IngestService {
	return &IngestService{
		chunks:       chunks,
		chunker:      chunker,
		embedder:     embedder,
		files:        files,
		embedTimeout: embedTimeout,
	}
}

func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (*model.Document, error) {
	filename := strings.TrimSpace(filepath.Base(req.Filename))
	if filename == "" || filename == "." || len(req.Content) == 0 {
		return nil, appErr.ErrInvalid
	}
	if len(req.Content) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", appErr.ErrInvalid, MaxUploadBytes)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	mimeType, ok := allowedExts[ext]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported file type %s", appErr.ErrUnsupported, ext)
	}

	doc := &model.Document{
		ID:         newID(),
		Filename:   filename,
		Content:    string(req.Content),
		ByteSize:   int64(len(req.Content)),
		MimeType:   mimeType,
		SourceURL:  req.SourceURL,
		Visibility: req.Visibility,
		Ctime:      time.Now().UnixMilli(),
	}

	spans := s.chunker.Chunk(ctx, doc.Content)
	if len(spans) == 0 {
		return nil, fmt.Errorf("%w: file has no indexable text", appErr.ErrInvalid)
	}

	logger := logutil.GetLogger(ctx).With(
		zap.String("document_id", doc.ID), zap.String("filename", filename))

	chunks := make([]model.Chunk, 0, len(spans))
	degraded := 0
	for _, span := range spans {
		embedding, err := s.embedChunk(ctx, span.Content)
		if err != nil {
			logger.Warn("chunk embedding failed, deferring to backfill",
				zap.Int("ordinal", span.Ordinal), zap.Error(err))
			embedding = nil
			degraded++
		}
		chunks = append(chunks, model.Chunk{
			ID:         newID(),
			DocumentID: doc.ID,
			Ordinal:    span.Ordinal,
			Content:    span.Content,
			Embedding:  embedding,
		})
	}

	key := documentFileKey(doc)
	if err := s.saveFile(ctx, key, req.Content); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}
	if err := s.chunks.PutDocument(ctx, doc, chunks); err != nil {
		// The rows never landed, so nothing references the stored file.
		if derr := s.files.Delete(ctx, key); derr != nil {
			logger.Warn("delete stored file failed", zap.Error(derr))
		}
		return nil, err
	}
	logger.Info("document ingested",
		zap.Int("chunks", len(chunks)), zap.Int("unembedded", degraded),
		zap.Bool("global", doc.Visibility.IsGlobal()))
	return doc, nil
}

func (s *IngestService) embedChunk(ctx context.Context, text string) ([]float32, error) {
	ectx := ctx
	if s.embedTimeout > 0 {
		var cancel context.CancelFunc
		ectx, cancel = context.WithTimeout(ctx, s.embedTimeout)
		defer cancel()
	}
	return s.embedder.Embed(ectx, text, taskTypeDocument)
}

func (s *IngestService) saveFile(ctx context.Context, key string, content []byte) error {
	return s.files.Save(ctx, key, nopSeekCloser{bytes.NewReader(content)}, int64(len(content)))
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }
