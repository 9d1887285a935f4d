package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askbase/askbase/internal/ai"
	"github.com/askbase/askbase/internal/model"
	appErr "github.com/askbase/askbase/internal/pkg/errors"
)

func TestIngestServiceRejectsBadUploads(t *testing.T) {
	// Rejection paths run before any store or provider access.
	s := NewIngestService(nil, ai.NewChunker(), nil, nil, 0)

	_, err := s.Ingest(context.Background(), IngestRequest{Filename: "", Content: []byte("x")})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = s.Ingest(context.Background(), IngestRequest{Filename: "notes.md", Content: nil})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = s.Ingest(context.Background(), IngestRequest{Filename: "image.png", Content: []byte("x")})
	require.ErrorIs(t, err, appErr.ErrUnsupported)

	oversized := bytes.Repeat([]byte("a"), MaxUploadBytes+1)
	_, err = s.Ingest(context.Background(), IngestRequest{Filename: "big.md", Content: oversized})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestIngestServiceRejectsEmptyText(t *testing.T) {
	s := NewIngestService(nil, ai.NewChunker(), nil, nil, 0)
	_, err := s.Ingest(context.Background(), IngestRequest{Filename: "blank.md", Content: []byte("  \n\n  ")})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestIngestServiceStoresFileAndChunks(t *testing.T) {
	writer := &fakeDocumentWriter{}
	files := newFakeFileStore()
	s := NewIngestService(writer, ai.NewChunker(), &fakeEmbedder{vec: []float32{0.1, 0.2}}, files, 0)

	doc, err := s.Ingest(context.Background(), IngestRequest{
		Filename:   "Notes.MD",
		Content:    []byte("# Heading\n\nsome indexable text"),
		Visibility: model.GlobalVisibility(),
	})
	require.NoError(t, err)
	require.Equal(t, writer.doc, doc)
	require.NotEmpty(t, writer.chunks)
	for _, c := range writer.chunks {
		require.Equal(t, doc.ID, c.DocumentID)
		require.Equal(t, []float32{0.1, 0.2}, c.Embedding)
	}
	require.Contains(t, files.saved, doc.ID+".md")
}

func TestIngestServiceCleansUpFileWhenCommitFails(t *testing.T) {
	writer := &fakeDocumentWriter{err: errors.New("tx aborted")}
	files := newFakeFileStore()
	s := NewIngestService(writer, ai.NewChunker(), &fakeEmbedder{vec: []float32{0.5}}, files, 0)

	_, err := s.Ingest(context.Background(), IngestRequest{
		Filename: "notes.md",
		Content:  []byte("some indexable text"),
	})
	require.Error(t, err)
	require.Len(t, files.deleted, 1)
	require.Empty(t, files.saved)
}
