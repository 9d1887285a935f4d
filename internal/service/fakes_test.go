package service

import (
	"bytes"
	"context"
	"io"

	"github.com/askbase/askbase/internal/filestore"
	"github.com/askbase/askbase/internal/model"
	appErr "github.com/askbase/askbase/internal/pkg/errors"
)

type fakeFileStore struct {
	saved     map[string][]byte
	deleted   []string
	deleteErr error
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{saved: map[string][]byte{}}
}

func (f *fakeFileStore) Save(ctx context.Context, key string, r filestore.ReadSeekCloser, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.saved[key] = data
	return nil
}

func (f *fakeFileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.saved[key]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeFileStore) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.saved, key)
	return nil
}

type fakeDocumentWriter struct {
	doc    *model.Document
	chunks []model.Chunk
	err    error
}

func (f *fakeDocumentWriter) PutDocument(ctx context.Context, doc *model.Document, chunks []model.Chunk) error {
	if f.err != nil {
		return f.err
	}
	f.doc = doc
	f.chunks = chunks
	return nil
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embedder" }

type fakeThreadStore struct {
	threads map[string]*model.Thread
	deleted []string
}

func (f *fakeThreadStore) GetByID(ctx context.Context, threadID string) (*model.Thread, error) {
	t, ok := f.threads[threadID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return t, nil
}

func (f *fakeThreadStore) List(ctx context.Context) ([]model.Thread, error) {
	var out []model.Thread
	for _, t := range f.threads {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeThreadStore) Delete(ctx context.Context, threadID string) error {
	if _, ok := f.threads[threadID]; !ok {
		return appErr.ErrNotFound
	}
	delete(f.threads, threadID)
	f.deleted = append(f.deleted, threadID)
	return nil
}

type fakeThreadMessageStore struct {
	counts map[string]int64
}

func (f *fakeThreadMessageStore) DeleteByThread(ctx context.Context, threadID string) (int64, error) {
	n := f.counts[threadID]
	delete(f.counts, threadID)
	return n, nil
}

type fakeThreadDocumentStore struct {
	byThread map[string][]model.Document
}

func (f *fakeThreadDocumentStore) ListByThread(ctx context.Context, threadID string) ([]model.Document, error) {
	return f.byThread[threadID], nil
}

func (f *fakeThreadDocumentStore) DeleteByThread(ctx context.Context, threadID string) (int64, error) {
	n := int64(len(f.byThread[threadID]))
	delete(f.byThread, threadID)
	return n, nil
}
