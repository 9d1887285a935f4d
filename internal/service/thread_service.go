package service

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askbase/askbase/internal/filestore"
	"github.com/askbase/askbase/internal/model"
	appErr "github.com/askbase/askbase/internal/pkg/errors"
)

type threadStore interface {
	GetByID(ctx context.Context, threadID string) (*model.Thread, error)
	List(ctx context.Context) ([]model.Thread, error)
	Delete(ctx context.Context, threadID string) error
}

type threadMessageStore interface {
	DeleteByThread(ctx context.Context, threadID string) (int64, error)
}

type threadDocumentStore interface {
	ListByThread(ctx context.Context, threadID string) ([]model.Document, error)
	DeleteByThread(ctx context.Context, threadID string) (int64, error)
}

// ThreadService manages conversation threads and their teardown. Deleting a
// thread removes its messages, its scoped documents and their stored files;
// global documents are untouched.
type ThreadService struct {
	threads  threadStore
	messages threadMessageStore
	docs     threadDocumentStore
	files    filestore.Store
}

func NewThreadService(threads threadStore, messages threadMessageStore,
	docs threadDocumentStore, files filestore.Store) *ThreadService {
	return &ThreadService{threads: threads, messages: messages, docs: docs, files: files}
}

func (s *ThreadService) List(ctx context.Context) ([]model.Thread, error) {
	return s.threads.List(ctx)
}

func (s *ThreadService) Get(ctx context.Context, threadID string) (*model.Thread, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, appErr.ErrInvalid
	}
	return s.threads.GetByID(ctx, threadID)
}

func (s *ThreadService) Delete(ctx context.Context, threadID string) error {
	if strings.TrimSpace(threadID) == "" {
		return appErr.ErrInvalid
	}
	if _, err := s.threads.GetByID(ctx, threadID); err != nil {
		return err
	}
	// Capture the scoped documents before their rows go away; the stored
	// file keys are derived from them.
	scoped, err := s.docs.ListByThread(ctx, threadID)
	if err != nil {
		return err
	}
	msgs, err := s.messages.DeleteByThread(ctx, threadID)
	if err != nil {
		return err
	}
	docs, err := s.docs.DeleteByThread(ctx, threadID)
	if err != nil {
		return err
	}
	if err := s.threads.Delete(ctx, threadID); err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("thread_id", threadID))
	for i := range scoped {
		doc := &scoped[i]
		if err := s.files.Delete(ctx, documentFileKey(doc)); err != nil {
			logger.Warn("delete stored file failed",
				zap.String("document_id", doc.ID), zap.Error(err))
		}
	}
	logger.Info("thread deleted",
		zap.Int64("messages", msgs),
		zap.Int64("scoped_documents", docs))
	return nil
}
