package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askbase/askbase/internal/filestore"
	"github.com/askbase/askbase/internal/model"
	appErr "github.com/askbase/askbase/internal/pkg/errors"
	"github.com/askbase/askbase/internal/repo"
)

// documentFileKey is the storage key of a document's original upload.
func documentFileKey(doc *model.Document) string {
	return doc.ID + strings.ToLower(filepath.Ext(doc.Filename))
}

// DocumentService covers read and delete on the ingested corpus; ingestion
// itself lives in IngestService.
type DocumentService struct {
	docs  *repo.DocumentRepo
	files filestore.Store
}

func NewDocumentService(docs *repo.DocumentRepo, files filestore.Store) *DocumentService {
	return &DocumentService{docs: docs, files: files}
}

func (s *DocumentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErr.ErrInvalid
	}
	return s.docs.GetByID(ctx, id)
}

// List returns the documents visible to scope: global ones plus those
// scoped to that thread. An empty scope lists only global documents.
func (s *DocumentService) List(ctx context.Context, scope string) ([]model.Document, error) {
	return s.docs.ListVisible(ctx, scope)
}

// Delete removes the document row (chunks go with it) and best-effort
// removes the stored file.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.files.Delete(ctx, documentFileKey(doc)); err != nil {
		logutil.GetLogger(ctx).Warn("delete stored file failed",
			zap.String("document_id", id), zap.Error(err))
	}
	return nil
}

// OpenFile streams the original uploaded bytes.
func (s *DocumentService) OpenFile(ctx context.Context, id string) (io.ReadCloser, *model.Document, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.files.Open(ctx, documentFileKey(doc))
	if err != nil {
		return nil, nil, err
	}
	return rc, doc, nil
}
