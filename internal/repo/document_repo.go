package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/askbase/askbase/internal/model"
	"github.com/askbase/askbase/internal/pkg/dbutil"
	appErr "github.com/askbase/askbase/internal/pkg/errors"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

var documentFields = []string{"id", "filename", "byte_size", "mime_type", "source_url", "thread_id", "ctime"}

func scanDocument(scanner interface{ Scan(...interface{}) error }) (*model.Document, error) {
	var doc model.Document
	var threadID sql.NullString
	if err := scanner.Scan(&doc.ID, &doc.Filename, &doc.ByteSize, &doc.MimeType, &doc.SourceURL, &threadID, &doc.Ctime); err != nil {
		return nil, err
	}
	if threadID.Valid {
		doc.Visibility = model.ScopedTo(threadID.String)
	} else {
		doc.Visibility = model.GlobalVisibility()
	}
	return &doc, nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*model.Document, error) {
	where := map[string]interface{}{"id": id}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	doc, err := scanDocument(r.db.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	return doc, err
}

// ListVisible lists documents retrievable from scope: global documents plus
// the ones scoped to that thread. An empty scope lists only globals.
func (r *DocumentRepo) ListVisible(ctx context.Context, scope string) ([]model.Document, error) {
	const query = `
		SELECT id, filename, byte_size, mime_type, source_url, thread_id, ctime
		FROM documents
		WHERE thread_id IS NULL OR thread_id = $1
		ORDER BY ctime DESC
	`
	rows, err := r.db.QueryContext(ctx, query, scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// ListByThread lists only the documents scoped to one thread.
func (r *DocumentRepo) ListByThread(ctx context.Context, threadID string) ([]model.Document, error) {
	const query = `
		SELECT id, filename, byte_size, mime_type, source_url, thread_id, ctime
		FROM documents
		WHERE thread_id = $1
		ORDER BY ctime DESC
	`
	rows, err := r.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// Delete removes a document; its chunks go with it via the FK cascade.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) DeleteByThread(ctx context.Context, threadID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE thread_id = $1`, threadID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
