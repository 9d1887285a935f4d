package handler

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/askbase/askbase/internal/model"
	"github.com/askbase/askbase/internal/pkg/errcode"
	"github.com/askbase/askbase/internal/pkg/response"
	"github.com/askbase/askbase/internal/service"
)

type DocumentHandler struct {
	ingest    *service.IngestService
	documents *service.DocumentService
}

func NewDocumentHandler(ingest *service.IngestService, documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest, documents: documents}
}

type documentView struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	ByteSize int64  `json:"byte_size"`
	MimeType string `json:"mime_type"`
	ThreadID string `json:"thread_id,omitempty"`
	Ctime    int64  `json:"ctime"`
}

func toDocumentView(doc *model.Document) documentView {
	view := documentView{
		ID:       doc.ID,
		Filename: doc.Filename,
		ByteSize: doc.ByteSize,
		MimeType: doc.MimeType,
		Ctime:    doc.Ctime,
	}
	if threadID, ok := doc.Visibility.ThreadID(); ok {
		view.ThreadID = threadID
	}
	return view
}

// Upload ingests one file from a multipart form. An optional thread_id form
// field scopes the document to that thread; without it the document is
// global.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "file is required")
		return
	}
	if fileHeader.Size > service.MaxUploadBytes {
		response.Error(c, errcode.ErrInvalidFile, "file too large")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "open upload failed")
		return
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, service.MaxUploadBytes+1))
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "read upload failed")
		return
	}
	if int64(len(content)) > service.MaxUploadBytes {
		response.Error(c, errcode.ErrInvalidFile, "file too large")
		return
	}

	visibility := model.GlobalVisibility()
	if threadID := strings.TrimSpace(c.PostForm("thread_id")); threadID != "" {
		visibility = model.ScopedTo(threadID)
	}

	doc, err := h.ingest.Ingest(c.Request.Context(), service.IngestRequest{
		Filename:   fileHeader.Filename,
		SourceURL:  strings.TrimSpace(c.PostForm("source_url")),
		Content:    content,
		Visibility: visibility,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, toDocumentView(doc))
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), strings.TrimSpace(c.Query("thread_id")))
	if err != nil {
		handleError(c, err)
		return
	}
	views := make([]documentView, 0, len(docs))
	for i := range docs {
		views = append(views, toDocumentView(&docs[i]))
	}
	response.Success(c, gin.H{"documents": views})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, toDocumentView(doc))
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
