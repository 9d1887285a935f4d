package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/askbase/askbase/internal/service"
)

type FileHandler struct {
	documents *service.DocumentService
}

func NewFileHandler(documents *service.DocumentService) *FileHandler {
	return &FileHandler{documents: documents}
}

// Download streams the originally uploaded bytes of a document.
func (h *FileHandler) Download(c *gin.Context) {
	rc, doc, err := h.documents.OpenFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Type", doc.MimeType)
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Status(200)
	_, _ = io.Copy(c.Writer, rc)
}
