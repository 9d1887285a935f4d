package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askbase/askbase/internal/pkg/errcode"
	"github.com/askbase/askbase/internal/pkg/response"
	"github.com/askbase/askbase/internal/rag"
	"github.com/askbase/askbase/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	ThreadID string `json:"thread_id"`
	Text     string `json:"text"`
	Retrieve *bool  `json:"retrieve"`
}

// Stream runs one turn and relays its events as server-sent events: zero or
// more delta events followed by exactly one of done, error or cancelled.
func (h *ChatHandler) Stream(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	retrieve := true
	if req.Retrieve != nil {
		retrieve = *req.Retrieve
	}

	events, err := h.chat.SubmitTurn(c.Request.Context(), req.ThreadID, req.Text, retrieve)
	if err != nil {
		handleError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, errcode.ErrInternal, "stream not supported")
		return
	}

	// The channel must be drained to the end even if the client is gone,
	// or the pipeline goroutine blocks on its terminal event.
	broken := false
	for ev := range events {
		if broken {
			continue
		}
		if err := writeEvent(c, flusher, ev); err != nil {
			logutil.GetLogger(c.Request.Context()).Info("client left mid-stream", zap.Error(err))
			broken = true
		}
	}
}

func writeEvent(c *gin.Context, flusher http.Flusher, ev rag.TurnEvent) error {
	name := ""
	switch ev.Type {
	case rag.EventDelta:
		name = "delta"
	case rag.EventCompleted:
		name = "done"
	case rag.EventFailed:
		name = "error"
	case rag.EventCancelled:
		name = "cancelled"
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := c.Writer.Write([]byte("event: " + name + "\ndata: " + string(payload) + "\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func (h *ChatHandler) History(c *gin.Context) {
	msgs, err := h.chat.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"messages": msgs})
}
