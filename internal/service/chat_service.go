package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/askbase/askbase/internal/model"
	appErr "github.com/askbase/askbase/internal/pkg/errors"
	"github.com/askbase/askbase/internal/rag"
	"github.com/askbase/askbase/internal/repo"
)

// MaxTurnTextLen bounds a single user turn. Larger inputs are rejected
// before they reach the pipeline.
const MaxTurnTextLen = 8192

// ChatService fronts the answer pipeline: it validates the turn, keeps the
// thread row fresh and hands the stream back to the transport layer.
type ChatService struct {
	pipeline *rag.Pipeline
	threads  *repo.ThreadRepo
	messages *repo.MessageRepo
}

func NewChatService(pipeline *rag.Pipeline, threads *repo.ThreadRepo, messages *repo.MessageRepo) *ChatService {
	return &ChatService{pipeline: pipeline, threads: threads, messages: messages}
}

// SubmitTurn runs one turn on a thread. retrieve controls whether the turn
// is grounded in the document corpus; without it the model answers from
// conversation memory alone.
func (s *ChatService) SubmitTurn(ctx context.Context, threadID, text string, retrieve bool) (<-chan rag.TurnEvent, error) {
	threadID = strings.TrimSpace(threadID)
	text = strings.TrimSpace(text)
	if threadID == "" || text == "" {
		return nil, appErr.ErrInvalid
	}
	if utf8.RuneCountInString(text) > MaxTurnTextLen {
		return nil, appErr.ErrInvalid
	}
	if err := s.threads.Touch(ctx, threadID, time.Now().UnixMilli()); err != nil {
		return nil, err
	}
	scope := ""
	if retrieve {
		scope = threadID
	}
	return s.pipeline.SubmitTurn(ctx, rag.TurnRequest{
		ThreadID: threadID,
		Text:     text,
		Scope:    scope,
	})
}

// History returns the thread's current message log, summary included.
func (s *ChatService) History(ctx context.Context, threadID string) ([]model.Message, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, appErr.ErrInvalid
	}
	if _, err := s.threads.GetByID(ctx, threadID); err != nil {
		return nil, err
	}
	return s.messages.List(ctx, threadID)
}
