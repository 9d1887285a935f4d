package rag

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askbase/askbase/internal/model"
)

const DefaultRewriteWindow = 3

const rewriteInstruction = `Rephrase the latest user message into a standalone, context-free search query.
- Resolve pronouns and references using the earlier messages.
- Keep the user's language.
- Output ONLY the rewritten query, nothing else.`

// Rewriter turns the latest user turn into a standalone search query. The
// rewritten query is an internal artifact: it is never persisted or shown
// to the user.
type Rewriter struct {
	gen    Generator
	window int
}

func NewRewriter(gen Generator, window int) *Rewriter {
	if window <= 0 {
		window = DefaultRewriteWindow
	}
	return &Rewriter{gen: gen, window: window}
}

// Rewrite returns the standalone query for the log's latest user message.
// First turns and logs not ending in a user message pass through literally
// without a model call; so does any rewrite failure.
func (r *Rewriter) Rewrite(ctx context.Context, log []model.Message) string {
	if len(log) == 0 {
		return ""
	}
	last := log[len(log)-1]
	if len(log) <= 1 || last.Role != model.RoleUser {
		return last.Content
	}

	window := log
	if len(window) > r.window {
		window = window[len(window)-r.window:]
	}
	rewritten, err := r.gen.Generate(ctx, rewriteInstruction, toChatMessages(window))
	if err != nil {
		logutil.GetLogger(ctx).Warn("query rewrite failed, using literal text", zap.Error(err))
		return last.Content
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return last.Content
	}
	return rewritten
}
