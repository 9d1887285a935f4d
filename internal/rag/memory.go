package rag

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askbase/askbase/internal/model"
)

const (
	DefaultSummarizeTrigger = 12
	DefaultSummarizeKeep    = 4
)

const summarizeInstruction = `Condense the following conversation into one short summary.
- Preserve facts, names, decisions and open questions.
- Use the same language as the conversation.
- Output ONLY the summary text.`

// Memory manages a thread's message log. Once the log grows past trigger,
// the older prefix is collapsed into a single summary message followed by
// the keep most recent verbatim messages.
type Memory struct {
	store   MessageStore
	gen     Generator
	trigger int
	keep    int
	now     func() int64
}

func NewMemory(store MessageStore, gen Generator, trigger, keep int) *Memory {
	if trigger <= 0 {
		trigger = DefaultSummarizeTrigger
	}
	if keep <= 0 {
		keep = DefaultSummarizeKeep
	}
	return &Memory{
		store:   store,
		gen:     gen,
		trigger: trigger,
		keep:    keep,
		now:     func() int64 { return time.Now().UnixMilli() },
	}
}

func (m *Memory) Append(ctx context.Context, threadID, role, content string) (model.Message, error) {
	return m.store.Append(ctx, threadID, model.Message{
		Role:    role,
		Content: content,
		Ctime:   m.now(),
	})
}

func (m *Memory) Log(ctx context.Context, threadID string) ([]model.Message, error) {
	return m.store.List(ctx, threadID)
}

// MaybeSummarize collapses the log when it exceeds the trigger length.
// It is idempotent: a freshly collapsed log is at most keep+1 messages and
// stays under the trigger, so a repeated call is a no-op. Failure never
// loses messages; the untouched log is kept and a warning is logged.
func (m *Memory) MaybeSummarize(ctx context.Context, threadID string) (bool, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("thread_id", threadID))
	log, err := m.store.List(ctx, threadID)
	if err != nil {
		logger.Warn("summarize skipped: load log failed", zap.Error(err))
		return false, nil
	}
	if len(log) <= m.trigger {
		return false, nil
	}

	dropped := log[:len(log)-m.keep]
	kept := log[len(log)-m.keep:]

	summaryText, err := m.gen.Generate(ctx, summarizeInstruction, toChatMessages(dropped))
	if err != nil || strings.TrimSpace(summaryText) == "" {
		logger.Warn("summarization failed, keeping full log",
			zap.Int("log_len", len(log)), zap.Error(err))
		return false, nil
	}

	summary := model.Message{
		Role:    model.RoleSummary,
		Content: strings.TrimSpace(summaryText),
		Ctime:   m.now(),
	}
	if err := m.store.ReplaceWithSummary(ctx, threadID, summary, kept); err != nil {
		logger.Warn("summary store failed, keeping full log", zap.Error(err))
		return false, nil
	}
	logger.Info("conversation summarized",
		zap.Int("dropped", len(dropped)), zap.Int("kept", len(kept)))
	return true, nil
}
