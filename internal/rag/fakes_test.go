package rag

import (
	"context"
	"errors"
	"sync"

	"github.com/askbase/askbase/internal/ai"
	"github.com/askbase/askbase/internal/model"
)

var errFakeDown = errors.New("fake backend down")

// fakeMessageStore keeps per-thread logs in memory with the same seq
// semantics as the real store.
type fakeMessageStore struct {
	mu       sync.Mutex
	logs     map[string][]model.Message
	failNext bool
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{logs: map[string][]model.Message{}}
}

func (s *fakeMessageStore) Append(ctx context.Context, threadID string, msg model.Message) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return model.Message{}, errFakeDown
	}
	msg.ThreadID = threadID
	msg.Seq = int64(len(s.logs[threadID]) + 1)
	s.logs[threadID] = append(s.logs[threadID], msg)
	return msg, nil
}

func (s *fakeMessageStore) List(ctx context.Context, threadID string) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.logs[threadID]))
	copy(out, s.logs[threadID])
	return out, nil
}

func (s *fakeMessageStore) ReplaceWithSummary(ctx context.Context, threadID string, summary model.Message, keep []model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return errFakeDown
	}
	log := make([]model.Message, 0, len(keep)+1)
	summary.ThreadID = threadID
	summary.Seq = 1
	log = append(log, summary)
	for i, msg := range keep {
		msg.Seq = int64(i + 2)
		log = append(log, msg)
	}
	s.logs[threadID] = log
	return nil
}

// fakeGenerator returns canned text and records every call.
type fakeGenerator struct {
	mu       sync.Mutex
	reply    string
	err      error
	deltas   []string
	calls    int
	lastMsgs []ai.ChatMessage
}

func (g *fakeGenerator) Generate(ctx context.Context, instruction string, msgs []ai.ChatMessage) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastMsgs = msgs
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *fakeGenerator) GenerateStream(ctx context.Context, instruction string, msgs []ai.ChatMessage, onDelta func(delta string) error) (string, error) {
	g.mu.Lock()
	g.calls++
	g.lastMsgs = msgs
	deltas, err, reply := g.deltas, g.err, g.reply
	g.mu.Unlock()
	if err != nil {
		return "", err
	}
	full := ""
	for _, d := range deltas {
		if ctx.Err() != nil {
			return full, ctx.Err()
		}
		if cbErr := onDelta(d); cbErr != nil {
			return full, cbErr
		}
		full += d
	}
	if len(deltas) == 0 {
		return reply, nil
	}
	return full, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vec, nil
}

type fakeChunkStore struct {
	results   []model.RetrievalResult
	err       error
	lastScope string
	lastLimit int
}

func (s *fakeChunkStore) Query(ctx context.Context, scope string, queryVec []float32, limit int) ([]model.RetrievalResult, error) {
	s.lastScope = scope
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	out := s.results
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
