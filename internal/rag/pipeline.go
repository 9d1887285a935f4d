package rag

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askbase/askbase/internal/model"
	appErr "github.com/askbase/askbase/internal/pkg/errors"
)

// TurnStage is the state of one turn moving through the pipeline.
type TurnStage int

const (
	StageReceived TurnStage = iota
	StageMemoryUpdated
	StageSummarized
	StageUnchanged
	StageQueryReady
	StageRetrieved
	StageSkipped
	StageContextAssembled
	StagePromptComposed
	StageGenerating
	StageCompleted
	StageFailed
	StageCancelled
)

var stageNames = map[TurnStage]string{
	StageReceived:         "received",
	StageMemoryUpdated:    "memory_updated",
	StageSummarized:       "summarized",
	StageUnchanged:        "unchanged",
	StageQueryReady:       "query_ready",
	StageRetrieved:        "retrieved",
	StageSkipped:          "skipped",
	StageContextAssembled: "context_assembled",
	StagePromptComposed:   "prompt_composed",
	StageGenerating:       "generating",
	StageCompleted:        "completed",
	StageFailed:           "failed",
	StageCancelled:        "cancelled",
}

func (s TurnStage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s TurnStage) Terminal() bool {
	return s == StageCompleted || s == StageFailed || s == StageCancelled
}

// Timeouts are the per-capability budgets. Embed, rewrite and summarize
// expiry degrade a turn; generate expiry fails it.
type Timeouts struct {
	Embed     time.Duration
	Rewrite   time.Duration
	Summarize time.Duration
	Generate  time.Duration
}

// TurnRequest is one inbound user turn. Scope is the thread whose scoped
// documents join the global corpus during retrieval; empty skips retrieval
// entirely.
type TurnRequest struct {
	ThreadID string
	Text     string
	Scope    string
}

// turnState is the shared record each stage transforms before handing off.
type turnState struct {
	req         TurnRequest
	turnID      string
	stage       TurnStage
	log         []model.Message
	query       string
	results     []model.RetrievalResult
	grounding   GroundingContext
	instruction string
	answer      string
}

type PipelineConfig struct {
	TopK           int
	Timeouts       Timeouts
	ThreadStateTTL time.Duration
	EventBuffer    int
}

// Pipeline sequences the stages of a turn: MemoryUpdate, MaybeSummarize,
// Rewrite, Retrieve (skipped without scope), Assemble, Compose, Generate.
// The stage order is fixed at build time.
//
// Turns on the same thread run strictly sequentially; turns on different
// threads run concurrently. Per-thread locks live in an expirable LRU so
// abandoned threads do not pin memory forever.
type Pipeline struct {
	memory    *Memory
	rewriter  *Rewriter
	retriever *Retriever
	gen       Generator
	cfg       PipelineConfig

	mu     sync.Mutex
	states *expirable.LRU[string, *threadState]
}

type threadState struct {
	mu sync.Mutex
}

func NewPipeline(memory *Memory, rewriter *Rewriter, retriever *Retriever, gen Generator, cfg PipelineConfig) *Pipeline {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.ThreadStateTTL <= 0 {
		cfg.ThreadStateTTL = time.Hour
	}
	return &Pipeline{
		memory:    memory,
		rewriter:  rewriter,
		retriever: retriever,
		gen:       gen,
		cfg:       cfg,
		states:    expirable.NewLRU[string, *threadState](4096, nil, cfg.ThreadStateTTL),
	}
}

// SubmitTurn validates the request and runs the turn asynchronously,
// returning its event stream. Validation failures reject before pipeline
// entry with no side effects.
func (p *Pipeline) SubmitTurn(ctx context.Context, req TurnRequest) (<-chan TurnEvent, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.ThreadID == "" || req.Text == "" {
		return nil, appErr.ErrInvalid
	}
	em := newEmitter(p.cfg.EventBuffer)
	go p.run(ctx, req, em)
	return em.events(), nil
}

func (p *Pipeline) run(ctx context.Context, req TurnRequest, em *emitter) {
	lock := p.threadLock(req.ThreadID)
	lock.Lock()
	defer lock.Unlock()

	st := &turnState{
		req:    req,
		turnID: uuid.NewString(),
		stage:  StageReceived,
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("thread_id", req.ThreadID),
		zap.String("turn_id", st.turnID),
	)

	type stage struct {
		name string
		fn   func(context.Context, *turnState) error
	}
	stages := []stage{
		{"memory_update", p.stageMemoryUpdate},
		{"maybe_summarize", p.stageMaybeSummarize},
		{"rewrite", p.stageRewrite},
		{"retrieve", p.stageRetrieve},
		{"assemble", p.stageAssemble},
		{"compose", p.stageCompose},
	}
	for _, s := range stages {
		if err := s.fn(ctx, st); err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info("turn cancelled", zap.String("stage", s.name))
				st.stage = StageCancelled
				em.cancelled()
				return
			}
			logger.Error("pipeline stage failed", zap.String("stage", s.name), zap.Error(err))
			st.stage = StageFailed
			em.failed(FailKindInternal)
			return
		}
	}

	p.stageGenerate(ctx, st, em, logger)
}

func (p *Pipeline) stageMemoryUpdate(ctx context.Context, st *turnState) error {
	if _, err := p.memory.Append(ctx, st.req.ThreadID, model.RoleUser, st.req.Text); err != nil {
		return err
	}
	st.stage = StageMemoryUpdated
	return nil
}

func (p *Pipeline) stageMaybeSummarize(ctx context.Context, st *turnState) error {
	sctx, cancel := withTimeout(ctx, p.cfg.Timeouts.Summarize)
	defer cancel()
	summarized, err := p.memory.MaybeSummarize(sctx, st.req.ThreadID)
	if err != nil {
		return err
	}
	if summarized {
		st.stage = StageSummarized
	} else {
		st.stage = StageUnchanged
	}
	log, err := p.memory.Log(ctx, st.req.ThreadID)
	if err != nil {
		return err
	}
	st.log = log
	return nil
}

func (p *Pipeline) stageRewrite(ctx context.Context, st *turnState) error {
	rctx, cancel := withTimeout(ctx, p.cfg.Timeouts.Rewrite)
	defer cancel()
	st.query = p.rewriter.Rewrite(rctx, st.log)
	st.stage = StageQueryReady
	return nil
}

func (p *Pipeline) stageRetrieve(ctx context.Context, st *turnState) error {
	if st.req.Scope == "" {
		st.stage = StageSkipped
		return nil
	}
	ectx, cancel := withTimeout(ctx, p.cfg.Timeouts.Embed)
	defer cancel()
	results, err := p.retriever.Retrieve(ectx, st.query, st.req.Scope, p.cfg.TopK)
	if err != nil {
		// Fail open: an unavailable retrieval path degrades the turn to
		// empty grounding instead of aborting it.
		logutil.GetLogger(ctx).Warn("retrieval unavailable, proceeding without grounding",
			zap.String("thread_id", st.req.ThreadID), zap.Error(err))
		results = nil
	}
	st.results = results
	st.stage = StageRetrieved
	return nil
}

func (p *Pipeline) stageAssemble(_ context.Context, st *turnState) error {
	st.grounding = Assemble(st.results)
	st.stage = StageContextAssembled
	return nil
}

func (p *Pipeline) stageCompose(_ context.Context, st *turnState) error {
	st.instruction = Compose(st.grounding.Text)
	st.stage = StagePromptComposed
	return nil
}

func (p *Pipeline) stageGenerate(ctx context.Context, st *turnState, em *emitter, logger *zap.Logger) {
	st.stage = StageGenerating
	gctx, cancel := withTimeout(ctx, p.cfg.Timeouts.Generate)
	defer cancel()

	answer, err := p.gen.GenerateStream(gctx, st.instruction, toChatMessages(st.log), func(delta string) error {
		return em.delta(ctx, delta)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			// Partial text reached the caller as deltas, best effort; the
			// turn is not completed and no assistant message is persisted.
			logger.Info("turn cancelled mid-generation", zap.Int("partial_len", len(answer)))
			st.stage = StageCancelled
			em.cancelled()
			return
		}
		logger.Error("generation failed", zap.Error(err))
		st.stage = StageFailed
		em.failed(FailKindGeneration)
		return
	}

	st.answer = answer
	// Persist with a fresh context: the client may disconnect right after
	// the final token, and the committed turn must survive that.
	if _, err := p.memory.Append(context.Background(), st.req.ThreadID, model.RoleAssistant, answer); err != nil {
		logger.Error("failed to persist assistant message", zap.Error(err))
		st.stage = StageFailed
		em.failed(FailKindInternal)
		return
	}
	st.stage = StageCompleted
	em.completed(answer, st.turnID)
}

// threadLock returns the serialization lock for a thread, refreshing its
// TTL in the state cache.
func (p *Pipeline) threadLock(threadID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	if state, ok := p.states.Get(threadID); ok {
		p.states.Add(threadID, state)
		return &state.mu
	}
	state := &threadState{}
	p.states.Add(threadID, state)
	return &state.mu
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
