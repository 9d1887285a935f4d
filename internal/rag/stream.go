package rag

import "context"

type EventType int

const (
	EventDelta EventType = iota
	EventCompleted
	EventFailed
	EventCancelled
)

// Failure kinds carried by EventFailed.
const (
	FailKindGeneration = "generation_failure"
	FailKindInternal   = "internal"
)

// TurnEvent is one element of a turn's event stream: zero or more deltas
// followed by exactly one terminal event (completed, failed or cancelled).
// Events never carry rewritten queries or similarity scores.
type TurnEvent struct {
	Type     EventType `json:"type"`
	Delta    string    `json:"delta,omitempty"`
	Text     string    `json:"text,omitempty"`
	TurnID   string    `json:"turn_id,omitempty"`
	FailKind string    `json:"fail_kind,omitempty"`
}

func (t EventType) Terminal() bool {
	return t != EventDelta
}

// emitter serializes events onto the turn's channel and guarantees the
// exactly-one-terminal contract even if stages report multiple failures.
type emitter struct {
	ch         chan TurnEvent
	terminated bool
}

func newEmitter(buffer int) *emitter {
	if buffer <= 0 {
		buffer = 16
	}
	return &emitter{ch: make(chan TurnEvent, buffer)}
}

// events is the single-consumption stream for one turn. The consumer must
// drain it until close, even after it stops caring about the payload.
func (e *emitter) events() <-chan TurnEvent {
	return e.ch
}

// delta forwards one token fragment. It backs off to ctx so a consumer that
// went away cannot wedge the pipeline goroutine.
func (e *emitter) delta(ctx context.Context, text string) error {
	if e.terminated {
		return nil
	}
	select {
	case e.ch <- TurnEvent{Type: EventDelta, Delta: text}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *emitter) completed(text, turnID string) {
	e.terminal(TurnEvent{Type: EventCompleted, Text: text, TurnID: turnID})
}

func (e *emitter) failed(kind string) {
	e.terminal(TurnEvent{Type: EventFailed, FailKind: kind})
}

func (e *emitter) cancelled() {
	e.terminal(TurnEvent{Type: EventCancelled})
}

func (e *emitter) terminal(ev TurnEvent) {
	if e.terminated {
		return
	}
	e.terminated = true
	e.ch <- ev
	close(e.ch)
}
