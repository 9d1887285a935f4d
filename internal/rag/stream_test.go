package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitterDeliversDeltasThenTerminal(t *testing.T) {
	em := newEmitter(4)
	require.NoError(t, em.delta(context.Background(), "a"))
	require.NoError(t, em.delta(context.Background(), "b"))
	em.completed("ab", "turn-1")

	var got []TurnEvent
	for ev := range em.events() {
		got = append(got, ev)
	}
	require.Len(t, got, 3)
	require.Equal(t, EventDelta, got[0].Type)
	require.Equal(t, "a", got[0].Delta)
	require.Equal(t, EventCompleted, got[2].Type)
	require.Equal(t, "ab", got[2].Text)
	require.Equal(t, "turn-1", got[2].TurnID)
}

func TestEmitterExactlyOneTerminal(t *testing.T) {
	em := newEmitter(4)
	em.failed(FailKindGeneration)
	em.cancelled()
	em.completed("late", "turn-x")

	var got []TurnEvent
	for ev := range em.events() {
		got = append(got, ev)
	}
	require.Len(t, got, 1)
	require.Equal(t, EventFailed, got[0].Type)
	require.Equal(t, FailKindGeneration, got[0].FailKind)
}

func TestEmitterDeltaAfterTerminalIsDropped(t *testing.T) {
	em := newEmitter(4)
	em.cancelled()
	require.NoError(t, em.delta(context.Background(), "ghost"))

	var got []TurnEvent
	for ev := range em.events() {
		got = append(got, ev)
	}
	require.Len(t, got, 1)
	require.Equal(t, EventCancelled, got[0].Type)
}

func TestEmitterDeltaBacksOffOnCancelledContext(t *testing.T) {
	em := newEmitter(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, em.delta(context.Background(), "fills the buffer"))
	err := em.delta(ctx, "would block")
	require.ErrorIs(t, err, context.Canceled)
}

func TestEventTypeTerminal(t *testing.T) {
	require.False(t, EventDelta.Terminal())
	require.True(t, EventCompleted.Terminal())
	require.True(t, EventFailed.Terminal())
	require.True(t, EventCancelled.Terminal())
}
