package rag

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askbase/askbase/internal/model"
)

func fillThread(t *testing.T, m *Memory, threadID string, turns int) {
	t.Helper()
	for i := 0; i < turns; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		_, err := m.Append(context.Background(), threadID, role, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}
}

func TestMemoryMaybeSummarize_CollapsesLongLog(t *testing.T) {
	store := newFakeMessageStore()
	gen := &fakeGenerator{reply: "summary of the early talk"}
	m := NewMemory(store, gen, 12, 4)
	fillThread(t, m, "t1", 13)

	summarized, err := m.MaybeSummarize(context.Background(), "t1")
	require.NoError(t, err)
	require.True(t, summarized)

	log, err := m.Log(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, log, 5)
	require.Equal(t, model.RoleSummary, log[0].Role)
	require.Equal(t, "summary of the early talk", log[0].Content)
	require.Equal(t, "message 9", log[1].Content)
	require.Equal(t, "message 12", log[4].Content)
}

func TestMemoryMaybeSummarize_NoOpUnderTrigger(t *testing.T) {
	store := newFakeMessageStore()
	gen := &fakeGenerator{reply: "should not be called"}
	m := NewMemory(store, gen, 12, 4)
	fillThread(t, m, "t1", 11)

	summarized, err := m.MaybeSummarize(context.Background(), "t1")
	require.NoError(t, err)
	require.False(t, summarized)
	require.Zero(t, gen.callCount())

	log, err := m.Log(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, log, 11)
}

func TestMemoryMaybeSummarize_Idempotent(t *testing.T) {
	store := newFakeMessageStore()
	gen := &fakeGenerator{reply: "summary"}
	m := NewMemory(store, gen, 12, 4)
	fillThread(t, m, "t1", 13)

	summarized, err := m.MaybeSummarize(context.Background(), "t1")
	require.NoError(t, err)
	require.True(t, summarized)

	again, err := m.MaybeSummarize(context.Background(), "t1")
	require.NoError(t, err)
	require.False(t, again)
	require.Equal(t, 1, gen.callCount())
}

func TestMemoryMaybeSummarize_FailureKeepsFullLog(t *testing.T) {
	store := newFakeMessageStore()
	gen := &fakeGenerator{err: errFakeDown}
	m := NewMemory(store, gen, 12, 4)
	fillThread(t, m, "t1", 13)

	summarized, err := m.MaybeSummarize(context.Background(), "t1")
	require.NoError(t, err)
	require.False(t, summarized)

	log, err := m.Log(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, log, 13)
	for _, msg := range log {
		require.NotEqual(t, model.RoleSummary, msg.Role)
	}
}

func TestMemoryMaybeSummarize_EmptySummaryKeepsFullLog(t *testing.T) {
	store := newFakeMessageStore()
	gen := &fakeGenerator{reply: "   "}
	m := NewMemory(store, gen, 12, 4)
	fillThread(t, m, "t1", 13)

	summarized, err := m.MaybeSummarize(context.Background(), "t1")
	require.NoError(t, err)
	require.False(t, summarized)

	log, err := m.Log(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, log, 13)
}
