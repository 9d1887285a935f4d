package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askbase/askbase/internal/model"
	appErr "github.com/askbase/askbase/internal/pkg/errors"
)

func TestThreadServiceDeleteRemovesScopedFiles(t *testing.T) {
	threads := &fakeThreadStore{threads: map[string]*model.Thread{
		"t1": {ID: "t1", Ctime: 1, LastTurnAt: 2},
	}}
	messages := &fakeThreadMessageStore{counts: map[string]int64{"t1": 6}}
	docs := &fakeThreadDocumentStore{byThread: map[string][]model.Document{
		"t1": {
			{ID: "d1", Filename: "notes.md", Visibility: model.ScopedTo("t1")},
			{ID: "d2", Filename: "FAQ.TXT", Visibility: model.ScopedTo("t1")},
		},
	}}
	files := newFakeFileStore()
	files.saved["d1.md"] = []byte("a")
	files.saved["d2.txt"] = []byte("b")
	files.saved["global.md"] = []byte("c")

	s := NewThreadService(threads, messages, docs, files)
	require.NoError(t, s.Delete(context.Background(), "t1"))

	// Rows are gone and the scoped uploads went with them. The key
	// extension is lowercased the same way ingestion does it.
	require.Equal(t, []string{"t1"}, threads.deleted)
	require.Empty(t, docs.byThread["t1"])
	require.ElementsMatch(t, []string{"d1.md", "d2.txt"}, files.deleted)
	require.Contains(t, files.saved, "global.md")
}

func TestThreadServiceDeleteSurvivesFileStoreFailure(t *testing.T) {
	threads := &fakeThreadStore{threads: map[string]*model.Thread{"t1": {ID: "t1"}}}
	docs := &fakeThreadDocumentStore{byThread: map[string][]model.Document{
		"t1": {{ID: "d1", Filename: "notes.md", Visibility: model.ScopedTo("t1")}},
	}}
	files := newFakeFileStore()
	files.deleteErr = errors.New("backend down")

	s := NewThreadService(threads, &fakeThreadMessageStore{}, docs, files)
	require.NoError(t, s.Delete(context.Background(), "t1"))
	require.Equal(t, []string{"d1.md"}, files.deleted)
}

func TestThreadServiceDeleteUnknownThread(t *testing.T) {
	s := NewThreadService(&fakeThreadStore{}, &fakeThreadMessageStore{}, &fakeThreadDocumentStore{}, newFakeFileStore())
	require.ErrorIs(t, s.Delete(context.Background(), "missing"), appErr.ErrNotFound)
	require.ErrorIs(t, s.Delete(context.Background(), "  "), appErr.ErrInvalid)
}
