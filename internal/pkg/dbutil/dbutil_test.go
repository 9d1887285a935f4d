package dbutil

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRebindsPlaceholders(t *testing.T) {
	query, args := Finalize("SELECT * FROM documents WHERE id = ? AND thread_id = ?", []interface{}{"d1", "t1"})
	require.Equal(t, "SELECT * FROM documents WHERE id = $1 AND thread_id = $2", query)
	require.Equal(t, []interface{}{"d1", "t1"}, args)
}

func TestFinalizeRewritesMySQLLimit(t *testing.T) {
	query, args := Finalize("SELECT id FROM threads WHERE ctime > ? LIMIT ?,?", []interface{}{int64(100), 20, 10})
	require.Equal(t, "SELECT id FROM threads WHERE ctime > $1 LIMIT $2 OFFSET $3", query)
	// gendry binds offset first, count second; Postgres wants them swapped.
	require.Equal(t, []interface{}{int64(100), 10, 20}, args)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "23503"}))
	require.False(t, IsConflict(errors.New("plain")))
	require.False(t, IsConflict(nil))
}
