package dbutil

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRebindsPlaceholders(t *testing.T) {
	query, args := Finalize("SELECT id FROM documents WHERE project_id = ? AND user_id = ?", []interface{}{"p", "u"})
	require.Equal(t, "SELECT id FROM documents WHERE project_id = $1 AND user_id = $2", query)
	require.Equal(t, []interface{}{"p", "u"}, args)
}

func TestFinalizeRewritesMySQLLimit(t *testing.T) {
	query, args := Finalize("SELECT id FROM tasks WHERE user_id = ? LIMIT ?,?", []interface{}{"u", uint(10), uint(20)})
	require.Equal(t, "SELECT id FROM tasks WHERE user_id = $1 LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{"u", uint(20), uint(10)}, args)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "23503"}))
	require.False(t, IsConflict(errors.New("boom")))
}
