package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testDB opens a throwaway file-backed database. A file (not :memory:) keeps
// the schema visible across pooled connections.
func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
