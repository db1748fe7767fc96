package persistence

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	return store
}

func TestSQLiteStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return newTestSQLiteStore(t)
	})
}

func TestSQLiteStore_SchemaIsIdempotent(t *testing.T) {
	s := newTestSQLiteStore(t)
	_, err := NewSQLiteStore(s.db)
	require.NoError(t, err)
}

func TestRebindDollar(t *testing.T) {
	got := rebindDollar(`UPDATE t SET a = ?, b = ? WHERE id = ?`)
	require.Equal(t, `UPDATE t SET a = $1, b = $2 WHERE id = $3`, got)
}
