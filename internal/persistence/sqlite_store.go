package persistence

import (
	"context"
	"database/sql"
	"time"
)

// SQLiteStore is a Store backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	sqlStore
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given
// database and returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{sqlStore{db: db, rebind: rebindQuestion, now: time.Now}}
	if err := s.initSchema(context.Background(), sqliteSchema); err != nil {
		return nil, err
	}
	return s, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		wizard_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		parent_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		current_step INTEGER NOT NULL,
		token TEXT NOT NULL DEFAULT '',
		incomplete INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		completed_at INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_wizard ON submissions(wizard_id, status);`,
	`CREATE TABLE IF NOT EXISTS submission_fields (
		submission_id TEXT NOT NULL,
		field_key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (submission_id, field_key)
	);`,
	`CREATE TABLE IF NOT EXISTS parents (
		id TEXT PRIMARY KEY,
		recent_submission TEXT NOT NULL,
		last_completed_at INTEGER NOT NULL
	);`,
}
