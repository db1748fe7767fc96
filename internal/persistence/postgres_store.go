package persistence

import (
	"context"
	"database/sql"
	"time"
)

// PostgresStore is a Store backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
type PostgresStore struct {
	sqlStore
}

// Ensure PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore initializes the required schema in the given
// database and returns a new PostgresStore.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{sqlStore{db: db, rebind: rebindDollar, now: time.Now}}
	if err := s.initSchema(context.Background(), postgresSchema); err != nil {
		return nil, err
	}
	return s, nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		wizard_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		parent_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		current_step INTEGER NOT NULL,
		token TEXT NOT NULL DEFAULT '',
		incomplete INTEGER NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		completed_at BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_wizard ON submissions(wizard_id, status)`,
	`CREATE TABLE IF NOT EXISTS submission_fields (
		submission_id TEXT NOT NULL,
		field_key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (submission_id, field_key)
	)`,
	`CREATE TABLE IF NOT EXISTS parents (
		id TEXT PRIMARY KEY,
		recent_submission TEXT NOT NULL,
		last_completed_at BIGINT NOT NULL
	)`,
}
