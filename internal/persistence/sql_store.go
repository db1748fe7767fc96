package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/petrijr/stepform/pkg/api"
)

// sqlStore holds the queries shared by the SQLite and PostgreSQL stores.
// Queries are written with '?' placeholders and rebound per dialect.
type sqlStore struct {
	db     *sql.DB
	rebind func(string) string
	now    func() time.Time
}

func (s *sqlStore) initSchema(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqlStore) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// execOne runs a single-row update and maps "no row" to ErrSubmissionNotFound.
func (s *sqlStore) execOne(ctx context.Context, query string, args ...any) error {
	affected, err := s.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

func (s *sqlStore) CreateSubmission(ctx context.Context, sub *api.Submission) error {
	created := sub.CreatedAt
	if created.IsZero() {
		created = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM submissions WHERE id = ?`), sub.ID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return ErrDuplicateSubmission
	}

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO submissions (id, wizard_id, title, parent_id, status, current_step, token, incomplete, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		sub.ID,
		sub.WizardID,
		sub.Title,
		sub.ParentID,
		string(sub.Status),
		sub.CurrentStep,
		sub.Token,
		boolToInt(sub.Incomplete),
		toNanos(created),
		toNanos(created),
		toNanos(sub.CompletedAt),
	)
	if err != nil {
		return err
	}

	if err := s.upsertFields(ctx, tx, sub.ID, sub.Fields); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqlStore) upsertFields(ctx context.Context, tx *sql.Tx, id string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO submission_fields (submission_id, field_key, value)
		VALUES (?, ?, ?)
		ON CONFLICT (submission_id, field_key) DO UPDATE SET value = excluded.value`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for k, v := range fields {
		if _, err := stmt.ExecContext(ctx, id, k, v); err != nil {
			return err
		}
	}
	return nil
}

const selectSubmission = `
	SELECT id, wizard_id, title, parent_id, status, current_step, token, incomplete, created_at, updated_at, completed_at
	FROM submissions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*api.Submission, error) {
	var (
		sub                            api.Submission
		status                         string
		incomplete                     int
		createdAt, updatedAt, finished int64
	)
	err := row.Scan(
		&sub.ID,
		&sub.WizardID,
		&sub.Title,
		&sub.ParentID,
		&status,
		&sub.CurrentStep,
		&sub.Token,
		&incomplete,
		&createdAt,
		&updatedAt,
		&finished,
	)
	if err != nil {
		return nil, err
	}
	sub.Status = api.Status(status)
	sub.Incomplete = incomplete != 0
	sub.CreatedAt = fromNanos(createdAt)
	sub.UpdatedAt = fromNanos(updatedAt)
	sub.CompletedAt = fromNanos(finished)
	sub.Fields = make(map[string]string)
	return &sub, nil
}

func (s *sqlStore) loadFields(ctx context.Context, sub *api.Submission) error {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT field_key, value FROM submission_fields WHERE submission_id = ?`), sub.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		sub.Fields[k] = v
	}
	return rows.Err()
}

func (s *sqlStore) GetSubmission(ctx context.Context, id string) (*api.Submission, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectSubmission+` WHERE id = ?`), id)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	if err := s.loadFields(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *sqlStore) ListSubmissions(ctx context.Context, opts api.SubmissionListOptions) ([]*api.Submission, error) {
	query := selectSubmission
	var args []any
	var clauses []string

	if opts.WizardID != "" {
		clauses = append(clauses, "wizard_id = ?")
		args = append(args, opts.WizardID)
	}
	if opts.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(opts.Status))
	}
	if opts.OnlyIncomplete {
		clauses = append(clauses, "incomplete = 1")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	var result []*api.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, sub := range result {
		if err := s.loadFields(ctx, sub); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *sqlStore) MergeFields(ctx context.Context, id string, fields map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, s.rebind(`UPDATE submissions SET updated_at = ? WHERE id = ?`), toNanos(s.now()), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSubmissionNotFound
	}

	if err := s.upsertFields(ctx, tx, id, fields); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqlStore) SetTitle(ctx context.Context, id, title string) error {
	return s.execOne(ctx, `UPDATE submissions SET title = ?, updated_at = ? WHERE id = ?`, title, toNanos(s.now()), id)
}

func (s *sqlStore) SetToken(ctx context.Context, id, token string) error {
	return s.execOne(ctx, `UPDATE submissions SET token = ?, updated_at = ? WHERE id = ?`, token, toNanos(s.now()), id)
}

func (s *sqlStore) SetStatus(ctx context.Context, id string, status api.Status) error {
	return s.execOne(ctx, `UPDATE submissions SET status = ?, updated_at = ? WHERE id = ?`, string(status), toNanos(s.now()), id)
}

func (s *sqlStore) AdvanceStep(ctx context.Context, id string, step int) error {
	affected, err := s.exec(ctx, `
		UPDATE submissions
		SET current_step = CASE WHEN current_step = ? THEN ? ELSE current_step END,
		    incomplete = 1,
		    updated_at = ?
		WHERE id = ? AND completed_at = 0 AND current_step >= ?`,
		step, step+1, toNanos(s.now()), id, step,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return explainRejected(ctx, s, id, step)
	}
	return nil
}

func (s *sqlStore) CompleteSubmission(ctx context.Context, id string, step int, at time.Time) error {
	affected, err := s.exec(ctx, `
		UPDATE submissions
		SET incomplete = 0, completed_at = ?, updated_at = ?
		WHERE id = ? AND completed_at = 0 AND current_step >= ?`,
		toNanos(at), toNanos(s.now()), id, step,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return explainRejected(ctx, s, id, step)
	}
	return nil
}

func (s *sqlStore) RecordCompletion(ctx context.Context, parentID, submissionID string, at time.Time) error {
	_, err := s.exec(ctx, `
		INSERT INTO parents (id, recent_submission, last_completed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET recent_submission = excluded.recent_submission, last_completed_at = excluded.last_completed_at`,
		parentID, submissionID, toNanos(at),
	)
	return err
}

func (s *sqlStore) GetParent(ctx context.Context, parentID string) (*api.ParentRecord, error) {
	var (
		p  api.ParentRecord
		at int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, recent_submission, last_completed_at FROM parents WHERE id = ?`), parentID,
	).Scan(&p.ID, &p.RecentSubmission, &at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParentNotFound
		}
		return nil, err
	}
	p.LastCompletedAt = fromNanos(at)
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// rebindQuestion leaves '?' placeholders as they are.
func rebindQuestion(q string) string { return q }

// rebindDollar rewrites '?' placeholders to $1, $2, ...
func rebindDollar(q string) string {
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
