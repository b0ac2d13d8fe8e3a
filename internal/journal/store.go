package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"cmsimport/internal/config"
	"cmsimport/internal/reconcile"
)

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Run is the summary row of one recorded import.
type Run struct {
	ID          string    `json:"id"`
	Batch       string    `json:"batch"`
	Variant     string    `json:"variant"`
	Rows        int       `json:"rows"`
	Distinct    int       `json:"distinct"`
	Existing    int       `json:"existing"`
	SearchCalls int       `json:"searchCalls"`
	Created     int       `json:"created"`
	Updated     int       `json:"updated"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// Duration returns the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Open initializes or connects to the journal database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.JournalPath())
}

// OpenPath opens the journal database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RecordRun stores report and its outcomes under runID in one transaction.
func (s *Store) RecordRun(ctx context.Context, runID string, report *reconcile.Report) (*Run, error) {
	if report == nil {
		return nil, errors.New("record run: nil report")
	}
	if runID == "" {
		runID = NewRunID()
	}
	run := &Run{
		ID:          runID,
		Batch:       report.Batch,
		Variant:     report.Variant,
		Rows:        report.Rows,
		Distinct:    report.Distinct,
		Existing:    report.Existing,
		SearchCalls: report.SearchCalls,
		Created:     report.Count(reconcile.ActionCreated),
		Updated:     report.Count(reconcile.ActionUpdated),
		Skipped:     report.Count(reconcile.ActionSkipped),
		Failed:      report.Count(reconcile.ActionFailed),
		StartedAt:   report.Started.UTC(),
		FinishedAt:  report.Finished.UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, batch, variant, total_rows, distinct_rows, existing, search_calls,
            created, updated, skipped, failed, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Batch, run.Variant, run.Rows, run.Distinct, run.Existing, run.SearchCalls,
		run.Created, run.Updated, run.Skipped, run.Failed,
		run.StartedAt.Format(time.RFC3339Nano), run.FinishedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outcomes (
            run_id, position, row_index, row_key, title, folder_path, content_id,
            action, reason, attempts, class
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range report.Outcomes {
		if _, err := stmt.ExecContext(ctx,
			run.ID, i, o.Index, o.Key, o.Title, o.FolderPath, o.ContentID,
			string(o.Action), nullableString(o.Reason), o.Attempts, nullableString(o.Class),
		); err != nil {
			return nil, fmt.Errorf("insert outcome %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit run: %w", err)
	}
	return run, nil
}

const runColumns = `id, batch, variant, total_rows, distinct_rows, existing, search_calls,
    created, updated, skipped, failed, started_at, finished_at`

// ListRuns returns the most recent runs, newest first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun fetches a run by id or unique id prefix. It returns nil when no run matches.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id LIKE ? || '%' LIMIT 2`, id)
	if err != nil {
		return nil, fmt.Errorf("get run by prefix: %w", err)
	}
	defer rows.Close()
	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get run by prefix: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousRun, id)
	}
}

// Outcomes returns the recorded outcomes of a run in row order.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]reconcile.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_index, row_key, title, folder_path, content_id, action, reason, attempts, class
         FROM outcomes WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []reconcile.Outcome
	for rows.Next() {
		var (
			o      reconcile.Outcome
			action string
			reason sql.NullString
			class  sql.NullString
		)
		if err := rows.Scan(&o.Index, &o.Key, &o.Title, &o.FolderPath, &o.ContentID, &action, &reason, &o.Attempts, &class); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Action = reconcile.Action(action)
		o.Reason = reason.String
		o.Class = class.String
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run      Run
		started  string
		finished string
	)
	if err := scanner.Scan(
		&run.ID, &run.Batch, &run.Variant, &run.Rows, &run.Distinct, &run.Existing, &run.SearchCalls,
		&run.Created, &run.Updated, &run.Skipped, &run.Failed, &started, &finished,
	); err != nil {
		return nil, err
	}
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	return &run, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
