// Package history keeps a local SQLite ledger of past backup runs, so a
// degraded run (non-zero error count) is visible after the fact without
// digging through logs.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	username TEXT NOT NULL,
	output TEXT NOT NULL,
	journals INTEGER NOT NULL,
	notes INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	errors INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// Run is one recorded backup run.
type Run struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Username   string
	Output     string
	Journals   int
	Notes      int
	Trades     int
	Skipped    int
	Errors     int
}

// Degraded reports whether the run completed with errors.
func (r Run) Degraded() bool {
	return r.Errors > 0
}

// NewRunID returns a ULID for a run. ULIDs sort by generation time, which
// keeps the ledger naturally chronological.
func NewRunID() string {
	return ulid.Make().String()
}

// Ledger is a SQLite-backed run history.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open run ledger: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create run ledger schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Record appends one run to the ledger.
func (l *Ledger) Record(r Run) error {
	_, err := l.db.Exec(`
		INSERT INTO runs
		(run_id, started_at, finished_at, username, output, journals, notes, trades, skipped, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.StartedAt, r.FinishedAt, r.Username, r.Output,
		r.Journals, r.Notes, r.Trades, r.Skipped, r.Errors,
	)
	return err
}

// Recent returns up to limit runs, newest first.
func (l *Ledger) Recent(limit int) ([]Run, error) {
	rows, err := l.db.Query(`
		SELECT run_id, started_at, finished_at, username, output, journals, notes, trades, skipped, errors
		FROM runs ORDER BY started_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.FinishedAt, &r.Username, &r.Output,
			&r.Journals, &r.Notes, &r.Trades, &r.Skipped, &r.Errors); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close releases the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
