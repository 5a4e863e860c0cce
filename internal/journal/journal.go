// Package journal records every generation run and the writes it performed
// in a SQLite database, so `anubis history` can show what happened to each
// artifact and when.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"anubis/internal/artifact"
	"anubis/internal/logging"
	"anubis/internal/writer"
)

// Run status values.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// Entry is one recorded write joined with its run.
type Entry struct {
	RunID     string
	RunStatus string
	Path      string
	Policy    artifact.Policy
	Outcome   artifact.Outcome
	Bytes     int
	At        time.Time
}

// Journal manages the write history database.
type Journal struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open creates or opens the journal at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer process per project; a single connection keeps SQLite happy.
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, dbPath: path}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Journal("opened %s", path)
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.dbPath
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		status TEXT NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS writes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		path TEXT NOT NULL,
		policy TEXT NOT NULL,
		outcome TEXT NOT NULL,
		bytes INTEGER NOT NULL,
		written_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_writes_run ON writes(run_id);
	CREATE INDEX IF NOT EXISTS idx_writes_path ON writes(path);
	`
	_, err := j.db.Exec(schema)
	return err
}

// BeginRun registers a run as in progress.
func (j *Journal) BeginRun(runID string, started time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`INSERT INTO runs (id, started_at, status) VALUES (?, ?, ?)`,
		runID, started.UnixNano(), StatusRunning)
	if err != nil {
		return fmt.Errorf("failed to begin run %s: %w", runID, err)
	}
	logging.Journal("run %s started", runID)
	return nil
}

// Record appends one write result to the run.
func (j *Journal) Record(runID string, res writer.Result) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		INSERT INTO writes (run_id, path, policy, outcome, bytes, written_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, res.Path, res.Policy.String(), res.Outcome.String(), res.Bytes, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", res.Path, err)
	}
	return nil
}

// FinishRun closes the run. A non-nil runErr marks it failed.
func (j *Journal) FinishRun(runID string, finished time.Time, runErr error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	status, msg := StatusOK, sql.NullString{}
	if runErr != nil {
		status = StatusFailed
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	res, err := j.db.Exec(`UPDATE runs SET finished_at = ?, status = ?, error = ? WHERE id = ?`,
		finished.UnixNano(), status, msg, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("unknown run %s", runID)
	}
	logging.Journal("run %s finished: %s", runID, status)
	return nil
}

// Recent returns up to limit writes, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.Query(`
		SELECT w.run_id, r.status, w.path, w.policy, w.outcome, w.bytes, w.written_at
		FROM writes w JOIN runs r ON r.id = w.run_id
		ORDER BY w.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query writes: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e               Entry
			policy, outcome string
			at              int64
		)
		if err := rows.Scan(&e.RunID, &e.RunStatus, &e.Path, &policy, &outcome, &e.Bytes, &at); err != nil {
			return nil, err
		}
		if e.Policy, err = artifact.ParsePolicy(policy); err != nil {
			return nil, err
		}
		e.Outcome = parseOutcome(outcome)
		e.At = time.Unix(0, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

func parseOutcome(s string) artifact.Outcome {
	for _, o := range artifact.Outcomes {
		if o.String() == s {
			return o
		}
	}
	return artifact.Unchanged
}
