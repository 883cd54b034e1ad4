// Package journal records session run history in a local SQLite database.
// Every capture, resume, and replay against a session leaves one row, so
// `revisit sessions history` can show what happened to a session over time.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run kinds recorded in the journal
const (
	KindCapture = "capture"
	KindResume  = "resume"
	KindReplay  = "replay"
)

// Run is one recorded operation against a session
type Run struct {
	ID         string
	Session    string
	Kind       string
	OK         bool
	Detail     string
	DurationMs int64
	CreatedAt  time.Time
}

// Journal is the run-history database
type Journal struct {
	conn *sql.DB
}

// Open opens (creating if needed) the journal database at dbPath
func Open(dbPath string) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	j := &Journal{conn: conn}
	if err := j.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	return j, nil
}

// Close closes the journal database
func (j *Journal) Close() error {
	return j.conn.Close()
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		session TEXT NOT NULL,
		kind TEXT NOT NULL,
		ok BOOLEAN NOT NULL,
		detail TEXT,
		duration_ms INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_session ON runs(session);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`

	_, err := j.conn.Exec(schema)
	return err
}

// RecordRun writes one run to the journal and returns its ID
func (j *Journal) RecordRun(sessionName, kind string, ok bool, detail string, duration time.Duration) (string, error) {
	id := uuid.New().String()

	query := `
		INSERT INTO runs (id, session, kind, ok, detail, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := j.conn.Exec(query, id, sessionName, kind, ok, detail, duration.Milliseconds())
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}

	return id, nil
}

// History returns the most recent runs for a session, newest first. An empty
// session name returns runs across all sessions.
func (j *Journal) History(sessionName string, limit int) ([]Run, error) {
	query := `
		SELECT id, session, kind, ok, detail, duration_ms, created_at
		FROM runs
	`
	args := []interface{}{}
	if sessionName != "" {
		query += ` WHERE session = ?`
		args = append(args, sessionName)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var detail sql.NullString
		err := rows.Scan(
			&run.ID,
			&run.Session,
			&run.Kind,
			&run.OK,
			&detail,
			&run.DurationMs,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if detail.Valid {
			run.Detail = detail.String
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Purge deletes all runs recorded for a session, used when the session
// itself is deleted
func (j *Journal) Purge(sessionName string) error {
	_, err := j.conn.Exec(`DELETE FROM runs WHERE session = ?`, sessionName)
	if err != nil {
		return fmt.Errorf("failed to purge runs: %w", err)
	}
	return nil
}

// Statistics returns aggregate counts across the journal
func (j *Journal) Statistics() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalRuns int
	if err := j.conn.QueryRow("SELECT COUNT(*) FROM runs").Scan(&totalRuns); err != nil {
		return nil, err
	}
	stats["total_runs"] = totalRuns

	var failedRuns int
	if err := j.conn.QueryRow("SELECT COUNT(*) FROM runs WHERE ok = 0").Scan(&failedRuns); err != nil {
		return nil, err
	}
	stats["failed_runs"] = failedRuns

	var sessions int
	if err := j.conn.QueryRow("SELECT COUNT(DISTINCT session) FROM runs").Scan(&sessions); err != nil {
		return nil, err
	}
	stats["sessions"] = sessions

	return stats, nil
}
