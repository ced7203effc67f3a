package bridge

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Event is one audit-log line.
type Event struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Audit is the append-only audit log. Lines are never updated or
// removed.
type Audit struct {
	db *sql.DB
}

// OpenAudit opens or creates the audit store at the given path.
func OpenAudit(dbPath string) (*Audit, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS audit_log (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		actor      TEXT NOT NULL,
		action     TEXT NOT NULL,
		detail     TEXT,
		created_at INTEGER NOT NULL
	);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}

	return &Audit{db: db}, nil
}

// Close closes the audit store.
func (a *Audit) Close() error {
	return a.db.Close()
}

// Append records one audit line.
func (a *Audit) Append(ctx context.Context, actor, action, detail string) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO audit_log (actor, action, detail, created_at) VALUES (?, ?, ?, ?)`,
		actor, action, detail, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("append audit line: %w", err)
	}
	return nil
}

// Tail returns the most recent n lines, newest first.
func (a *Audit) Tail(ctx context.Context, n int) ([]Event, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, actor, action, detail, created_at FROM audit_log
		 ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("tail audit log: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var detail sql.NullString
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &detail, &createdAt); err != nil {
			return nil, err
		}
		e.Detail = detail.String
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}
