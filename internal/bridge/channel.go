// Package bridge holds the narrow interfaces to the sibling workspace
// stores: the coordination channel and the audit log. The memory core
// never reads or writes these directly; it only resolves a
// BridgeChannel back-reference for display.
package bridge

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Message is one coordination-channel message.
type Message struct {
	ID        string     `json:"id"`
	Channel   string     `json:"channel"`
	Sender    string     `json:"sender"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// Channel is the coordination-channel store. It lives in its own file
// next to memory.db and exposes only message recording and unread
// listing.
type Channel struct {
	db      *sql.DB
	entropy *ulid.MonotonicEntropy
}

// OpenChannel opens or creates the channel store at the given path.
func OpenChannel(dbPath string) (*Channel, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open channel db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		channel    TEXT NOT NULL,
		sender     TEXT NOT NULL,
		body       TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		read_at    INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel, read_at);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create channel schema: %w", err)
	}

	return &Channel{
		db: db,
		// Monotonic entropy keeps same-millisecond ids in insert order;
		// Unread and Latest break created_at ties on id.
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}, nil
}

// Close closes the channel store.
func (c *Channel) Close() error {
	return c.db.Close()
}

// Post records a message on a channel.
func (c *Channel) Post(ctx context.Context, channel, sender, body string) (*Message, error) {
	now := time.Now().UnixMilli()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), c.entropy).String()

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO messages (id, channel, sender, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, channel, sender, body, now)
	if err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}

	return &Message{
		ID:        id,
		Channel:   channel,
		Sender:    sender,
		Body:      body,
		CreatedAt: time.UnixMilli(now).UTC(),
	}, nil
}

// Unread lists unread messages on a channel, oldest first.
func (c *Channel) Unread(ctx context.Context, channel string) ([]Message, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, channel, sender, body, created_at, read_at FROM messages
		 WHERE channel = ? AND read_at IS NULL ORDER BY created_at, id`, channel)
	if err != nil {
		return nil, fmt.Errorf("list unread: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkRead marks the given messages as read. Unknown ids are ignored.
func (c *Channel) MarkRead(ctx context.Context, ids ...string) error {
	now := time.Now().UnixMilli()
	for _, id := range ids {
		if _, err := c.db.ExecContext(ctx,
			`UPDATE messages SET read_at = COALESCE(read_at, ?) WHERE id = ?`, now, id); err != nil {
			return fmt.Errorf("mark read %s: %w", id, err)
		}
	}
	return nil
}

// Latest returns the most recent message on a channel, or nil when the
// channel holds none. Used to resolve an entry's BridgeChannel
// back-reference for display.
func (c *Channel) Latest(ctx context.Context, channel string) (*Message, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, channel, sender, body, created_at, read_at FROM messages
		 WHERE channel = ? ORDER BY created_at DESC, id DESC LIMIT 1`, channel)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest message: %w", err)
	}
	return &m, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (Message, error) {
	var m Message
	var createdAt int64
	var readAt sql.NullInt64

	err := row.Scan(&m.ID, &m.Channel, &m.Sender, &m.Body, &createdAt, &readAt)
	if err != nil {
		return m, err
	}

	m.CreatedAt = time.UnixMilli(createdAt).UTC()
	if readAt.Valid {
		t := time.UnixMilli(readAt.Int64).UTC()
		m.ReadAt = &t
	}
	return m, nil
}
