package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed memory and identity store for one workspace.
type Store struct {
	db      *sql.DB
	log     *zap.Logger
	entropy *ulid.MonotonicEntropy
}

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open opens or creates the store at the given path and brings its schema
// to the current version. A migration failure is fatal and leaves no
// partial state behind.
func Open(dbPath string, opts ...Option) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Single connection: serializes writes and keeps per-connection
	// pragmas (foreign_keys toggling during migration) effective.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:      db,
		log:     zap.NewNop(),
		// Monotonic entropy keeps same-millisecond ids in insert order,
		// which the created_at tie-break in List relies on.
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Another process holding the file lock is transient: bounded retry
	// before giving up.
	for attempt := 1; ; attempt++ {
		err = db.Ping()
		if err == nil || !isBusy(err) || attempt >= 3 {
			break
		}
		s.log.Debug("store locked, retrying",
			zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", classify(err))
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func nowMS() int64 { return time.Now().UnixMilli() }

func msTime(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// resolveAgent maps an active agent handle to its id.
func resolveAgent(ctx context.Context, q querier, handle string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx,
		`SELECT id FROM agents WHERE handle = ? AND archived_at IS NULL`,
		handle).Scan(&id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("agent %q: %w", handle, ErrNotFound)
	}
	if err != nil {
		return "", classify(err)
	}
	return id, nil
}
