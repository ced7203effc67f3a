package store

import (
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Schema versions:
// v1: base tables (agents, entries, links, summaries) and indexes
// v2: constitution made optional (rebuild-and-swap of agents)
// v3: spawn/wake counters on agents, sessions table
// v4: provider column dropped from agents (rebuild-and-swap)
const currentSchemaVersion = 4

// migration is one ordered schema step. Each step runs in its own
// transaction together with the user_version bump, so a failed step
// rolls back completely and aborts the store open.
type migration struct {
	version int
	name    string
	apply   func(tx *sql.Tx) error
}

var migrations = []migration{
	{1, "base schema", migrateBase},
	{2, "optional constitution", migrateOptionalConstitution},
	{3, "spawn counters and sessions", migrateSpawnCounters},
	{4, "drop provider", migrateDropProvider},
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("store schema version %d is newer than supported %d", version, currentSchemaVersion)
	}
	if version == currentSchemaVersion {
		return nil
	}

	// Rebuild-and-swap steps drop tables that other tables reference.
	// SQLite's documented recipe is to suspend enforcement for the
	// duration of the structural change and verify afterwards.
	if _, err := s.db.Exec(`PRAGMA foreign_keys = off`); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer s.db.Exec(`PRAGMA foreign_keys = on`)

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return classify(err)
		}
		if err := m.apply(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, m.version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): set version: %w", m.version, m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d (%s): commit: %w", m.version, m.name, err)
		}
		s.log.Info("applied migration",
			zap.Int("version", m.version), zap.String("name", m.name))
	}

	rows, err := s.db.Query(`PRAGMA foreign_key_check`)
	if err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		var table, parent string
		var rowid, fkid sql.NullInt64
		if err := rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return fmt.Errorf("foreign key violation: %w", err)
		}
		return fmt.Errorf("foreign key violation in table %s referencing %s", table, parent)
	}

	return rows.Err()
}

// migrateBase creates the original table shapes: constitution and
// provider were both required at v1, and sessions did not exist yet.
func migrateBase(tx *sql.Tx) error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id               TEXT PRIMARY KEY,
		handle           TEXT NOT NULL UNIQUE,
		model            TEXT NOT NULL,
		provider         TEXT NOT NULL,
		constitution     TEXT NOT NULL,
		self_description TEXT,
		archived_at      INTEGER,
		created_at       INTEGER NOT NULL,
		last_active_at   INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		id             TEXT PRIMARY KEY,
		agent_id       TEXT NOT NULL REFERENCES agents(id),
		topic          TEXT NOT NULL,
		body           TEXT NOT NULL,
		stamp          TEXT NOT NULL,
		created_at     INTEGER NOT NULL,
		archived_at    INTEGER,
		core           INTEGER NOT NULL DEFAULT 0,
		source         TEXT NOT NULL DEFAULT 'manual',
		bridge_channel TEXT,
		code_anchors   TEXT,
		synthesis_note TEXT,
		supersedes     TEXT,
		superseded_by  TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_entries_agent_topic ON entries(agent_id, topic);
	CREATE INDEX IF NOT EXISTS idx_entries_agent_archived ON entries(agent_id, archived_at);
	CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at DESC);

	CREATE TABLE IF NOT EXISTS links (
		id         TEXT PRIMARY KEY,
		from_id    TEXT NOT NULL REFERENCES entries(id),
		to_id      TEXT NOT NULL REFERENCES entries(id),
		kind       TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE (from_id, to_id, kind)
	);
	CREATE INDEX IF NOT EXISTS idx_links_to ON links(to_id);

	CREATE TABLE IF NOT EXISTS summaries (
		agent_id   TEXT PRIMARY KEY REFERENCES agents(id),
		body       TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := tx.Exec(schema)
	return err
}

// migrateOptionalConstitution relaxes the NOT NULL on agents.constitution
// so ephemeral identities can register without a governing document.
// SQLite cannot drop a column constraint in place, so the table is
// rebuilt and swapped.
func migrateOptionalConstitution(tx *sql.Tx) error {
	if !columnNotNull(tx, "agents", "constitution") {
		return nil // already optional
	}
	steps := []string{
		`CREATE TABLE agents_v2 (
			id               TEXT PRIMARY KEY,
			handle           TEXT NOT NULL UNIQUE,
			model            TEXT NOT NULL,
			provider         TEXT NOT NULL,
			constitution     TEXT,
			self_description TEXT,
			archived_at      INTEGER,
			created_at       INTEGER NOT NULL,
			last_active_at   INTEGER NOT NULL
		)`,
		`INSERT INTO agents_v2
			SELECT id, handle, model, provider, constitution, self_description,
			       archived_at, created_at, last_active_at
			FROM agents`,
		`DROP TABLE agents`,
		`ALTER TABLE agents_v2 RENAME TO agents`,
	}
	return execAll(tx, steps)
}

// migrateSpawnCounters adds the death/rebirth bookkeeping: spawn and wake
// counters on agents, plus the sessions table.
func migrateSpawnCounters(tx *sql.Tx) error {
	if err := ensureColumn(tx, "agents", "spawn_count", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}
	if err := ensureColumn(tx, "agents", "wakes_this_spawn", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}
	if tableExists(tx, "sessions") {
		return nil
	}
	_, err := tx.Exec(`
	CREATE TABLE sessions (
		id           TEXT PRIMARY KEY,
		agent_id     TEXT NOT NULL REFERENCES agents(id),
		spawn_number INTEGER NOT NULL,
		started_at   INTEGER NOT NULL,
		ended_at     INTEGER,
		wakes        INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_agent ON sessions(agent_id, ended_at);
	`)
	return err
}

// migrateDropProvider removes the provider column: the model binding
// alone identifies the backing, and provider became implicit.
func migrateDropProvider(tx *sql.Tx) error {
	if !columnExists(tx, "agents", "provider") {
		return nil // already dropped
	}
	steps := []string{
		`CREATE TABLE agents_v4 (
			id               TEXT PRIMARY KEY,
			handle           TEXT NOT NULL UNIQUE,
			model            TEXT NOT NULL,
			constitution     TEXT,
			self_description TEXT,
			spawn_count      INTEGER NOT NULL DEFAULT 0,
			wakes_this_spawn INTEGER NOT NULL DEFAULT 0,
			archived_at      INTEGER,
			created_at       INTEGER NOT NULL,
			last_active_at   INTEGER NOT NULL
		)`,
		`INSERT INTO agents_v4
			SELECT id, handle, model, constitution, self_description,
			       spawn_count, wakes_this_spawn, archived_at, created_at, last_active_at
			FROM agents`,
		`DROP TABLE agents`,
		`ALTER TABLE agents_v4 RENAME TO agents`,
	}
	return execAll(tx, steps)
}

func execAll(tx *sql.Tx, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	line := strings.TrimSpace(stmt)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return line
}

// ensureColumn adds a column when it is missing. Safe against stores
// that were already partially migrated.
func ensureColumn(tx *sql.Tx, table, column, def string) error {
	if columnExists(tx, table, column) {
		return nil
	}
	_, err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, def))
	if err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

func tableExists(tx *sql.Tx, name string) bool {
	var n int
	err := tx.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		name).Scan(&n)
	return err == nil && n > 0
}

func columnExists(tx *sql.Tx, table, column string) bool {
	found, _ := scanTableInfo(tx, table, column)
	return found
}

func columnNotNull(tx *sql.Tx, table, column string) bool {
	_, notNull := scanTableInfo(tx, table, column)
	return notNull
}

func scanTableInfo(tx *sql.Tx, table, column string) (found, notNull bool) {
	rows, err := tx.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, false
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			nn      int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &nn, &dflt, &pk); err != nil {
			return false, false
		}
		if strings.EqualFold(name, column) {
			return true, nn != 0
		}
	}
	return false, false
}
