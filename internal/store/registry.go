package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spawnlab/hivemem/internal/model"
)

const agentColumns = `id, handle, model, constitution, self_description,
	spawn_count, wakes_this_spawn, archived_at, created_at, last_active_at`

// Register creates a new identity. The handle must be unused, retired
// handles included.
func (s *Store) Register(ctx context.Context, p RegisterParams) (*model.Agent, error) {
	if p.Handle == "" {
		return nil, fmt.Errorf("register: handle is required")
	}
	if p.Model == "" {
		return nil, fmt.Errorf("register: model is required")
	}

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM agents WHERE handle = ?`, p.Handle).Scan(&n)
	if err != nil {
		return nil, classify(err)
	}
	if n > 0 {
		return nil, fmt.Errorf("agent %q: %w", p.Handle, ErrAlreadyExists)
	}

	now := nowMS()
	id := s.newID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO agents (id, handle, model, constitution, self_description,
		                     spawn_count, wakes_this_spawn, created_at, last_active_at)
		 VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		id, p.Handle, p.Model, nullable(p.Constitution), nullable(p.SelfDescription), now, now)
	if err != nil {
		return nil, fmt.Errorf("insert agent: %w", classify(err))
	}

	return &model.Agent{
		ID:              id,
		Handle:          p.Handle,
		Model:           p.Model,
		Constitution:    p.Constitution,
		SelfDescription: p.SelfDescription,
		CreatedAt:       msTime(now),
		LastActiveAt:    msTime(now),
	}, nil
}

// Spawn opens a new life for the identity: any still-open session is
// closed first, the spawn counter advances, and the per-spawn wake
// counter resets. A new spawn always implies the previous session has
// ended, even when it was never closed explicitly.
func (s *Store) Spawn(ctx context.Context, handle string) (*model.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback()

	agentID, err := resolveAgent(ctx, tx, handle)
	if err != nil {
		return nil, fmt.Errorf("spawn: %w", err)
	}

	now := nowMS()
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE agent_id = ? AND ended_at IS NULL`,
		now, agentID); err != nil {
		return nil, fmt.Errorf("close stale session: %w", classify(err))
	}

	var spawnCount int
	err = tx.QueryRowContext(ctx,
		`UPDATE agents SET spawn_count = spawn_count + 1, wakes_this_spawn = 0, last_active_at = ?
		 WHERE id = ? RETURNING spawn_count`, now, agentID).Scan(&spawnCount)
	if err != nil {
		return nil, fmt.Errorf("advance spawn count: %w", classify(err))
	}

	id := s.newID()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, agent_id, spawn_number, started_at, wakes)
		 VALUES (?, ?, ?, ?, 0)`,
		id, agentID, spawnCount, now)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", classify(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}

	return &model.Session{
		ID:          id,
		AgentID:     agentID,
		SpawnNumber: spawnCount,
		StartedAt:   msTime(now),
	}, nil
}

// Wake records a context reload within the current spawn.
func (s *Store) Wake(ctx context.Context, handle string) (*model.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback()

	agentID, err := resolveAgent(ctx, tx, handle)
	if err != nil {
		return nil, fmt.Errorf("wake: %w", err)
	}

	var sessionID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM sessions WHERE agent_id = ? AND ended_at IS NULL
		 ORDER BY started_at DESC LIMIT 1`, agentID).Scan(&sessionID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("wake %s: %w", handle, ErrNoActiveSession)
	}
	if err != nil {
		return nil, classify(err)
	}

	now := nowMS()
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET wakes = wakes + 1 WHERE id = ?`, sessionID); err != nil {
		return nil, fmt.Errorf("bump session wakes: %w", classify(err))
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE agents SET wakes_this_spawn = wakes_this_spawn + 1, last_active_at = ?
		 WHERE id = ?`, now, agentID); err != nil {
		return nil, fmt.Errorf("bump agent wakes: %w", classify(err))
	}

	session, err := scanSessionRow(tx.QueryRowContext(ctx,
		`SELECT id, agent_id, spawn_number, started_at, ended_at, wakes
		 FROM sessions WHERE id = ?`, sessionID))
	if err != nil {
		return nil, classify(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	return session, nil
}

// EndSession closes a session. Ending an already-closed session is a
// no-op.
func (s *Store) EndSession(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		nowMS(), sessionID)
	if err != nil {
		return fmt.Errorf("end session: %w", classify(err))
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var exists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID).Scan(&exists); err != nil {
		return classify(err)
	}
	if exists == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return nil // already ended
}

// Retire archives an identity. Retired identities no longer resolve for
// memory operations. Idempotent.
func (s *Store) Retire(ctx context.Context, handle string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE agents SET archived_at = COALESCE(archived_at, ?) WHERE handle = ?`,
		nowMS(), handle)
	if err != nil {
		return fmt.Errorf("retire agent: %w", classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("agent %q: %w", handle, ErrNotFound)
	}
	return nil
}

// Agent looks up an identity by handle, retired or not.
func (s *Store) Agent(ctx context.Context, handle string) (*model.Agent, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM agents WHERE handle = ?`, agentColumns), handle)
	a, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("agent %q: %w", handle, ErrNotFound)
	}
	if err != nil {
		return nil, classify(err)
	}
	return &a, nil
}

// Agents lists known identities, most recently active first.
func (s *Store) Agents(ctx context.Context, includeRetired bool) ([]model.Agent, error) {
	query := fmt.Sprintf(`SELECT %s FROM agents`, agentColumns)
	if !includeRetired {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY last_active_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var agents []model.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// Sessions returns the identity's session history, newest first.
func (s *Store) Sessions(ctx context.Context, handle string) ([]model.Session, error) {
	agentID, err := resolveAgent(ctx, s.db, handle)
	if err != nil {
		return nil, fmt.Errorf("sessions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, agent_id, spawn_number, started_at, ended_at, wakes
		 FROM sessions WHERE agent_id = ? ORDER BY started_at DESC, spawn_number DESC`, agentID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		sess, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

func scanAgent(row scanner) (model.Agent, error) {
	var a model.Agent
	var constitution, selfDescription sql.NullString
	var archivedAt sql.NullInt64
	var createdAt, lastActiveAt int64

	err := row.Scan(&a.ID, &a.Handle, &a.Model, &constitution, &selfDescription,
		&a.SpawnCount, &a.WakesThisSpawn, &archivedAt, &createdAt, &lastActiveAt)
	if err != nil {
		return a, err
	}

	a.Constitution = constitution.String
	a.SelfDescription = selfDescription.String
	if archivedAt.Valid {
		t := msTime(archivedAt.Int64)
		a.ArchivedAt = &t
	}
	a.CreatedAt = msTime(createdAt)
	a.LastActiveAt = msTime(lastActiveAt)
	return a, nil
}

func scanSessionRow(row scanner) (*model.Session, error) {
	var sess model.Session
	var startedAt int64
	var endedAt sql.NullInt64

	err := row.Scan(&sess.ID, &sess.AgentID, &sess.SpawnNumber, &startedAt, &endedAt, &sess.Wakes)
	if err != nil {
		return nil, err
	}

	sess.StartedAt = msTime(startedAt)
	if endedAt.Valid {
		t := msTime(endedAt.Int64)
		sess.EndedAt = &t
	}
	return &sess, nil
}
