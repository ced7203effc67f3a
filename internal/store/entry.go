package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spawnlab/hivemem/internal/model"
)

const entryColumns = `id, agent_id, topic, body, stamp, created_at, archived_at,
	core, source, bridge_channel, code_anchors, synthesis_note, supersedes, superseded_by`

// Add creates a new active entry for the owner.
func (s *Store) Add(ctx context.Context, p AddParams) (*model.Entry, error) {
	agentID, err := resolveAgent(ctx, s.db, p.Owner)
	if err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}

	source := p.Source
	if source == "" {
		source = model.SourceManual
	}
	if !model.ValidSources[source] {
		return nil, fmt.Errorf("add: invalid source %q (valid: manual, bridge, synthesis)", p.Source)
	}

	now := nowMS()
	stamp := p.Stamp
	if stamp == "" {
		stamp = msTime(now).Format(time.RFC3339)
	}

	id := s.newID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries (id, agent_id, topic, body, stamp, created_at, core, source,
		                      bridge_channel, code_anchors, synthesis_note)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		id, agentID, p.Topic, p.Body, stamp, now, source,
		nullable(p.BridgeChannel), nullable(p.CodeAnchors), nullable(p.SynthesisNote))
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", classify(err))
	}

	return &model.Entry{
		ID:            id,
		AgentID:       agentID,
		Topic:         p.Topic,
		Body:          p.Body,
		Stamp:         stamp,
		CreatedAt:     msTime(now),
		Source:        source,
		BridgeChannel: p.BridgeChannel,
		CodeAnchors:   p.CodeAnchors,
		SynthesisNote: p.SynthesisNote,
	}, nil
}

// Entry fetches one entry by id under the given owner, archived or not.
func (s *Store) Entry(ctx context.Context, owner, id string) (*model.Entry, error) {
	agentID, err := resolveAgent(ctx, s.db, owner)
	if err != nil {
		return nil, err
	}
	return s.entryByID(ctx, s.db, agentID, id)
}

// Edit replaces the body of an entry. CreatedAt is untouched.
func (s *Store) Edit(ctx context.Context, owner, id, body string) (*model.Entry, error) {
	agentID, err := resolveAgent(ctx, s.db, owner)
	if err != nil {
		return nil, fmt.Errorf("edit: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET body = ? WHERE id = ? AND agent_id = ?`,
		body, id, agentID)
	if err != nil {
		return nil, fmt.Errorf("edit entry: %w", classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("edit entry %s: %w", id, ErrNotFound)
	}
	return s.entryByID(ctx, s.db, agentID, id)
}

// Archive soft-deletes an entry. Archiving an already-archived entry is
// a no-op.
func (s *Store) Archive(ctx context.Context, owner, id string) error {
	return s.setArchived(ctx, owner, id, true)
}

// Unarchive reactivates an archived entry. This is the only operation
// that clears archived_at.
func (s *Store) Unarchive(ctx context.Context, owner, id string) error {
	return s.setArchived(ctx, owner, id, false)
}

func (s *Store) setArchived(ctx context.Context, owner, id string, archived bool) error {
	op := "archive"
	if !archived {
		op = "unarchive"
	}

	agentID, err := resolveAgent(ctx, s.db, owner)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var res sql.Result
	if archived {
		res, err = s.db.ExecContext(ctx,
			`UPDATE entries SET archived_at = COALESCE(archived_at, ?) WHERE id = ? AND agent_id = ?`,
			nowMS(), id, agentID)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE entries SET archived_at = NULL WHERE id = ? AND agent_id = ?`,
			id, agentID)
	}
	if err != nil {
		return fmt.Errorf("%s entry: %w", op, classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s entry %s: %w", op, id, ErrNotFound)
	}
	return nil
}

// Delete hard-removes an entry. It refuses while any link still
// references the entry, so link endpoints never dangle.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	agentID, err := resolveAgent(ctx, s.db, owner)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	if _, err := s.entryByID(ctx, tx, agentID, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	var refs int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM links WHERE from_id = ? OR to_id = ?`, id, id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("delete entry: %w", classify(err))
	}
	if refs > 0 {
		return fmt.Errorf("delete entry %s: %d link(s) present: %w", id, refs, ErrEntryLinked)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entries WHERE id = ? AND agent_id = ?`, id, agentID); err != nil {
		return fmt.Errorf("delete entry: %w", classify(err))
	}

	return tx.Commit()
}

// MarkCore toggles the core flag on an entry.
func (s *Store) MarkCore(ctx context.Context, owner, id string, core bool) error {
	agentID, err := resolveAgent(ctx, s.db, owner)
	if err != nil {
		return fmt.Errorf("mark core: %w", err)
	}

	flag := 0
	if core {
		flag = 1
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET core = ? WHERE id = ? AND agent_id = ?`, flag, id, agentID)
	if err != nil {
		return fmt.Errorf("mark core: %w", classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark core %s: %w", id, ErrNotFound)
	}
	return nil
}

// List returns the owner's entries, core entries first, newest first
// within each group. Archived entries are excluded unless requested.
func (s *Store) List(ctx context.Context, p ListParams) ([]model.Entry, error) {
	agentID, err := resolveAgent(ctx, s.db, p.Owner)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	where := []string{"agent_id = ?"}
	args := []any{agentID}

	if !p.IncludeArchived {
		where = append(where, "archived_at IS NULL")
	}
	if p.Topic != "" {
		where = append(where, "topic = ?")
		args = append(args, p.Topic)
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`SELECT %s FROM entries WHERE %s
		ORDER BY core DESC, created_at DESC, id DESC LIMIT ?`,
		entryColumns, strings.Join(where, " AND "))
	args = append(args, limit)

	return s.queryEntries(ctx, query, args...)
}

// Search finds the owner's active entries whose topic or body contains
// the keyword, case-insensitively. Ordering matches List.
func (s *Store) Search(ctx context.Context, p SearchParams) ([]model.Entry, error) {
	agentID, err := resolveAgent(ctx, s.db, p.Owner)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 100
	}
	pattern := "%" + strings.ToLower(p.Keyword) + "%"

	query := fmt.Sprintf(`SELECT %s FROM entries
		WHERE agent_id = ? AND archived_at IS NULL
		  AND (LOWER(topic) LIKE ? OR LOWER(body) LIKE ?)
		ORDER BY core DESC, created_at DESC, id DESC LIMIT ?`, entryColumns)

	return s.queryEntries(ctx, query, agentID, pattern, pattern, limit)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]model.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) entryByID(ctx context.Context, q querier, agentID, id string) (*model.Entry, error) {
	row := q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM entries WHERE id = ? AND agent_id = ?`, entryColumns),
		id, agentID)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, classify(err)
	}
	return &e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (model.Entry, error) {
	var e model.Entry
	var createdAt int64
	var archivedAt sql.NullInt64
	var core int
	var bridgeChannel, codeAnchors, synthesisNote, supersedes, supersededBy sql.NullString

	err := row.Scan(
		&e.ID, &e.AgentID, &e.Topic, &e.Body, &e.Stamp, &createdAt, &archivedAt,
		&core, &e.Source, &bridgeChannel, &codeAnchors, &synthesisNote,
		&supersedes, &supersededBy,
	)
	if err != nil {
		return e, err
	}

	e.CreatedAt = msTime(createdAt)
	if archivedAt.Valid {
		t := msTime(archivedAt.Int64)
		e.ArchivedAt = &t
	}
	e.Core = core != 0
	e.BridgeChannel = bridgeChannel.String
	e.CodeAnchors = codeAnchors.String
	e.SynthesisNote = synthesisNote.String
	e.Supersedes = supersedes.String
	e.SupersededBy = supersededBy.String

	return e, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
