package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spawnlab/hivemem/internal/model"
)

// Link creates a directed edge between two entries owned by the same
// agent. A "supersedes" edge also maintains the denormalized
// Supersedes/SupersededBy pointers and archives the replaced entry, all
// in one transaction. The link table is the source of truth; the
// pointer fields are a cache written only here.
func (s *Store) Link(ctx context.Context, p LinkParams) (*model.Link, error) {
	if !model.ValidLinkKinds[p.Kind] {
		return nil, fmt.Errorf("link: invalid kind %q (valid: supersedes, derives_from, relates_to)", p.Kind)
	}
	if p.FromID == p.ToID {
		return nil, fmt.Errorf("link %s -> %s: self reference: %w", p.FromID, p.ToID, ErrCycleDetected)
	}

	agentID, err := resolveAgent(ctx, s.db, p.Owner)
	if err != nil {
		return nil, fmt.Errorf("link: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback()

	fromOwner, err := entryOwner(ctx, tx, p.FromID)
	if err != nil {
		return nil, fmt.Errorf("link from %s: %w", p.FromID, err)
	}
	toOwner, err := entryOwner(ctx, tx, p.ToID)
	if err != nil {
		return nil, fmt.Errorf("link to %s: %w", p.ToID, err)
	}
	if fromOwner != agentID || toOwner != agentID {
		return nil, fmt.Errorf("link %s -> %s: cross-owner: %w", p.FromID, p.ToID, ErrInvalidReference)
	}

	var n int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM links WHERE from_id = ? AND to_id = ? AND kind = ?`,
		p.FromID, p.ToID, p.Kind).Scan(&n)
	if err != nil {
		return nil, classify(err)
	}
	if n > 0 {
		return nil, fmt.Errorf("link %s -> %s (%s): %w", p.FromID, p.ToID, p.Kind, ErrDuplicateLink)
	}

	// Reject the edge if from is already reachable from to via same-kind
	// edges: adding it would close a cycle.
	reachable, err := reaches(ctx, tx, p.Kind, p.ToID, p.FromID)
	if err != nil {
		return nil, err
	}
	if reachable {
		return nil, fmt.Errorf("link %s -> %s (%s): %w", p.FromID, p.ToID, p.Kind, ErrCycleDetected)
	}

	now := nowMS()
	id := s.newID()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO links (id, from_id, to_id, kind, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, p.FromID, p.ToID, p.Kind, now)
	if err != nil {
		return nil, fmt.Errorf("insert link: %w", classify(err))
	}

	if p.Kind == model.KindSupersedes {
		if _, err := tx.ExecContext(ctx,
			`UPDATE entries SET supersedes = ? WHERE id = ?`, p.ToID, p.FromID); err != nil {
			return nil, fmt.Errorf("update supersedes pointer: %w", classify(err))
		}
		// The replaced entry is archived-by-replacement; an earlier
		// explicit archive timestamp is preserved.
		if _, err := tx.ExecContext(ctx,
			`UPDATE entries SET superseded_by = ?, archived_at = COALESCE(archived_at, ?) WHERE id = ?`,
			p.FromID, now, p.ToID); err != nil {
			return nil, fmt.Errorf("update superseded_by pointer: %w", classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}

	return &model.Link{
		ID:        id,
		FromID:    p.FromID,
		ToID:      p.ToID,
		Kind:      p.Kind,
		CreatedAt: msTime(now),
	}, nil
}

// Links returns every edge touching the entry.
func (s *Store) Links(ctx context.Context, owner, entryID string) ([]model.Link, error) {
	agentID, err := resolveAgent(ctx, s.db, owner)
	if err != nil {
		return nil, fmt.Errorf("links: %w", err)
	}
	if _, err := s.entryByID(ctx, s.db, agentID, entryID); err != nil {
		return nil, fmt.Errorf("links: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_id, to_id, kind, created_at FROM links
		 WHERE from_id = ? OR to_id = ? ORDER BY created_at`, entryID, entryID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var links []model.Link
	for rows.Next() {
		var l model.Link
		var createdAt int64
		if err := rows.Scan(&l.ID, &l.FromID, &l.ToID, &l.Kind, &createdAt); err != nil {
			return nil, err
		}
		l.CreatedAt = msTime(createdAt)
		links = append(links, l)
	}
	return links, rows.Err()
}

// Chain returns the full supersession chain containing the entry,
// ordered origin first, latest version last. Archived members are
// included; they are the chain's history.
func (s *Store) Chain(ctx context.Context, owner, entryID string) ([]model.Entry, error) {
	agentID, err := resolveAgent(ctx, s.db, owner)
	if err != nil {
		return nil, fmt.Errorf("chain: %w", err)
	}

	start, err := s.entryByID(ctx, s.db, agentID, entryID)
	if err != nil {
		return nil, fmt.Errorf("chain: %w", err)
	}

	seen := map[string]bool{start.ID: true}

	// Walk backward to the origin.
	var back []model.Entry
	cur := start
	for cur.Supersedes != "" {
		prev, err := s.entryByID(ctx, s.db, agentID, cur.Supersedes)
		if err != nil {
			return nil, fmt.Errorf("chain: follow supersedes from %s: %w", cur.ID, err)
		}
		if seen[prev.ID] {
			return nil, fmt.Errorf("chain %s: %w", entryID, ErrCycleDetected)
		}
		seen[prev.ID] = true
		back = append(back, *prev)
		cur = prev
	}

	// Reverse into origin-first order, then append forward.
	chain := make([]model.Entry, 0, len(back)+1)
	for i := len(back) - 1; i >= 0; i-- {
		chain = append(chain, back[i])
	}
	chain = append(chain, *start)

	cur = start
	for cur.SupersededBy != "" {
		next, err := s.entryByID(ctx, s.db, agentID, cur.SupersededBy)
		if err != nil {
			return nil, fmt.Errorf("chain: follow superseded_by from %s: %w", cur.ID, err)
		}
		if seen[next.ID] {
			return nil, fmt.Errorf("chain %s: %w", entryID, ErrCycleDetected)
		}
		seen[next.ID] = true
		chain = append(chain, *next)
		cur = next
	}

	return chain, nil
}

// entryOwner returns the owning agent id of an entry, or
// ErrInvalidReference when the entry does not exist.
func entryOwner(ctx context.Context, q querier, id string) (string, error) {
	var agentID string
	err := q.QueryRowContext(ctx, `SELECT agent_id FROM entries WHERE id = ?`, id).Scan(&agentID)
	if err == sql.ErrNoRows {
		return "", ErrInvalidReference
	}
	if err != nil {
		return "", classify(err)
	}
	return agentID, nil
}

// reaches reports whether dst is reachable from src following edges of
// the given kind in the from -> to direction.
func reaches(ctx context.Context, q querier, kind, src, dst string) (bool, error) {
	frontier := []string{src}
	visited := map[string]bool{src: true}

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]

		rows, err := q.QueryContext(ctx,
			`SELECT to_id FROM links WHERE from_id = ? AND kind = ?`, cur, kind)
		if err != nil {
			return false, classify(err)
		}
		for rows.Next() {
			var next string
			if err := rows.Scan(&next); err != nil {
				rows.Close()
				return false, err
			}
			if next == dst {
				rows.Close()
				return true, nil
			}
			if !visited[next] {
				visited[next] = true
				frontier = append(frontier, next)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return false, err
		}
		rows.Close()
	}
	return false, nil
}
