package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SetSummary overwrites the owner's summary slot. The slot holds one
// value; there is no history.
func (s *Store) SetSummary(ctx context.Context, owner, text string) error {
	agentID, err := resolveAgent(ctx, s.db, owner)
	if err != nil {
		return fmt.Errorf("set summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO summaries (agent_id, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(agent_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		agentID, text, nowMS())
	if err != nil {
		return fmt.Errorf("set summary: %w", classify(err))
	}
	return nil
}

// GetSummary reads the owner's summary slot. An identity that never
// wrote one reads as empty, not as an error.
func (s *Store) GetSummary(ctx context.Context, owner string) (string, error) {
	agentID, err := resolveAgent(ctx, s.db, owner)
	if err != nil {
		return "", fmt.Errorf("get summary: %w", err)
	}

	var body string
	err = s.db.QueryRowContext(ctx,
		`SELECT body FROM summaries WHERE agent_id = ?`, agentID).Scan(&body)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get summary: %w", classify(err))
	}
	return body, nil
}
