package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath        string       `json:"db_path"`
	DBSizeBytes   int64        `json:"db_size_bytes"`
	Agents        int          `json:"agents"`
	TotalEntries  int          `json:"total_entries"`
	ActiveEntries int          `json:"active_entries"`
	CoreEntries   int          `json:"core_entries"`
	Links         int          `json:"links"`
	Sessions      int          `json:"sessions"`
	ByAgent       []AgentStats `json:"by_agent"`
}

// AgentStats holds per-identity counts.
type AgentStats struct {
	Handle  string `json:"handle"`
	Entries int    `json:"entries"`
	Topics  int    `json:"topics"`
	Spawns  int    `json:"spawns"`
}

// Stats returns store statistics.
func (s *Store) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM agents WHERE archived_at IS NULL`).Scan(&st.Agents)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&st.TotalEntries)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE archived_at IS NULL`).Scan(&st.ActiveEntries)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE core = 1 AND archived_at IS NULL`).Scan(&st.CoreEntries)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links`).Scan(&st.Links)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&st.Sessions)

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.handle, COUNT(e.id), COUNT(DISTINCT e.topic), a.spawn_count
		FROM agents a LEFT JOIN entries e ON e.agent_id = a.id AND e.archived_at IS NULL
		WHERE a.archived_at IS NULL
		GROUP BY a.id ORDER BY COUNT(e.id) DESC`)
	if err != nil {
		return st, classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		var as AgentStats
		rows.Scan(&as.Handle, &as.Entries, &as.Topics, &as.Spawns)
		st.ByAgent = append(st.ByAgent, as)
	}

	return st, rows.Err()
}
