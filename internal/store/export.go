package store

import (
	"context"
	"fmt"

	"github.com/spawnlab/hivemem/internal/model"
)

// Snapshot is a portable dump of one identity's active memory.
type Snapshot struct {
	Owner   string        `json:"owner"`
	Summary string        `json:"summary,omitempty"`
	Entries []model.Entry `json:"entries"`
}

// Export returns the owner's active entries and summary, oldest entry
// first so an import replays them in creation order.
func (s *Store) Export(ctx context.Context, owner string) (*Snapshot, error) {
	agentID, err := resolveAgent(ctx, s.db, owner)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM entries
		WHERE agent_id = ? AND archived_at IS NULL
		ORDER BY created_at, id`, entryColumns)
	entries, err := s.queryEntries(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	summary, err := s.GetSummary(ctx, owner)
	if err != nil {
		return nil, err
	}

	return &Snapshot{Owner: owner, Summary: summary, Entries: entries}, nil
}

// Import replays a snapshot's entries into the owner's store under
// fresh ids. Links are provenance of the source store and do not
// travel. Returns the number of entries imported; an error aborts with
// the count so far.
func (s *Store) Import(ctx context.Context, owner string, snap *Snapshot) (int, error) {
	imported := 0
	for _, e := range snap.Entries {
		added, err := s.Add(ctx, AddParams{
			Owner:         owner,
			Topic:         e.Topic,
			Body:          e.Body,
			Stamp:         e.Stamp,
			Source:        e.Source,
			BridgeChannel: e.BridgeChannel,
			CodeAnchors:   e.CodeAnchors,
			SynthesisNote: e.SynthesisNote,
		})
		if err != nil {
			return imported, fmt.Errorf("import entry %d: %w", imported, err)
		}
		if e.Core {
			if err := s.MarkCore(ctx, owner, added.ID, true); err != nil {
				return imported, err
			}
		}
		imported++
	}

	if snap.Summary != "" {
		if err := s.SetSummary(ctx, owner, snap.Summary); err != nil {
			return imported, err
		}
	}
	return imported, nil
}
