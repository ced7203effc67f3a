package store

import (
	"context"
	"testing"
)

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	registerTestAgent(t, s, "a")
	registerTestAgent(t, s, "b")

	first, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "boot", Body: "hello"})
	s.MarkCore(ctx, "a", first.ID, true)
	s.Add(ctx, AddParams{Owner: "a", Topic: "infra", Body: "world"})
	archived, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "junk", Body: "stale"})
	s.Archive(ctx, "a", archived.ID)
	s.SetSummary(ctx, "a", "state of a")

	snap, err := s.Export(ctx, "a")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(snap.Entries) != 2 {
		t.Fatalf("expected 2 active entries in snapshot, got %d", len(snap.Entries))
	}
	if snap.Summary != "state of a" {
		t.Errorf("expected summary in snapshot, got %q", snap.Summary)
	}

	n, err := s.Import(ctx, "b", snap)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 imported, got %d", n)
	}

	entries, _ := s.List(ctx, ListParams{Owner: "b"})
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for b, got %d", len(entries))
	}
	if !entries[0].Core {
		t.Error("expected core flag to survive import")
	}

	summary, _ := s.GetSummary(ctx, "b")
	if summary != "state of a" {
		t.Errorf("expected imported summary, got %q", summary)
	}
}
