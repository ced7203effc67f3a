package store

import (
	"context"
	"errors"
	"testing"
)

func TestLinkSupersedes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	registerTestAgent(t, s, "a")

	older, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "t", Body: "v1"})
	newer, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "t", Body: "v2"})

	link, err := s.Link(ctx, LinkParams{Owner: "a", FromID: newer.ID, ToID: older.ID, Kind: "supersedes"})
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if link.ID == "" {
		t.Error("expected link id")
	}

	gotNewer, _ := s.Entry(ctx, "a", newer.ID)
	gotOlder, _ := s.Entry(ctx, "a", older.ID)

	if gotNewer.Supersedes != older.ID {
		t.Errorf("expected newer.Supersedes == older id, got %q", gotNewer.Supersedes)
	}
	if gotOlder.SupersededBy != newer.ID {
		t.Errorf("expected older.SupersededBy == newer id, got %q", gotOlder.SupersededBy)
	}
	if gotOlder.ArchivedAt == nil {
		t.Error("expected superseded entry to be archived by replacement")
	}

	// The replaced entry drops out of the default listing.
	entries, _ := s.List(ctx, ListParams{Owner: "a"})
	if len(entries) != 1 || entries[0].ID != newer.ID {
		t.Errorf("expected only the current version listed, got %d entries", len(entries))
	}
}

func TestLinkDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	registerTestAgent(t, s, "a")

	from, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "t", Body: "x"})
	to, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "t", Body: "y"})

	if _, err := s.Link(ctx, LinkParams{Owner: "a", FromID: from.ID, ToID: to.ID, Kind: "derives_from"}); err != nil {
		t.Fatalf("first link: %v", err)
	}

	_, err := s.Link(ctx, LinkParams{Owner: "a", FromID: from.ID, ToID: to.ID, Kind: "derives_from"})
	if !errors.Is(err, ErrDuplicateLink) {
		t.Fatalf("expected ErrDuplicateLink, got %v", err)
	}

	// Graph unchanged by the failed call.
	links, _ := s.Links(ctx, "a", from.ID)
	if len(links) != 1 {
		t.Errorf("expected 1 link after duplicate rejection, got %d", len(links))
	}

	// Same endpoints, different kind is a distinct edge.
	if _, err := s.Link(ctx, LinkParams{Owner: "a", FromID: from.ID, ToID: to.ID, Kind: "relates_to"}); err != nil {
		t.Errorf("different-kind link should succeed: %v", err)
	}
}

func TestLinkInvalidReference(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	registerTestAgent(t, s, "a")
	registerTestAgent(t, s, "b")

	mine, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "t", Body: "x"})
	theirs, _ := s.Add(ctx, AddParams{Owner: "b", Topic: "t", Body: "y"})

	if _, err := s.Link(ctx, LinkParams{Owner: "a", FromID: mine.ID, ToID: "missing", Kind: "relates_to"}); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference for missing endpoint, got %v", err)
	}

	if _, err := s.Link(ctx, LinkParams{Owner: "a", FromID: mine.ID, ToID: theirs.ID, Kind: "relates_to"}); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference for cross-owner link, got %v", err)
	}
}

func TestLinkInvalidKind(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	registerTestAgent(t, s, "a")

	from, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "t", Body: "x"})
	to, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "t", Body: "y"})

	if _, err := s.Link(ctx, LinkParams{Owner: "a", FromID: from.ID, ToID: to.ID, Kind: "bogus"}); err == nil {
		t.Fatal("expected error for invalid kind")
	}
}

func TestLinkCycleRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	registerTestAgent(t, s, "a")

	a, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "t", Body: "a"})
	b, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "t", Body: "b"})
	c, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "t", Body: "c"})

	if _, err := s.Link(ctx, LinkParams{Owner: "a", FromID: b.ID, ToID: a.ID, Kind: "supersedes"}); err != nil {
		t.Fatalf("b->a: %v", err)
	}
	if _, err := s.Link(ctx, LinkParams{Owner: "a", FromID: c.ID, ToID: b.ID, Kind: "supersedes"}); err != nil {
		t.Fatalf("c->b: %v", err)
	}

	// a -> c would close the loop a <- b <- c.
	if _, err := s.Link(ctx, LinkParams{Owner: "a", FromID: a.ID, ToID: c.ID, Kind: "supersedes"}); !errors.Is(err, ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected, got %v", err)
	}

	// Self links are trivially cyclic.
	if _, err := s.Link(ctx, LinkParams{Owner: "a", FromID: a.ID, ToID: a.ID, Kind: "relates_to"}); !errors.Is(err, ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected for self link, got %v", err)
	}
}

func TestChainOrderAndNoRepeats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	registerTestAgent(t, s, "a")

	v1, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "t", Body: "v1"})
	v2, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "t", Body: "v2"})
	v3, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "t", Body: "v3"})

	s.Link(ctx, LinkParams{Owner: "a", FromID: v2.ID, ToID: v1.ID, Kind: "supersedes"})
	s.Link(ctx, LinkParams{Owner: "a", FromID: v3.ID, ToID: v2.ID, Kind: "supersedes"})

	// Entering the chain anywhere yields the same origin-first sequence.
	for _, start := range []string{v1.ID, v2.ID, v3.ID} {
		chain, err := s.Chain(ctx, "a", start)
		if err != nil {
			t.Fatalf("chain from %s: %v", start, err)
		}
		if len(chain) != 3 {
			t.Fatalf("expected 3 members, got %d", len(chain))
		}
		if chain[0].ID != v1.ID || chain[1].ID != v2.ID || chain[2].ID != v3.ID {
			t.Errorf("wrong order from %s: %s %s %s", start, chain[0].Body, chain[1].Body, chain[2].Body)
		}
		seen := map[string]bool{}
		for _, e := range chain {
			if seen[e.ID] {
				t.Fatalf("repeated id %s in chain", e.ID)
			}
			seen[e.ID] = true
		}
	}
}

func TestChainDetectsMalformedCycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	registerTestAgent(t, s, "a")

	x, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "t", Body: "x"})
	y, _ := s.Add(ctx, AddParams{Owner: "a", Topic: "t", Body: "y"})

	// Corrupt the denormalized pointers directly, as an external writer
	// might; the write path itself cannot produce this.
	if _, err := s.db.Exec(`UPDATE entries SET superseded_by = ? WHERE id = ?`, y.ID, x.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.Exec(`UPDATE entries SET superseded_by = ? WHERE id = ?`, x.ID, y.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Chain(ctx, "a", x.ID); !errors.Is(err, ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected, got %v", err)
	}
}
