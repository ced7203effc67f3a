package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "memory.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func registerTestAgent(t *testing.T, s *Store, handle string) {
	t.Helper()
	if _, err := s.Register(context.Background(), RegisterParams{Handle: handle, Model: "m1"}); err != nil {
		t.Fatalf("register %s: %v", handle, err)
	}
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "memory.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}

func TestReopenPreservesData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "memory.db")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	registerTestAgent(t, s, "worker-1")
	entry, err := s.Add(ctx, AddParams{Owner: "worker-1", Topic: "boot", Body: "hello"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	s.Close()

	// Reopening re-runs the migration path against a current-version
	// store; it must be a no-op that loses nothing.
	s2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s2.Close()

	got, err := s2.Entry(ctx, "worker-1", entry.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Body != "hello" {
		t.Errorf("expected body 'hello', got %q", got.Body)
	}
}
