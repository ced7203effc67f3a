package store

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced by the store. Callers match these with errors.Is;
// every returned error wraps one of them together with the entity id and
// operation that failed.
var (
	// ErrNotFound indicates an unknown entry, agent, or session id.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a duplicate agent registration.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidReference indicates a link endpoint that is missing or
	// owned by a different agent.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrDuplicateLink indicates the (from, to, kind) triple already exists.
	ErrDuplicateLink = errors.New("duplicate link")

	// ErrCycleDetected indicates a link that would close a cycle, or a
	// malformed supersession chain found during traversal.
	ErrCycleDetected = errors.New("cycle detected")

	// ErrNoActiveSession indicates a wake with no open session.
	ErrNoActiveSession = errors.New("no active session")

	// ErrEntryLinked indicates a hard delete of an entry still referenced
	// by links.
	ErrEntryLinked = errors.New("entry is referenced by links")

	// ErrMigrationFailed is fatal: the store could not be brought to the
	// current schema version and must not be used.
	ErrMigrationFailed = errors.New("schema migration failed")

	// ErrStorageUnavailable indicates the underlying file store is locked
	// or otherwise unreachable. The store never retries mid-operation;
	// the caller may.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// classify maps driver-level busy/locked failures onto
// ErrStorageUnavailable so callers can detect transient lock contention.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isBusy(err) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return err
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
