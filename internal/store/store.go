// Package store provides the memory/identity persistence core and its
// SQLite implementation.
package store

// AddParams holds parameters for creating an entry.
type AddParams struct {
	Owner         string // agent handle
	Topic         string
	Body          string
	Stamp         string // display timestamp; defaults to RFC3339 of now
	Source        string // manual | bridge | synthesis
	BridgeChannel string
	CodeAnchors   string
	SynthesisNote string
}

// ListParams holds parameters for listing entries.
type ListParams struct {
	Owner           string
	Topic           string
	IncludeArchived bool
	Limit           int
}

// SearchParams holds parameters for keyword search.
type SearchParams struct {
	Owner   string
	Keyword string
	Limit   int
}

// LinkParams holds parameters for creating a link between two entries.
type LinkParams struct {
	Owner  string
	FromID string
	ToID   string
	Kind   string // supersedes | derives_from | relates_to
}

// RegisterParams holds parameters for registering an agent.
type RegisterParams struct {
	Handle          string
	Model           string
	Constitution    string // optional; empty for ephemeral identities
	SelfDescription string
}
