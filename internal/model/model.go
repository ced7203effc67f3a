// Package model defines the core memory and identity data types.
package model

import "time"

// Entry represents one durable memory note owned by a single agent.
type Entry struct {
	ID            string     `json:"id"`
	AgentID       string     `json:"agent_id"`
	Topic         string     `json:"topic"`
	Body          string     `json:"body"`
	Stamp         string     `json:"stamp"`
	CreatedAt     time.Time  `json:"created_at"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
	Core          bool       `json:"core"`
	Source        string     `json:"source"`
	BridgeChannel string     `json:"bridge_channel,omitempty"`
	CodeAnchors   string     `json:"code_anchors,omitempty"`
	SynthesisNote string     `json:"synthesis_note,omitempty"`
	Supersedes    string     `json:"supersedes,omitempty"`
	SupersededBy  string     `json:"superseded_by,omitempty"`
}

// Archived reports whether the entry has been soft-deleted.
func (e *Entry) Archived() bool {
	return e.ArchivedAt != nil
}

// Link is a directed relation between two entries. Links are permanent
// provenance: created once, never mutated or removed.
type Link struct {
	ID        string    `json:"id"`
	FromID    string    `json:"from_id"`
	ToID      string    `json:"to_id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Agent is a named actor whose memory and sessions are tracked.
type Agent struct {
	ID              string     `json:"id"`
	Handle          string     `json:"handle"`
	Model           string     `json:"model"`
	Constitution    string     `json:"constitution,omitempty"`
	SelfDescription string     `json:"self_description,omitempty"`
	SpawnCount      int        `json:"spawn_count"`
	WakesThisSpawn  int        `json:"wakes_this_spawn"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	LastActiveAt    time.Time  `json:"last_active_at"`
}

// Session is the active window of one spawn.
type Session struct {
	ID          string     `json:"id"`
	AgentID     string     `json:"agent_id"`
	SpawnNumber int        `json:"spawn_number"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Wakes       int        `json:"wakes"`
}

// Open reports whether the session has not been closed yet.
func (s *Session) Open() bool {
	return s.EndedAt == nil
}

// Summary is the single overwritable scratch value for an agent.
type Summary struct {
	AgentID   string    `json:"agent_id"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entry provenance tags.
const (
	SourceManual    = "manual"
	SourceBridge    = "bridge"
	SourceSynthesis = "synthesis"
)

// ValidSources are the allowed entry provenance tags.
var ValidSources = map[string]bool{
	SourceManual:    true,
	SourceBridge:    true,
	SourceSynthesis: true,
}

// Link relation kinds.
const (
	KindSupersedes  = "supersedes"
	KindDerivesFrom = "derives_from"
	KindRelatesTo   = "relates_to"
)

// ValidLinkKinds are the allowed link relation kinds.
var ValidLinkKinds = map[string]bool{
	KindSupersedes:  true,
	KindDerivesFrom: true,
	KindRelatesTo:   true,
}
