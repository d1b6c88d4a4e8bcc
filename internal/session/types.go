package session

import (
	"context"
	"errors"
	"time"
)

// Speaker values for a turn
const (
	SpeakerUser  = "user"
	SpeakerAgent = "agent"
)

// ErrNotFound is returned by Get for unknown session IDs. First contact is
// not an error at the orchestrator level; it creates a fresh session.
var ErrNotFound = errors.New("session not found")

// Turn is one exchange unit in a session's history
type Turn struct {
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// PendingRequest records an incomplete intent awaiting slot values from the
// user. A nil *PendingRequest on the Session means nothing is pending.
type PendingRequest struct {
	Intent  string            `json:"intent"`
	Known   map[string]string `json:"known"`
	Missing []string          `json:"missing"`
}

// Session holds the conversational context for one interaction stream.
// Invariant: at most one pending request at a time.
type Session struct {
	ID           string          `json:"session_id"`
	Turns        []Turn          `json:"turns"`
	Pending      *PendingRequest `json:"pending,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	LastActivity time.Time       `json:"last_activity"`
}

// New creates an empty session
func New(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		Turns:        []Turn{},
		StartedAt:    now,
		LastActivity: now,
	}
}

// Append adds a turn to the history and bumps activity
func (s *Session) Append(speaker, text string, at time.Time) {
	s.Turns = append(s.Turns, Turn{Speaker: speaker, Text: text, Timestamp: at})
	s.LastActivity = at
}

// Recent returns the last n turns
func (s *Session) Recent(n int) []Turn {
	if n <= 0 || len(s.Turns) <= n {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}

// Store defines the interface for session persistence.
// This allows swapping between Redis, in-memory, etc.
type Store interface {
	// Get loads a session, returning ErrNotFound for unknown IDs
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Put saves a session
	Put(ctx context.Context, s *Session) error

	// Clear removes a session
	Clear(ctx context.Context, sessionID string) error
}
