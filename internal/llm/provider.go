package llm

import (
	"context"

	"github.com/avvvet/homebuddy-agent/internal/session"
)

// Guess is the provider's structured interpretation of an utterance
type Guess struct {
	Intent     string            `json:"intent"`
	Slots      map[string]string `json:"slots"`
	Confidence float64           `json:"confidence"`
}

// ConversationContext carries what the provider may condition on
type ConversationContext struct {
	RecentTurns []session.Turn
	Pending     *session.PendingRequest
}

// Provider defines the interface for language-understanding backends.
// The orchestration logic stays deterministic by stubbing this in tests.
type Provider interface {
	Infer(ctx context.Context, text string, conv ConversationContext) (*Guess, error)
}
