package intent

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/avvvet/homebuddy-agent/internal/llm"
	"github.com/avvvet/homebuddy-agent/internal/models"
	"github.com/avvvet/homebuddy-agent/internal/session"
)

// Resolution is the resolver's final read of one utterance
type Resolution struct {
	Intent     string
	Slots      map[string]string
	Confidence float64
}

// Resolver turns raw text plus conversation state into a resolved intent.
// It wraps the language-understanding provider and compensates for its
// unreliability: timeouts and errors degrade to unknown, never fail the turn.
type Resolver struct {
	provider  llm.Provider
	threshold float64
	timeout   time.Duration
	window    int
}

func NewResolver(provider llm.Provider, threshold float64, timeout time.Duration, historyWindow int) *Resolver {
	return &Resolver{
		provider:  provider,
		threshold: threshold,
		timeout:   timeout,
		window:    historyWindow,
	}
}

var bareNumberRe = regexp.MustCompile(`^\$?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)$`)

func isMaintenanceIntent(intentType string) bool {
	return intentType == models.IntentAddMaintenance || intentType == models.IntentQueryMaintenance
}

func (r *Resolver) Resolve(ctx context.Context, text string, sess *session.Session) *Resolution {
	conv := llm.ConversationContext{
		RecentTurns: sess.Recent(r.window),
		Pending:     sess.Pending,
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	guess, err := r.provider.Infer(callCtx, text, conv)
	if err != nil {
		log.Printf("intent inference failed for session %s: %v", sess.ID, err)
		guess = &llm.Guess{Intent: models.IntentUnknown, Slots: map[string]string{}, Confidence: 0}
	}
	if guess.Slots == nil {
		guess.Slots = map[string]string{}
	}

	// Regex backstop fills what the model missed
	entities := ExtractEntities(text)
	if isMaintenanceIntent(guess.Intent) || (sess.Pending != nil && isMaintenanceIntent(sess.Pending.Intent)) {
		remapMaintenanceEntities(entities)
	}
	for key, value := range entities {
		if _, ok := guess.Slots[key]; !ok {
			guess.Slots[key] = value
		}
	}

	if sess.Pending != nil {
		return r.resolveWithPending(text, sess.Pending, guess)
	}

	if guess.Confidence < r.threshold {
		return &Resolution{Intent: models.IntentUnknown, Slots: guess.Slots, Confidence: guess.Confidence}
	}

	return &Resolution{Intent: guess.Intent, Slots: guess.Slots, Confidence: guess.Confidence}
}

// resolveWithPending biases interpretation toward answering the outstanding
// clarification. A confident, different intent wins instead (last-intent-wins).
func (r *Resolver) resolveWithPending(text string, pending *session.PendingRequest, guess *llm.Guess) *Resolution {
	if guess.Intent != pending.Intent && guess.Intent != models.IntentUnknown && guess.Confidence >= r.threshold {
		return &Resolution{Intent: guess.Intent, Slots: guess.Slots, Confidence: guess.Confidence}
	}

	slots := make(map[string]string, len(pending.Known)+len(guess.Slots))
	for key, value := range pending.Known {
		slots[key] = value
	}
	for key, value := range guess.Slots {
		slots[key] = value
	}

	bindBareAnswer(text, pending.Missing, slots)

	return &Resolution{Intent: pending.Intent, Slots: slots, Confidence: 1}
}

// bindBareAnswer maps a terse reply onto the first missing slot it can
// plausibly satisfy: a lone number answers "what amount?", a date answers
// "when is it due?", anything else fills the first missing free-text slot.
func bindBareAnswer(text string, missing []string, slots map[string]string) {
	trimmed := strings.TrimSpace(text)

	stillMissing := func(name string) bool {
		if _, ok := slots[name]; ok {
			return false
		}
		for _, m := range missing {
			if m == name {
				return true
			}
		}
		return false
	}

	if stillMissing("amount") {
		if m := bareNumberRe.FindStringSubmatch(trimmed); m != nil {
			slots["amount"] = m[1]
			return
		}
	}

	for _, slot := range []string{"name", "title"} {
		if stillMissing(slot) {
			if remainder := stripEntityText(trimmed); remainder != "" {
				slots[slot] = remainder
				return
			}
		}
	}

	for _, name := range missing {
		if _, ok := slots[name]; !ok {
			slots[name] = trimmed
			return
		}
	}
}
