package agent

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avvvet/homebuddy-agent/internal/compose"
	"github.com/avvvet/homebuddy-agent/internal/dispatch"
	"github.com/avvvet/homebuddy-agent/internal/intent"
	"github.com/avvvet/homebuddy-agent/internal/models"
	"github.com/avvvet/homebuddy-agent/internal/session"
	"github.com/avvvet/homebuddy-agent/internal/slots"
)

// Orchestrator sequences one conversational turn: load session, resolve
// intent, validate slots, dispatch, compose, persist. Every turn produces a
// well-formed reply; there is no unhandled-failure exit.
type Orchestrator struct {
	sessions   session.Store
	locker     *session.Locker
	resolver   *intent.Resolver
	validator  *slots.Validator
	dispatcher *dispatch.Dispatcher
	now        func() time.Time
	newID      func() string
}

func NewOrchestrator(sessions session.Store, resolver *intent.Resolver, validator *slots.Validator, dispatcher *dispatch.Dispatcher, now func() time.Time) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		sessions:   sessions,
		locker:     session.NewLocker(),
		resolver:   resolver,
		validator:  validator,
		dispatcher: dispatcher,
		now:        now,
		newID:      uuid.NewString,
	}
}

// Turn processes one user message. Turns for the same session are serialized;
// different sessions proceed in parallel.
func (o *Orchestrator) Turn(ctx context.Context, sessionID, text string) *models.TurnResponse {
	if sessionID == "" {
		sessionID = o.newID()
	}

	o.locker.Lock(sessionID)
	defer o.locker.Unlock(sessionID)

	now := o.now()

	sess, err := o.sessions.Get(ctx, sessionID)
	if err == session.ErrNotFound {
		sess = session.New(sessionID, now)
	} else if err != nil {
		log.Printf("session load failed for %s: %v", sessionID, err)
		reply, side := compose.Unavailable()
		return o.response(sessionID, reply, side, now)
	}

	sess.Append(session.SpeakerUser, text, now)

	resolution := o.resolver.Resolve(ctx, text, sess)

	reply, side := o.handleResolution(ctx, sess, resolution)

	sess.Append(session.SpeakerAgent, reply, o.now())
	if err := o.sessions.Put(ctx, sess); err != nil {
		log.Printf("session save failed for %s: %v", sessionID, err)
	}

	return o.response(sessionID, reply, side, now)
}

func (o *Orchestrator) handleResolution(ctx context.Context, sess *session.Session, resolution *intent.Resolution) (string, compose.SideChannel) {
	switch resolution.Intent {
	case models.IntentUnknown:
		// Low confidence or provider failure; pending state is untouched
		return compose.Unknown()
	case models.IntentGreeting:
		sess.Pending = nil
		return compose.Greeting()
	}

	validation := o.validator.Validate(resolution.Intent, resolution.Slots)

	switch validation.State {
	case slots.StateIncomplete:
		// Store the partial state; a new unrelated intent would have
		// superseded it already (last-intent-wins in the resolver)
		sess.Pending = &session.PendingRequest{
			Intent:  resolution.Intent,
			Known:   validation.Known,
			Missing: validation.Missing,
		}
		return compose.Clarification(resolution.Intent, validation.Missing)

	case slots.StateInvalid:
		// Keep the flow pending with the offending slot cleared so the
		// user can resupply just that value
		known := make(map[string]string, len(resolution.Slots))
		for key, value := range resolution.Slots {
			if key != validation.Field && strings.TrimSpace(value) != "" {
				known[key] = value
			}
		}
		sess.Pending = &session.PendingRequest{
			Intent:  resolution.Intent,
			Known:   known,
			Missing: []string{validation.Field},
		}
		return compose.Invalid(resolution.Intent, validation.Reason)
	}

	// Intent is complete: the pending request (if any) is consumed
	sess.Pending = nil

	outcome := o.dispatcher.Dispatch(ctx, resolution.Intent, validation.Typed)
	return compose.Result(outcome)
}

// History returns the ordered turn list; unknown sessions yield an empty one
func (o *Orchestrator) History(ctx context.Context, sessionID string) ([]models.TurnInfo, error) {
	sess, err := o.sessions.Get(ctx, sessionID)
	if err == session.ErrNotFound {
		return []models.TurnInfo{}, nil
	}
	if err != nil {
		return nil, err
	}

	turns := make([]models.TurnInfo, 0, len(sess.Turns))
	for _, turn := range sess.Turns {
		turns = append(turns, models.TurnInfo{
			Speaker:   turn.Speaker,
			Text:      turn.Text,
			Timestamp: turn.Timestamp,
		})
	}
	return turns, nil
}

// Clear destroys a session. The old identifier no longer resolves to any
// state; a later turn with it starts from scratch.
func (o *Orchestrator) Clear(ctx context.Context, sessionID string) error {
	o.locker.Lock(sessionID)
	defer o.locker.Unlock(sessionID)

	return o.sessions.Clear(ctx, sessionID)
}

func (o *Orchestrator) response(sessionID, reply string, side compose.SideChannel, at time.Time) *models.TurnResponse {
	return &models.TurnResponse{
		SessionID:        sessionID,
		Reply:            reply,
		Intent:           side.Intent,
		ActionSuccessful: side.ActionSuccessful,
		Timestamp:        at,
	}
}
