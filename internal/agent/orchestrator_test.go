package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/homebuddy-agent/internal/analytics"
	"github.com/avvvet/homebuddy-agent/internal/dispatch"
	"github.com/avvvet/homebuddy-agent/internal/expense"
	"github.com/avvvet/homebuddy-agent/internal/intent"
	"github.com/avvvet/homebuddy-agent/internal/llm"
	"github.com/avvvet/homebuddy-agent/internal/models"
	"github.com/avvvet/homebuddy-agent/internal/session"
	"github.com/avvvet/homebuddy-agent/internal/slots"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 25, 12, 0, 0, 0, time.UTC)
}

// scriptedProvider returns queued guesses in order so every turn is
// deterministic
type scriptedProvider struct {
	guesses []*llm.Guess
	errs    []error
	calls   int
}

func (s *scriptedProvider) Infer(ctx context.Context, text string, conv llm.ConversationContext) (*llm.Guess, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.guesses) {
		return s.guesses[i], nil
	}
	return &llm.Guess{Intent: models.IntentUnknown, Slots: map[string]string{}}, nil
}

type fixture struct {
	orchestrator *Orchestrator
	sessions     session.Store
	bills        expense.Store
}

func newFixture(provider llm.Provider) *fixture {
	sessions := session.NewMemoryStore()
	bills := expense.NewMemoryStore()
	analyticsService := analytics.NewService(bills, fixedNow)
	resolver := intent.NewResolver(provider, 0.6, 5*time.Second, 10)
	validator := slots.NewValidator(fixedNow)
	dispatcher := dispatch.NewDispatcher(bills, analyticsService, fixedNow)

	return &fixture{
		orchestrator: NewOrchestrator(sessions, resolver, validator, dispatcher, fixedNow),
		sessions:     sessions,
		bills:        bills,
	}
}

func TestSlotFillConvergence(t *testing.T) {
	provider := &scriptedProvider{guesses: []*llm.Guess{
		{Intent: models.IntentAddBill, Slots: map[string]string{}, Confidence: 0.9},
		{Intent: models.IntentUnknown, Slots: map[string]string{}, Confidence: 0},
	}}
	f := newFixture(provider)
	ctx := context.Background()

	first := f.orchestrator.Turn(ctx, "s1", "Add a bill")
	assert.False(t, first.ActionSuccessful)
	assert.Contains(t, first.Reply, "Please provide:")

	// Partial state is stored as the pending request
	sess, err := f.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, sess.Pending)
	assert.Equal(t, models.IntentAddBill, sess.Pending.Intent)

	second := f.orchestrator.Turn(ctx, "s1", "Electric, $120, due July 15")
	assert.True(t, second.ActionSuccessful)
	assert.Equal(t, models.IntentAddBill, second.Intent)

	// Exactly one bill, with the canonical parse
	bills, err := f.bills.ListBills(ctx, expense.Filter{})
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, "Electric", bills[0].Name)
	assert.Equal(t, 120.0, bills[0].Amount)
	assert.True(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC).Equal(bills[0].DueDate))

	// Exactly one clarification happened in between, and the pending
	// request was consumed
	turns, err := f.orchestrator.History(ctx, "s1")
	require.NoError(t, err)
	clarifications := 0
	for _, turn := range turns {
		if turn.Speaker == session.SpeakerAgent && strings.Contains(turn.Text, "Please provide:") {
			clarifications++
		}
	}
	assert.Equal(t, 1, clarifications)

	sess, err = f.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, sess.Pending)
}

func TestIntentSwitchAbandonsPending(t *testing.T) {
	provider := &scriptedProvider{guesses: []*llm.Guess{
		{Intent: models.IntentAddBill, Slots: map[string]string{"name": "Hulu"}, Confidence: 0.9},
		{Intent: models.IntentGetSummary, Slots: map[string]string{}, Confidence: 0.95},
	}}
	f := newFixture(provider)
	ctx := context.Background()

	first := f.orchestrator.Turn(ctx, "s1", "Add my Hulu bill")
	assert.False(t, first.ActionSuccessful) // amount and due_date still missing

	second := f.orchestrator.Turn(ctx, "s1", "show me my monthly summary")
	assert.Equal(t, models.IntentGetSummary, second.Intent)
	assert.True(t, second.ActionSuccessful)
	assert.Contains(t, second.Reply, "Summary for 2025-06")

	// The abandoned partial AddBill must not resurface
	sess, err := f.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, sess.Pending)

	bills, err := f.bills.ListBills(ctx, expense.Filter{})
	require.NoError(t, err)
	assert.Empty(t, bills)
}

func TestClearDestroysSessionState(t *testing.T) {
	provider := &scriptedProvider{guesses: []*llm.Guess{
		{Intent: models.IntentGreeting, Slots: map[string]string{}, Confidence: 0.9},
		{Intent: models.IntentGreeting, Slots: map[string]string{}, Confidence: 0.9},
	}}
	f := newFixture(provider)
	ctx := context.Background()

	f.orchestrator.Turn(ctx, "s1", "hello")

	require.NoError(t, f.orchestrator.Clear(ctx, "s1"))

	turns, err := f.orchestrator.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)

	_, err = f.sessions.Get(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrNotFound)

	// Reusing the identifier starts from scratch
	f.orchestrator.Turn(ctx, "s1", "hello again")
	turns, err = f.orchestrator.History(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}

func TestEndToEndAddAndQueryUpcoming(t *testing.T) {
	provider := &scriptedProvider{guesses: []*llm.Guess{
		{Intent: models.IntentAddBill, Slots: map[string]string{"name": "Internet"}, Confidence: 0.9},
		{Intent: models.IntentQueryUpcoming, Slots: map[string]string{}, Confidence: 0.9},
	}}
	f := newFixture(provider)
	ctx := context.Background()

	first := f.orchestrator.Turn(ctx, "s1", "Add a bill: Internet $89.99 due July 10th")
	require.True(t, first.ActionSuccessful)
	assert.Contains(t, first.Reply, "Internet")
	assert.Contains(t, first.Reply, "$89.99")

	bills, err := f.bills.ListBills(ctx, expense.Filter{})
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, "Internet", bills[0].Name)
	assert.Equal(t, 89.99, bills[0].Amount)
	assert.Equal(t, models.BillStatusPending, bills[0].Status)
	assert.True(t, time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC).Equal(bills[0].DueDate))

	second := f.orchestrator.Turn(ctx, "s1", "what bills are due soon?")
	assert.True(t, second.ActionSuccessful)
	assert.Equal(t, models.IntentQueryUpcoming, second.Intent)
	assert.Contains(t, second.Reply, "Internet")
}

func TestInvalidSlotPromptsCorrection(t *testing.T) {
	provider := &scriptedProvider{guesses: []*llm.Guess{
		{Intent: models.IntentAddBill, Slots: map[string]string{"name": "Electric", "amount": "abc", "due_date": "july 15"}, Confidence: 0.9},
		{Intent: models.IntentUnknown, Slots: map[string]string{}, Confidence: 0},
	}}
	f := newFixture(provider)
	ctx := context.Background()

	first := f.orchestrator.Turn(ctx, "s1", "Add my Electric bill for abc due July 15")
	assert.False(t, first.ActionSuccessful)
	assert.Contains(t, first.Reply, "amount")

	// The offending slot is re-collected; the rest is kept
	second := f.orchestrator.Turn(ctx, "s1", "120")
	require.True(t, second.ActionSuccessful)

	bills, err := f.bills.ListBills(ctx, expense.Filter{})
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, "Electric", bills[0].Name)
	assert.Equal(t, 120.0, bills[0].Amount)
}

func TestProviderFailureDegradesToUnknown(t *testing.T) {
	provider := &scriptedProvider{errs: []error{errors.New("model timeout")}}
	f := newFixture(provider)

	response := f.orchestrator.Turn(context.Background(), "s1", "add a bill please")
	assert.False(t, response.ActionSuccessful)
	assert.Equal(t, models.IntentUnknown, response.Intent)
	assert.NotContains(t, response.Reply, "timeout")
}

func TestGreeting(t *testing.T) {
	provider := &scriptedProvider{guesses: []*llm.Guess{
		{Intent: models.IntentGreeting, Slots: map[string]string{}, Confidence: 0.9},
	}}
	f := newFixture(provider)

	response := f.orchestrator.Turn(context.Background(), "s1", "hi there")
	assert.True(t, response.ActionSuccessful)
	assert.Equal(t, models.IntentGreeting, response.Intent)
}

func TestFreshSessionIDIssued(t *testing.T) {
	provider := &scriptedProvider{guesses: []*llm.Guess{
		{Intent: models.IntentGreeting, Slots: map[string]string{}, Confidence: 0.9},
	}}
	f := newFixture(provider)

	response := f.orchestrator.Turn(context.Background(), "", "hello")
	assert.NotEmpty(t, response.SessionID)
}

func TestEndToEndAddAndQueryMaintenance(t *testing.T) {
	provider := &scriptedProvider{guesses: []*llm.Guess{
		{Intent: models.IntentAddMaintenance, Slots: map[string]string{"title": "HVAC inspection"}, Confidence: 0.9},
		{Intent: models.IntentQueryMaintenance, Slots: map[string]string{}, Confidence: 0.9},
	}}
	f := newFixture(provider)
	ctx := context.Background()

	first := f.orchestrator.Turn(ctx, "s1", "Schedule HVAC inspection on July 20th for $150, high priority")
	require.True(t, first.ActionSuccessful)
	assert.Equal(t, models.IntentAddMaintenance, first.Intent)
	assert.Contains(t, first.Reply, "HVAC inspection")
	assert.Contains(t, first.Reply, "high priority")

	tasks, err := f.bills.ListTasks(ctx, expense.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "HVAC inspection", tasks[0].Title)
	assert.Equal(t, 150.0, tasks[0].EstimatedCost)
	assert.Equal(t, models.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, models.MaintenanceScheduled, tasks[0].Status)
	assert.True(t, time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC).Equal(tasks[0].ScheduledDate))

	second := f.orchestrator.Turn(ctx, "s1", "what maintenance is coming up?")
	assert.True(t, second.ActionSuccessful)
	assert.Equal(t, models.IntentQueryMaintenance, second.Intent)
	assert.Contains(t, second.Reply, "HVAC inspection")
}

func TestMaintenanceSlotFill(t *testing.T) {
	provider := &scriptedProvider{guesses: []*llm.Guess{
		{Intent: models.IntentAddMaintenance, Slots: map[string]string{"title": "Gutter cleaning"}, Confidence: 0.9},
		{Intent: models.IntentUnknown, Slots: map[string]string{}, Confidence: 0},
	}}
	f := newFixture(provider)
	ctx := context.Background()

	first := f.orchestrator.Turn(ctx, "s1", "I need to schedule gutter cleaning")
	assert.False(t, first.ActionSuccessful)
	assert.Contains(t, first.Reply, "scheduled_date")

	second := f.orchestrator.Turn(ctx, "s1", "in 10 days")
	require.True(t, second.ActionSuccessful)

	tasks, err := f.bills.ListTasks(ctx, expense.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Gutter cleaning", tasks[0].Title)
	assert.True(t, time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC).Equal(tasks[0].ScheduledDate))
}

func TestMarkBillPaidByName(t *testing.T) {
	provider := &scriptedProvider{guesses: []*llm.Guess{
		{Intent: models.IntentUpdateBillStatus, Slots: map[string]string{}, Confidence: 0.9},
		{Intent: models.IntentUpdateBillStatus, Slots: map[string]string{}, Confidence: 0.9},
	}}
	f := newFixture(provider)
	ctx := context.Background()

	created, err := f.bills.CreateBill(ctx, &models.Bill{
		Name:     "Electric",
		Amount:   120,
		DueDate:  time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Category: "Utilities",
	})
	require.NoError(t, err)

	// The regex backstop supplies name and status from the utterance
	response := f.orchestrator.Turn(ctx, "s1", "mark Electric as paid")
	require.True(t, response.ActionSuccessful)

	bill, err := f.bills.GetBill(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusPaid, bill.Status)

	// paid -> paid is idempotent success
	response = f.orchestrator.Turn(ctx, "s1", "mark Electric as paid")
	assert.True(t, response.ActionSuccessful)
}
