package dispatch

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/avvvet/homebuddy-agent/internal/analytics"
	"github.com/avvvet/homebuddy-agent/internal/expense"
	"github.com/avvvet/homebuddy-agent/internal/models"
	"github.com/avvvet/homebuddy-agent/internal/slots"
)

// Dispatch states. Transitions are Idle → Executing → Succeeded | Failed.
type State int

const (
	StateIdle State = iota
	StateExecuting
	StateSucceeded
	StateFailed
)

// Outcome is the terminal result of one dispatch, fed to the composer
type Outcome struct {
	State      State
	Intent     string
	ErrorKind  string
	Bill       *models.Bill
	Bills      []models.Bill
	Task       *models.MaintenanceTask
	Tasks      []models.MaintenanceTask
	Summary    *models.Summary
	Stats      *models.Stats
	WindowDays int
}

// Dispatcher executes exactly one operation per resolved, complete intent.
// It never retries: retrying AddBill without idempotency keys risks
// duplicate bills, so retry policy stays with the caller.
type Dispatcher struct {
	store     expense.Store
	analytics *analytics.Service
	now       func() time.Time
}

func NewDispatcher(store expense.Store, analyticsService *analytics.Service, now func() time.Time) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{store: store, analytics: analyticsService, now: now}
}

func (d *Dispatcher) Dispatch(ctx context.Context, intentType string, typed *slots.Typed) Outcome {
	outcome := Outcome{State: StateExecuting, Intent: intentType}

	switch intentType {
	case models.IntentAddBill:
		d.addBill(ctx, typed, &outcome)
	case models.IntentUpdateBillStatus:
		d.updateBillStatus(ctx, typed, &outcome)
	case models.IntentQueryBills:
		d.queryBills(ctx, typed, &outcome)
	case models.IntentQueryUpcoming:
		d.queryUpcoming(ctx, typed, &outcome)
	case models.IntentGetSummary:
		d.getSummary(ctx, typed, &outcome)
	case models.IntentGetStats:
		d.getStats(ctx, &outcome)
	case models.IntentAddMaintenance:
		d.addMaintenance(ctx, typed, &outcome)
	case models.IntentQueryMaintenance:
		d.queryMaintenance(ctx, typed, &outcome)
	default:
		outcome.State = StateFailed
		outcome.ErrorKind = models.ErrorUnrecognized
	}

	return outcome
}

func (d *Dispatcher) addBill(ctx context.Context, typed *slots.Typed, outcome *Outcome) {
	category, err := d.store.FindOrCreateCategory(ctx, typed.Category)
	if err != nil {
		d.fail(outcome, models.ErrorUpstreamUnavailable, err)
		return
	}

	bill, err := d.store.CreateBill(ctx, &models.Bill{
		Name:        typed.Name,
		Amount:      typed.Amount,
		DueDate:     typed.DueDate,
		Category:    category.Name,
		Status:      models.BillStatusPending,
		Vendor:      typed.Vendor,
		Description: typed.Description,
	})
	if err != nil {
		d.fail(outcome, models.ErrorUpstreamUnavailable, err)
		return
	}

	// Echo the canonical record so the user can catch misparses
	outcome.Bill = bill
	outcome.State = StateSucceeded
}

func (d *Dispatcher) updateBillStatus(ctx context.Context, typed *slots.Typed, outcome *Outcome) {
	bill, err := d.resolveBill(ctx, typed)
	if errors.Is(err, expense.ErrBillNotFound) {
		outcome.State = StateFailed
		outcome.ErrorKind = models.ErrorNotFound
		return
	}
	if err != nil {
		d.fail(outcome, models.ErrorUpstreamUnavailable, err)
		return
	}

	// Same-status transition is an idempotent no-op, reported as success
	if bill.Status == typed.Status {
		outcome.Bill = bill
		outcome.State = StateSucceeded
		return
	}

	updated, err := d.store.UpdateBillStatus(ctx, bill.ID, typed.Status)
	if errors.Is(err, expense.ErrBillNotFound) {
		outcome.State = StateFailed
		outcome.ErrorKind = models.ErrorNotFound
		return
	}
	if err != nil {
		d.fail(outcome, models.ErrorUpstreamUnavailable, err)
		return
	}

	outcome.Bill = updated
	outcome.State = StateSucceeded
}

func (d *Dispatcher) resolveBill(ctx context.Context, typed *slots.Typed) (*models.Bill, error) {
	if typed.BillID != "" {
		return d.store.GetBill(ctx, typed.BillID)
	}
	return d.store.FindByName(ctx, typed.Name, d.now())
}

func (d *Dispatcher) queryBills(ctx context.Context, typed *slots.Typed, outcome *Outcome) {
	bills, err := d.store.ListBills(ctx, expense.Filter{
		Category: typed.FilterCategory,
		Status:   typed.FilterStatus,
	})
	if err != nil {
		d.fail(outcome, models.ErrorUpstreamUnavailable, err)
		return
	}
	outcome.Bills = bills
	outcome.State = StateSucceeded
}

func (d *Dispatcher) queryUpcoming(ctx context.Context, typed *slots.Typed, outcome *Outcome) {
	days := typed.WindowDays
	if days <= 0 {
		days = 30
	}

	bills, err := expense.Upcoming(ctx, d.store, d.now(), days)
	if err != nil {
		d.fail(outcome, models.ErrorUpstreamUnavailable, err)
		return
	}
	outcome.Bills = bills
	outcome.WindowDays = days
	outcome.State = StateSucceeded
}

func (d *Dispatcher) addMaintenance(ctx context.Context, typed *slots.Typed, outcome *Outcome) {
	category, err := d.store.FindOrCreateCategory(ctx, typed.Category)
	if err != nil {
		d.fail(outcome, models.ErrorUpstreamUnavailable, err)
		return
	}

	task, err := d.store.CreateTask(ctx, &models.MaintenanceTask{
		Title:         typed.Title,
		Description:   typed.Description,
		EstimatedCost: typed.EstimatedCost,
		ScheduledDate: typed.ScheduledDate,
		Status:        models.MaintenanceScheduled,
		Priority:      typed.Priority,
		Category:      category.Name,
		Contractor:    typed.Contractor,
	})
	if err != nil {
		d.fail(outcome, models.ErrorUpstreamUnavailable, err)
		return
	}

	outcome.Task = task
	outcome.State = StateSucceeded
}

func (d *Dispatcher) queryMaintenance(ctx context.Context, typed *slots.Typed, outcome *Outcome) {
	tasks, err := d.store.ListTasks(ctx, expense.TaskFilter{
		Category: typed.FilterCategory,
		Status:   typed.FilterStatus,
	})
	if err != nil {
		d.fail(outcome, models.ErrorUpstreamUnavailable, err)
		return
	}
	outcome.Tasks = tasks
	outcome.State = StateSucceeded
}

func (d *Dispatcher) getSummary(ctx context.Context, typed *slots.Typed, outcome *Outcome) {
	summary, err := d.analytics.MonthlySummary(ctx, typed.Year, typed.Month)
	if err != nil {
		d.fail(outcome, models.ErrorUpstreamUnavailable, err)
		return
	}
	outcome.Summary = summary
	outcome.State = StateSucceeded
}

func (d *Dispatcher) getStats(ctx context.Context, outcome *Outcome) {
	stats, err := d.analytics.Stats(ctx)
	if err != nil {
		d.fail(outcome, models.ErrorUpstreamUnavailable, err)
		return
	}
	outcome.Stats = stats
	outcome.State = StateSucceeded
}

func (d *Dispatcher) fail(outcome *Outcome, kind string, err error) {
	// Diagnostic detail stays in the log, never in the user reply
	log.Printf("dispatch failed for intent %s: %v", outcome.Intent, err)
	outcome.State = StateFailed
	outcome.ErrorKind = kind
}
