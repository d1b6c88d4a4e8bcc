package compose

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/avvvet/homebuddy-agent/internal/dispatch"
	"github.com/avvvet/homebuddy-agent/internal/models"
)

func sampleBill(name string, amount float64, due time.Time) models.Bill {
	return models.Bill{
		ID:       "bill-1",
		Name:     name,
		Amount:   amount,
		DueDate:  due,
		Category: "Utilities",
		Status:   models.BillStatusPending,
	}
}

func TestDeterministicComposition(t *testing.T) {
	bill := sampleBill("Electric", 120, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))
	outcome := dispatch.Outcome{
		State:  dispatch.StateSucceeded,
		Intent: models.IntentAddBill,
		Bill:   &bill,
	}

	first, firstSide := Result(outcome)
	second, secondSide := Result(outcome)

	assert.Equal(t, first, second, "identical outcomes must produce byte-identical replies")
	assert.Equal(t, firstSide, secondSide)
	assert.True(t, firstSide.ActionSuccessful)
}

func TestAddBillEchoesCanonicalValues(t *testing.T) {
	bill := sampleBill("Electric", 120, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))
	reply, side := Result(dispatch.Outcome{
		State:  dispatch.StateSucceeded,
		Intent: models.IntentAddBill,
		Bill:   &bill,
	})

	assert.Contains(t, reply, "Electric")
	assert.Contains(t, reply, "$120.00")
	assert.Contains(t, reply, "Jul 15, 2025")
	assert.Contains(t, reply, "Utilities")
	assert.Equal(t, models.IntentAddBill, side.Intent)
}

func TestBillListCapping(t *testing.T) {
	var bills []models.Bill
	for i := 0; i < 7; i++ {
		bills = append(bills, sampleBill(fmt.Sprintf("Bill %d", i), 10, time.Date(2025, 7, 1+i, 0, 0, 0, 0, time.UTC)))
	}

	reply, _ := Result(dispatch.Outcome{
		State:  dispatch.StateSucceeded,
		Intent: models.IntentQueryBills,
		Bills:  bills,
	})

	assert.Contains(t, reply, "Found 7 bill(s)")
	assert.Contains(t, reply, "... and 2 more")
	assert.Equal(t, 5, strings.Count(reply, "•"))
}

func TestEmptyResults(t *testing.T) {
	reply, side := Result(dispatch.Outcome{
		State:  dispatch.StateSucceeded,
		Intent: models.IntentQueryBills,
	})
	assert.Equal(t, "No bills found matching your criteria.", reply)
	assert.True(t, side.ActionSuccessful)

	reply, _ = Result(dispatch.Outcome{
		State:      dispatch.StateSucceeded,
		Intent:     models.IntentQueryUpcoming,
		WindowDays: 30,
	})
	assert.Equal(t, "No bills due in the next 30 days.", reply)
}

func TestAddMaintenanceReply(t *testing.T) {
	task := models.MaintenanceTask{
		ID:            "task-1",
		Title:         "HVAC inspection",
		EstimatedCost: 150,
		ScheduledDate: time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC),
		Status:        models.MaintenanceScheduled,
		Priority:      models.PriorityHigh,
		Category:      "Maintenance",
	}

	reply, side := Result(dispatch.Outcome{
		State:  dispatch.StateSucceeded,
		Intent: models.IntentAddMaintenance,
		Task:   &task,
	})

	assert.Contains(t, reply, "HVAC inspection")
	assert.Contains(t, reply, "Jul 20, 2025")
	assert.Contains(t, reply, "high priority")
	assert.Contains(t, reply, "$150.00")
	assert.True(t, side.ActionSuccessful)

	// No estimated cost, no cost fragment
	task.EstimatedCost = 0
	reply, _ = Result(dispatch.Outcome{
		State:  dispatch.StateSucceeded,
		Intent: models.IntentAddMaintenance,
		Task:   &task,
	})
	assert.NotContains(t, reply, "estimated cost")
}

func TestQueryMaintenanceReply(t *testing.T) {
	reply, side := Result(dispatch.Outcome{
		State:  dispatch.StateSucceeded,
		Intent: models.IntentQueryMaintenance,
	})
	assert.Equal(t, "No maintenance tasks found.", reply)
	assert.True(t, side.ActionSuccessful)

	reply, _ = Result(dispatch.Outcome{
		State:  dispatch.StateSucceeded,
		Intent: models.IntentQueryMaintenance,
		Tasks: []models.MaintenanceTask{
			{Title: "Gutter cleaning", ScheduledDate: time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC), Status: models.MaintenanceScheduled, Priority: models.PriorityLow},
		},
	})
	assert.Contains(t, reply, "Found 1 maintenance task(s)")
	assert.Contains(t, reply, "Gutter cleaning")
	assert.Contains(t, reply, "low priority")
}

func TestFailureReplies(t *testing.T) {
	reply, side := Result(dispatch.Outcome{
		State:     dispatch.StateFailed,
		Intent:    models.IntentUpdateBillStatus,
		ErrorKind: models.ErrorNotFound,
	})
	assert.Contains(t, reply, "couldn't find a bill")
	assert.False(t, side.ActionSuccessful)

	// Internal failure detail never leaks to the user
	reply, side = Result(dispatch.Outcome{
		State:     dispatch.StateFailed,
		Intent:    models.IntentAddBill,
		ErrorKind: models.ErrorUpstreamUnavailable,
	})
	assert.NotContains(t, reply, "redis")
	assert.NotContains(t, reply, "storage")
	assert.False(t, side.ActionSuccessful)
}

func TestClarification(t *testing.T) {
	reply, side := Clarification(models.IntentAddBill, []string{"amount", "due_date"})
	assert.Equal(t, "I need a bit more information. Please provide: amount, due_date", reply)
	assert.Equal(t, models.IntentAddBill, side.Intent)
	assert.False(t, side.ActionSuccessful)
}

func TestSummaryReply(t *testing.T) {
	reply, side := Result(dispatch.Outcome{
		State:  dispatch.StateSucceeded,
		Intent: models.IntentGetSummary,
		Summary: &models.Summary{
			Year:          2025,
			Month:         6,
			TotalAmount:   165.79,
			TotalBills:    3,
			PaidBills:     2,
			PendingBills:  1,
			AverageAmount: 55.2633333,
			TopCategory:   "Utilities",
		},
	})

	assert.Contains(t, reply, "2025-06")
	assert.Contains(t, reply, "$165.79")
	assert.Contains(t, reply, "$55.26")
	assert.Contains(t, reply, "Utilities")
	assert.True(t, side.ActionSuccessful)
}
