package compose

import (
	"fmt"
	"strings"

	"github.com/avvvet/homebuddy-agent/internal/dispatch"
	"github.com/avvvet/homebuddy-agent/internal/models"
)

// SideChannel is the machine-readable result consumed by the dashboard
// refresh trigger
type SideChannel struct {
	Intent           string `json:"intent"`
	ActionSuccessful bool   `json:"action_successful"`
}

const (
	unknownReply = "I didn't understand that. I can add bills, mark them paid, list what's due, or give you a summary — what would you like?"
	failedReply  = "I'm sorry, something went wrong on my end. Please try again in a moment."
	greetReply   = "Hello! I'm your home expense and maintenance assistant. I can help you add bills, track what's due, schedule maintenance tasks, and summarize your spending. What would you like to do?"

	maxListedBills = 5
	dateLayout     = "Jan 2, 2006"
)

// Templates are deterministic per outcome shape: identical outcomes always
// produce byte-identical replies.

// Clarification asks the user for missing slots on an incomplete intent
func Clarification(intentType string, missing []string) (string, SideChannel) {
	reply := fmt.Sprintf("I need a bit more information. Please provide: %s", strings.Join(missing, ", "))
	return reply, SideChannel{Intent: intentType, ActionSuccessful: false}
}

// Invalid names the untypeable slot so the user can correct it
func Invalid(intentType, reason string) (string, SideChannel) {
	return fmt.Sprintf("Sorry, %s. Could you rephrase that part?", reason), SideChannel{Intent: intentType, ActionSuccessful: false}
}

// Unknown is the please-rephrase reply for low-confidence resolutions
func Unknown() (string, SideChannel) {
	return unknownReply, SideChannel{Intent: models.IntentUnknown, ActionSuccessful: false}
}

// Greeting answers a hello without touching the store
func Greeting() (string, SideChannel) {
	return greetReply, SideChannel{Intent: models.IntentGreeting, ActionSuccessful: true}
}

// Unavailable is the generic reply when a collaborator failed before dispatch
func Unavailable() (string, SideChannel) {
	return failedReply, SideChannel{Intent: models.IntentUnknown, ActionSuccessful: false}
}

// Result renders a terminal dispatch outcome
func Result(outcome dispatch.Outcome) (string, SideChannel) {
	if outcome.State == dispatch.StateFailed {
		return failedResult(outcome)
	}

	side := SideChannel{Intent: outcome.Intent, ActionSuccessful: true}

	switch outcome.Intent {
	case models.IntentAddBill:
		bill := outcome.Bill
		return fmt.Sprintf("✅ Added bill: %s for %s due on %s (category: %s)",
			bill.Name, currency(bill.Amount), bill.DueDate.Format(dateLayout), bill.Category), side

	case models.IntentUpdateBillStatus:
		bill := outcome.Bill
		return fmt.Sprintf("✅ %s is now marked %s.", bill.Name, bill.Status), side

	case models.IntentQueryBills:
		if len(outcome.Bills) == 0 {
			return "No bills found matching your criteria.", side
		}
		return fmt.Sprintf("Found %d bill(s):\n%s", len(outcome.Bills), billList(outcome.Bills)), side

	case models.IntentQueryUpcoming:
		if len(outcome.Bills) == 0 {
			return fmt.Sprintf("No bills due in the next %d days.", outcome.WindowDays), side
		}
		return fmt.Sprintf("📅 Bills due in the next %d days (%d):\n%s",
			outcome.WindowDays, len(outcome.Bills), billList(outcome.Bills)), side

	case models.IntentAddMaintenance:
		task := outcome.Task
		reply := fmt.Sprintf("🔧 Scheduled maintenance: %s on %s (%s priority, category: %s)",
			task.Title, task.ScheduledDate.Format(dateLayout), task.Priority, task.Category)
		if task.EstimatedCost > 0 {
			reply += fmt.Sprintf(", estimated cost %s", currency(task.EstimatedCost))
		}
		return reply, side

	case models.IntentQueryMaintenance:
		if len(outcome.Tasks) == 0 {
			return "No maintenance tasks found.", side
		}
		return fmt.Sprintf("Found %d maintenance task(s):\n%s", len(outcome.Tasks), taskList(outcome.Tasks)), side

	case models.IntentGetSummary:
		s := outcome.Summary
		return fmt.Sprintf(`📊 Summary for %d-%02d:
• Total expenses: %s
• Number of bills: %d (%d paid, %d pending)
• Average bill amount: %s
• Top category: %s`,
			s.Year, s.Month, currency(s.TotalAmount), s.TotalBills, s.PaidBills, s.PendingBills,
			currency(s.AverageAmount), orNA(s.TopCategory)), side

	case models.IntentGetStats:
		st := outcome.Stats
		return fmt.Sprintf(`📈 Expense statistics:
• This month: %s across %d bill(s)
• Last month: %s
• Upcoming (30 days): %d
• Overdue: %d
• Payment completion: %.0f%%`,
			currency(st.CurrentMonthTotal), st.CurrentMonthBills, currency(st.LastMonthTotal),
			st.UpcomingBillsCount, st.OverdueBillsCount, st.PaymentCompletionRate), side
	}

	return unknownReply, SideChannel{Intent: outcome.Intent, ActionSuccessful: false}
}

func failedResult(outcome dispatch.Outcome) (string, SideChannel) {
	side := SideChannel{Intent: outcome.Intent, ActionSuccessful: false}

	switch outcome.ErrorKind {
	case models.ErrorNotFound:
		return "I couldn't find a bill matching that. Could you check the name?", side
	case models.ErrorConflict:
		return "That bill is already in that state.", side
	case models.ErrorUnrecognized:
		return unknownReply, side
	default:
		return failedReply, side
	}
}

// billList renders up to maxListedBills entries, soonest first
func billList(bills []models.Bill) string {
	var builder strings.Builder
	for i, bill := range bills {
		if i == maxListedBills {
			builder.WriteString(fmt.Sprintf("... and %d more", len(bills)-maxListedBills))
			break
		}
		builder.WriteString(fmt.Sprintf("• %s: %s due %s [%s]\n",
			bill.Name, currency(bill.Amount), bill.DueDate.Format(dateLayout), bill.Status))
	}
	return strings.TrimRight(builder.String(), "\n")
}

// taskList renders up to maxListedBills entries, soonest first
func taskList(tasks []models.MaintenanceTask) string {
	var builder strings.Builder
	for i, task := range tasks {
		if i == maxListedBills {
			builder.WriteString(fmt.Sprintf("... and %d more", len(tasks)-maxListedBills))
			break
		}
		builder.WriteString(fmt.Sprintf("• %s: %s [%s, %s priority]\n",
			task.Title, task.ScheduledDate.Format(dateLayout), task.Status, task.Priority))
	}
	return strings.TrimRight(builder.String(), "\n")
}

// currency rounds for display only; aggregation upstream sums raw amounts
func currency(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
