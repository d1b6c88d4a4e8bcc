package slots

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/avvvet/homebuddy-agent/internal/models"
)

// Validation states
const (
	StateComplete   = "complete"
	StateIncomplete = "incomplete"
	StateInvalid    = "invalid"
)

// Typed holds coerced slot values for dispatch
type Typed struct {
	Name        string
	Amount      float64
	DueDate     time.Time
	Category    string
	Vendor      string
	Description string

	// update_bill_status
	BillID string
	Status string

	// add_maintenance
	Title         string
	ScheduledDate time.Time
	EstimatedCost float64
	Priority      string
	Contractor    string

	// query windows
	WindowDays int
	Year       int
	Month      int

	// query filters
	FilterCategory string
	FilterStatus   string
}

// Validation is the outcome of checking raw slots against an intent's
// requirements: exactly one of Complete, Incomplete, Invalid.
type Validation struct {
	State   string
	Typed   *Typed
	Missing []string // Incomplete: slots still needed
	Known   map[string]string
	Field   string // Invalid: the offending slot
	Reason  string // Invalid: human-readable cause
}

// requiredSlots declares what each intent needs before dispatch. Category is
// optional on add_bill; it defaults to "Other".
var requiredSlots = map[string][]string{
	models.IntentAddBill:          {"name", "amount", "due_date"},
	models.IntentUpdateBillStatus: {"bill", "status"},
	models.IntentQueryBills:       {},
	models.IntentQueryUpcoming:    {},
	models.IntentGetSummary:       {},
	models.IntentGetStats:         {},
	models.IntentAddMaintenance:   {"title", "scheduled_date"},
	models.IntentQueryMaintenance: {},
	models.IntentGreeting:         {},
}

// Validator coerces raw string slots into typed values. Pure: the clock is
// injected so relative dates are deterministic under test.
type Validator struct {
	now func() time.Time
}

func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

func (v *Validator) Validate(intentType string, raw map[string]string) Validation {
	missing := v.missingFor(intentType, raw)
	if len(missing) > 0 {
		return Validation{State: StateIncomplete, Missing: missing, Known: present(raw)}
	}

	typed := &Typed{}

	switch intentType {
	case models.IntentAddBill:
		return v.validateAddBill(raw, typed)
	case models.IntentUpdateBillStatus:
		return v.validateUpdateStatus(raw, typed)
	case models.IntentQueryBills:
		typed.FilterCategory = raw["category"]
		typed.FilterStatus = strings.ToLower(raw["status"])
	case models.IntentQueryUpcoming:
		typed.WindowDays = 30
		if value, ok := raw["days"]; ok && value != "" {
			days, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || days < 1 {
				return invalid("days", fmt.Sprintf("%q is not a valid number of days", value))
			}
			typed.WindowDays = days
		}
	case models.IntentGetSummary:
		if err := v.parseWindow(raw, typed); err != nil {
			return invalid("month", err.Error())
		}
	case models.IntentAddMaintenance:
		return v.validateAddMaintenance(raw, typed)
	case models.IntentQueryMaintenance:
		typed.FilterCategory = raw["category"]
		typed.FilterStatus = strings.ToLower(raw["status"])
	}

	return Validation{State: StateComplete, Typed: typed}
}

func (v *Validator) validateAddBill(raw map[string]string, typed *Typed) Validation {
	typed.Name = strings.TrimSpace(raw["name"])

	amount, err := ParseAmount(raw["amount"])
	if err != nil {
		return invalid("amount", fmt.Sprintf("%q is not a valid amount", raw["amount"]))
	}
	typed.Amount = amount

	due, err := ParseDueDate(raw["due_date"], v.now())
	if err != nil {
		return invalid("due_date", fmt.Sprintf("I couldn't read %q as a date", raw["due_date"]))
	}
	typed.DueDate = due

	typed.Category = normalizeCategory(raw["category"])
	typed.Vendor = strings.TrimSpace(raw["vendor"])
	typed.Description = strings.TrimSpace(raw["description"])

	return Validation{State: StateComplete, Typed: typed}
}

func (v *Validator) validateAddMaintenance(raw map[string]string, typed *Typed) Validation {
	typed.Title = strings.TrimSpace(raw["title"])

	scheduled, err := ParseDueDate(raw["scheduled_date"], v.now())
	if err != nil {
		return invalid("scheduled_date", fmt.Sprintf("I couldn't read %q as a date", raw["scheduled_date"]))
	}
	typed.ScheduledDate = scheduled

	if value, ok := raw["estimated_cost"]; ok && strings.TrimSpace(value) != "" {
		cost, err := ParseAmount(value)
		if err != nil {
			return invalid("estimated_cost", fmt.Sprintf("%q is not a valid amount", value))
		}
		typed.EstimatedCost = cost
	}

	typed.Priority = models.PriorityMedium
	if value, ok := raw["priority"]; ok && strings.TrimSpace(value) != "" {
		priority := strings.ToLower(strings.TrimSpace(value))
		switch priority {
		case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
			typed.Priority = priority
		default:
			return invalid("priority", fmt.Sprintf("%q is not a priority I know; use low, medium, high or urgent", value))
		}
	}

	typed.Category = "Maintenance"
	if strings.TrimSpace(raw["category"]) != "" {
		typed.Category = normalizeCategory(raw["category"])
	}
	typed.Contractor = strings.TrimSpace(raw["contractor"])
	typed.Description = strings.TrimSpace(raw["description"])

	return Validation{State: StateComplete, Typed: typed}
}

func (v *Validator) validateUpdateStatus(raw map[string]string, typed *Typed) Validation {
	typed.BillID = strings.TrimSpace(raw["bill_id"])
	typed.Name = strings.TrimSpace(raw["name"])

	status := strings.ToLower(strings.TrimSpace(raw["status"]))
	if status != models.BillStatusPending && status != models.BillStatusPaid {
		return invalid("status", fmt.Sprintf("%q is not a status I know; use pending or paid", raw["status"]))
	}
	typed.Status = status

	return Validation{State: StateComplete, Typed: typed}
}

func (v *Validator) parseWindow(raw map[string]string, typed *Typed) error {
	now := v.now()
	typed.Year = now.Year()
	typed.Month = int(now.Month())

	if value, ok := raw["year"]; ok && value != "" {
		year, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%q is not a valid year", value)
		}
		typed.Year = year
	}
	if value, ok := raw["month"]; ok && value != "" {
		month, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || month < 1 || month > 12 {
			return fmt.Errorf("%q is not a valid month", value)
		}
		typed.Month = month
	}
	return nil
}

func (v *Validator) missingFor(intentType string, raw map[string]string) []string {
	var missing []string
	for _, name := range requiredSlots[intentType] {
		if name == "bill" {
			// A bill reference is either an id or a name
			if !has(raw, "bill_id") && !has(raw, "name") {
				missing = append(missing, name)
			}
			continue
		}
		if !has(raw, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// ParseAmount coerces a currency string to a positive float
func ParseAmount(value string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(value)
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable amount %q", value)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %v", amount)
	}
	return amount, nil
}

func normalizeCategory(name string) string {
	cleaned := strings.TrimSpace(name)
	if cleaned == "" {
		return "Other"
	}
	return cases.Title(language.English).String(strings.ToLower(cleaned))
}

func has(raw map[string]string, key string) bool {
	value, ok := raw[key]
	return ok && strings.TrimSpace(value) != ""
}

func present(raw map[string]string) map[string]string {
	known := make(map[string]string, len(raw))
	for key, value := range raw {
		if strings.TrimSpace(value) != "" {
			known[key] = value
		}
	}
	return known
}

func invalid(field, reason string) Validation {
	return Validation{State: StateInvalid, Field: field, Reason: reason}
}
