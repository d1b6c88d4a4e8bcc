package models

import "time"

// Intent types the agent understands
const (
	IntentAddBill          = "add_bill"
	IntentUpdateBillStatus = "update_bill_status"
	IntentQueryBills       = "query_bills"
	IntentQueryUpcoming    = "query_upcoming"
	IntentGetSummary       = "get_summary"
	IntentGetStats         = "get_stats"
	IntentAddMaintenance   = "add_maintenance"
	IntentQueryMaintenance = "query_maintenance"
	IntentGreeting         = "greeting"
	IntentUnknown          = "unknown"
)

// Bill status values
const (
	BillStatusPending = "pending"
	BillStatusPaid    = "paid"
)

// Maintenance task status values
const (
	MaintenanceScheduled  = "scheduled"
	MaintenanceInProgress = "in_progress"
	MaintenanceCompleted  = "completed"
	MaintenanceCancelled  = "cancelled"
)

// Maintenance task priority values
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Error kinds for failed turns
const (
	ErrorUnrecognized        = "UNRECOGNIZED"
	ErrorNotFound            = "NOT_FOUND"
	ErrorConflict            = "CONFLICT"
	ErrorUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
)

type Bill struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Amount      float64   `json:"amount"`
	DueDate     time.Time `json:"due_date"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	Vendor      string    `json:"vendor,omitempty"`
	Description string    `json:"description,omitempty"`
	Recurring   bool      `json:"recurring,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Category struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type MaintenanceTask struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	EstimatedCost float64    `json:"estimated_cost,omitempty"`
	ActualCost    float64    `json:"actual_cost,omitempty"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	Category      string     `json:"category"`
	Contractor    string     `json:"contractor,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Summary is the monthly expense aggregate consumed by the dashboard
type Summary struct {
	Year              int                `json:"year"`
	Month             int                `json:"month"`
	TotalAmount       float64            `json:"total_amount"`
	TotalBills        int                `json:"total_bills"`
	PaidBills         int                `json:"paid_bills"`
	PendingBills      int                `json:"pending_bills"`
	AverageAmount     float64            `json:"average_amount"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	TopCategory       string             `json:"top_category,omitempty"`
}

// YearlySummary aggregates a whole calendar year by month
type YearlySummary struct {
	Year             int             `json:"year"`
	TotalAmount      float64         `json:"total_amount"`
	TotalBills       int             `json:"total_bills"`
	AverageMonthly   float64         `json:"average_monthly"`
	MonthlyBreakdown map[int]float64 `json:"monthly_breakdown"`
	HighestMonth     *MonthTotal     `json:"highest_month,omitempty"`
	LowestMonth      *MonthTotal     `json:"lowest_month,omitempty"`
}

type MonthTotal struct {
	Month  int     `json:"month"`
	Amount float64 `json:"amount"`
}

// CategoryStat is the per-category slice of the category analysis
type CategoryStat struct {
	Name          string  `json:"name"`
	TotalAmount   float64 `json:"total_amount"`
	BillCount     int     `json:"bill_count"`
	AverageAmount float64 `json:"average_amount"`
}

type CategoryAnalysis struct {
	Categories              []CategoryStat `json:"categories"`
	TotalCategories         int            `json:"total_categories"`
	HighestSpendingCategory *CategoryStat  `json:"highest_spending_category,omitempty"`
	LowestSpendingCategory  *CategoryStat  `json:"lowest_spending_category,omitempty"`
}

// TrendAnalysis is the month-over-month spending trend payload
type TrendAnalysis struct {
	MonthsAnalyzed int                   `json:"months_analyzed"`
	MonthlyData    map[string]TrendPoint `json:"monthly_data"`
	Trend          string                `json:"trend"`
	ChangePercent  float64               `json:"change_percent"`
	AverageMonthly float64               `json:"average_monthly"`
}

type TrendPoint struct {
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// Stats is the comprehensive statistics payload
type Stats struct {
	CurrentMonthTotal     float64 `json:"current_month_total"`
	LastMonthTotal        float64 `json:"last_month_total"`
	CurrentMonthBills     int     `json:"current_month_bills"`
	UpcomingBillsCount    int     `json:"upcoming_bills_count"`
	OverdueBillsCount     int     `json:"overdue_bills_count"`
	PaymentCompletionRate float64 `json:"payment_completion_rate"`
}

// Chat turn request from transport (NATS or HTTP)
type TurnRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// Chat turn response to transport
type TurnResponse struct {
	SessionID        string    `json:"session_id"`
	Reply            string    `json:"reply"`
	Intent           string    `json:"intent"`
	ActionSuccessful bool      `json:"action_successful"`
	Timestamp        time.Time `json:"timestamp"`
}

type TurnInfo struct {
	Speaker   string    `json:"speaker"` // "user" or "agent"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type HistoryRequest struct {
	SessionID string `json:"session_id"`
}

type HistoryResponse struct {
	SessionID string     `json:"session_id"`
	Turns     []TurnInfo `json:"turns"`
}

type ClearRequest struct {
	SessionID string `json:"session_id"`
}

type ClearResponse struct {
	SessionID string `json:"session_id"`
	Cleared   bool   `json:"cleared"`
}

type SummaryRequest struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
}

type YearlyRequest struct {
	Year int `json:"year,omitempty"`
}

type TrendRequest struct {
	Months int `json:"months,omitempty"`
}
