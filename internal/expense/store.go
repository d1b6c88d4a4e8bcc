package expense

import (
	"context"
	"errors"
	"time"

	"github.com/avvvet/homebuddy-agent/internal/models"
)

var (
	ErrBillNotFound = errors.New("bill not found")
)

// Filter narrows ListBills results. Zero values mean "no constraint".
type Filter struct {
	Category  string
	Status    string
	MinAmount float64
	MaxAmount float64
	DueFrom   time.Time
	DueTo     time.Time
}

// TaskFilter narrows ListTasks results. Zero values mean "no constraint".
type TaskFilter struct {
	Category      string
	Status        string
	Priority      string
	ScheduledFrom time.Time
	ScheduledTo   time.Time
}

// Store is the persistence contract for bills and categories. A successful
// CreateBill must be visible to an immediately following ListBills
// (read-your-writes).
type Store interface {
	CreateBill(ctx context.Context, bill *models.Bill) (*models.Bill, error)
	GetBill(ctx context.Context, id string) (*models.Bill, error)
	UpdateBillStatus(ctx context.Context, id, status string) (*models.Bill, error)
	ListBills(ctx context.Context, filter Filter) ([]models.Bill, error)

	// FindByName resolves a bill reference by case-insensitive name match.
	// With several matches it returns the pending bill with the nearest
	// upcoming due date; if none is upcoming, the most recently due.
	FindByName(ctx context.Context, name string, now time.Time) (*models.Bill, error)

	CreateTask(ctx context.Context, task *models.MaintenanceTask) (*models.MaintenanceTask, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]models.MaintenanceTask, error)

	FindOrCreateCategory(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// Upcoming returns pending bills due within [today, today+days], soonest first
func Upcoming(ctx context.Context, s Store, now time.Time, days int) ([]models.Bill, error) {
	today := dateOf(now)
	return s.ListBills(ctx, Filter{
		Status:  models.BillStatusPending,
		DueFrom: today,
		DueTo:   today.AddDate(0, 0, days),
	})
}

// Overdue returns pending bills with a due date before today
func Overdue(ctx context.Context, s Store, now time.Time) ([]models.Bill, error) {
	return s.ListBills(ctx, Filter{
		Status: models.BillStatusPending,
		DueTo:  dateOf(now).AddDate(0, 0, -1),
	})
}

// MonthBills returns all bills due within one calendar month
func MonthBills(ctx context.Context, s Store, year, month int) ([]models.Bill, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return s.ListBills(ctx, Filter{DueFrom: start, DueTo: end})
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
