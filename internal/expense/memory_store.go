package expense

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avvvet/homebuddy-agent/internal/models"
)

// MemoryStore implements Store in process. Used for tests and local
// development without Redis.
type MemoryStore struct {
	mu         sync.RWMutex
	bills      map[string]models.Bill
	tasks      map[string]models.MaintenanceTask
	categories map[string]models.Category // keyed by lowercase name
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bills:      make(map[string]models.Bill),
		tasks:      make(map[string]models.MaintenanceTask),
		categories: make(map[string]models.Category),
		now:        time.Now,
	}
}

func (m *MemoryStore) CreateBill(ctx context.Context, bill *models.Bill) (*models.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *bill
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.Status == "" {
		stored.Status = models.BillStatusPending
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.now()
	}

	m.bills[stored.ID] = stored
	return &stored, nil
}

func (m *MemoryStore) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bill, ok := m.bills[id]
	if !ok {
		return nil, ErrBillNotFound
	}
	return &bill, nil
}

func (m *MemoryStore) UpdateBillStatus(ctx context.Context, id, status string) (*models.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bill, ok := m.bills[id]
	if !ok {
		return nil, ErrBillNotFound
	}
	bill.Status = status
	m.bills[id] = bill
	return &bill, nil
}

func (m *MemoryStore) ListBills(ctx context.Context, filter Filter) ([]models.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Bill
	for _, bill := range m.bills {
		if matches(bill, filter) {
			result = append(result, bill)
		}
	}

	// Soonest due first, name as tie break for determinism
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DueDate.Equal(result[j].DueDate) {
			return result[i].DueDate.Before(result[j].DueDate)
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

func (m *MemoryStore) FindByName(ctx context.Context, name string, now time.Time) (*models.Bill, error) {
	bills, err := m.ListBills(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	return pickByName(bills, name, now)
}

func (m *MemoryStore) CreateTask(ctx context.Context, task *models.MaintenanceTask) (*models.MaintenanceTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *task
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.Status == "" {
		stored.Status = models.MaintenanceScheduled
	}
	if stored.Priority == "" {
		stored.Priority = models.PriorityMedium
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.now()
	}

	m.tasks[stored.ID] = stored
	return &stored, nil
}

func (m *MemoryStore) ListTasks(ctx context.Context, filter TaskFilter) ([]models.MaintenanceTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.MaintenanceTask
	for _, task := range m.tasks {
		if taskMatches(task, filter) {
			result = append(result, task)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ScheduledDate.Equal(result[j].ScheduledDate) {
			return result[i].ScheduledDate.Before(result[j].ScheduledDate)
		}
		return result[i].Title < result[j].Title
	})

	return result, nil
}

func (m *MemoryStore) FindOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(name))
	if category, ok := m.categories[key]; ok {
		return &category, nil
	}

	category := models.Category{Name: strings.TrimSpace(name)}
	m.categories[key] = category
	return &category, nil
}

func (m *MemoryStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Category, 0, len(m.categories))
	for _, category := range m.categories {
		result = append(result, category)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func matches(bill models.Bill, filter Filter) bool {
	if filter.Category != "" && !strings.EqualFold(bill.Category, filter.Category) {
		return false
	}
	if filter.Status != "" && bill.Status != filter.Status {
		return false
	}
	if filter.MinAmount > 0 && bill.Amount < filter.MinAmount {
		return false
	}
	if filter.MaxAmount > 0 && bill.Amount > filter.MaxAmount {
		return false
	}
	if !filter.DueFrom.IsZero() && bill.DueDate.Before(filter.DueFrom) {
		return false
	}
	if !filter.DueTo.IsZero() && bill.DueDate.After(filter.DueTo) {
		return false
	}
	return true
}

func taskMatches(task models.MaintenanceTask, filter TaskFilter) bool {
	if filter.Category != "" && !strings.EqualFold(task.Category, filter.Category) {
		return false
	}
	if filter.Status != "" && task.Status != filter.Status {
		return false
	}
	if filter.Priority != "" && task.Priority != filter.Priority {
		return false
	}
	if !filter.ScheduledFrom.IsZero() && task.ScheduledDate.Before(filter.ScheduledFrom) {
		return false
	}
	if !filter.ScheduledTo.IsZero() && task.ScheduledDate.After(filter.ScheduledTo) {
		return false
	}
	return true
}

// pickByName applies the documented reference-resolution rule: among bills
// whose name matches case-insensitively, prefer pending over paid, then the
// nearest upcoming due date, then the most recently due.
func pickByName(bills []models.Bill, name string, now time.Time) (*models.Bill, error) {
	target := strings.ToLower(strings.TrimSpace(name))
	today := dateOf(now)

	var candidates []models.Bill
	for _, bill := range bills {
		if strings.ToLower(bill.Name) == target {
			candidates = append(candidates, bill)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrBillNotFound
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if (a.Status == models.BillStatusPending) != (b.Status == models.BillStatusPending) {
			return a.Status == models.BillStatusPending
		}
		aUpcoming := !a.DueDate.Before(today)
		bUpcoming := !b.DueDate.Before(today)
		if aUpcoming != bUpcoming {
			return aUpcoming
		}
		if aUpcoming {
			return a.DueDate.Before(b.DueDate)
		}
		return a.DueDate.After(b.DueDate)
	})

	return &candidates[0], nil
}
