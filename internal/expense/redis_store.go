package expense

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/avvvet/homebuddy-agent/internal/models"
)

const (
	billsKey      = "bills"
	tasksKey      = "maintenance_tasks"
	categoriesKey = "categories"
)

// RedisStore implements Store on Redis hashes of JSON documents. Bill counts
// are household scale, so queries load the hash and filter in memory.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client, sharing the connection
// with the session store
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) CreateBill(ctx context.Context, bill *models.Bill) (*models.Bill, error) {
	stored := *bill
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.Status == "" {
		stored.Status = models.BillStatusPending
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bill: %w", err)
	}

	if err := r.client.HSet(ctx, billsKey, stored.ID, data).Err(); err != nil {
		return nil, fmt.Errorf("failed to save bill to Redis: %w", err)
	}

	return &stored, nil
}

func (r *RedisStore) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	data, err := r.client.HGet(ctx, billsKey, id).Result()
	if err == redis.Nil {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bill from Redis: %w", err)
	}

	var bill models.Bill
	if err := json.Unmarshal([]byte(data), &bill); err != nil {
		return nil, fmt.Errorf("failed to parse bill data: %w", err)
	}
	return &bill, nil
}

func (r *RedisStore) UpdateBillStatus(ctx context.Context, id, status string) (*models.Bill, error) {
	bill, err := r.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}

	bill.Status = status

	data, err := json.Marshal(bill)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bill: %w", err)
	}
	if err := r.client.HSet(ctx, billsKey, bill.ID, data).Err(); err != nil {
		return nil, fmt.Errorf("failed to save bill to Redis: %w", err)
	}

	return bill, nil
}

func (r *RedisStore) ListBills(ctx context.Context, filter Filter) ([]models.Bill, error) {
	entries, err := r.client.HGetAll(ctx, billsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load bills from Redis: %w", err)
	}

	var result []models.Bill
	for _, data := range entries {
		var bill models.Bill
		if err := json.Unmarshal([]byte(data), &bill); err != nil {
			return nil, fmt.Errorf("failed to parse bill data: %w", err)
		}
		if matches(bill, filter) {
			result = append(result, bill)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].DueDate.Equal(result[j].DueDate) {
			return result[i].DueDate.Before(result[j].DueDate)
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

func (r *RedisStore) FindByName(ctx context.Context, name string, now time.Time) (*models.Bill, error) {
	bills, err := r.ListBills(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	return pickByName(bills, name, now)
}

func (r *RedisStore) CreateTask(ctx context.Context, task *models.MaintenanceTask) (*models.MaintenanceTask, error) {
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
		stored.CreatedAt = time.Now()
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := r.client.HSet(ctx, tasksKey, stored.ID, data).Err(); err != nil {
		return nil, fmt.Errorf("failed to save task to Redis: %w", err)
	}

	return &stored, nil
}

func (r *RedisStore) ListTasks(ctx context.Context, filter TaskFilter) ([]models.MaintenanceTask, error) {
	entries, err := r.client.HGetAll(ctx, tasksKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks from Redis: %w", err)
	}

	var result []models.MaintenanceTask
	for _, data := range entries {
		var task models.MaintenanceTask
		if err := json.Unmarshal([]byte(data), &task); err != nil {
			return nil, fmt.Errorf("failed to parse task data: %w", err)
		}
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

func (r *RedisStore) FindOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	data, err := r.client.HGet(ctx, categoriesKey, key).Result()
	if err == nil {
		var category models.Category
		if err := json.Unmarshal([]byte(data), &category); err != nil {
			return nil, fmt.Errorf("failed to parse category data: %w", err)
		}
		return &category, nil
	}
	if err != redis.Nil {
		return nil, fmt.Errorf("failed to load category from Redis: %w", err)
	}

	category := models.Category{Name: strings.TrimSpace(name)}
	payload, err := json.Marshal(category)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal category: %w", err)
	}
	if err := r.client.HSet(ctx, categoriesKey, key, payload).Err(); err != nil {
		return nil, fmt.Errorf("failed to save category to Redis: %w", err)
	}

	return &category, nil
}

func (r *RedisStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	entries, err := r.client.HGetAll(ctx, categoriesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load categories from Redis: %w", err)
	}

	result := make([]models.Category, 0, len(entries))
	for _, data := range entries {
		var category models.Category
		if err := json.Unmarshal([]byte(data), &category); err != nil {
			return nil, fmt.Errorf("failed to parse category data: %w", err)
		}
		result = append(result, category)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
