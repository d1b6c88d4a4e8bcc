package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/avvvet/homebuddy-agent/internal/expense"
	"github.com/avvvet/homebuddy-agent/internal/models"
)

// Service computes dashboard aggregates from the bill store. Aggregation sums
// raw amounts; rounding to currency happens only at the presentation boundary.
type Service struct {
	store expense.Store
	now   func() time.Time
}

func NewService(store expense.Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// MonthlySummary aggregates bills due within one calendar month. Zero values
// for year/month mean the current month.
func (s *Service) MonthlySummary(ctx context.Context, year, month int) (*models.Summary, error) {
	now := s.now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}

	bills, err := expense.MonthBills(ctx, s.store, year, month)
	if err != nil {
		return nil, err
	}

	summary := &models.Summary{
		Year:              year,
		Month:             month,
		TotalBills:        len(bills),
		CategoryBreakdown: make(map[string]float64),
	}

	for _, bill := range bills {
		summary.TotalAmount += bill.Amount
		summary.CategoryBreakdown[bill.Category] += bill.Amount
		switch bill.Status {
		case models.BillStatusPaid:
			summary.PaidBills++
		case models.BillStatusPending:
			summary.PendingBills++
		}
	}

	if summary.TotalBills > 0 {
		summary.AverageAmount = summary.TotalAmount / float64(summary.TotalBills)
	}
	summary.TopCategory = topCategory(summary.CategoryBreakdown)

	return summary, nil
}

// YearlySummary aggregates a calendar year with a per-month breakdown. A zero
// year means the current one.
func (s *Service) YearlySummary(ctx context.Context, year int) (*models.YearlySummary, error) {
	if year == 0 {
		year = s.now().Year()
	}

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	bills, err := s.store.ListBills(ctx, expense.Filter{DueFrom: start, DueTo: end})
	if err != nil {
		return nil, err
	}

	summary := &models.YearlySummary{
		Year:             year,
		TotalBills:       len(bills),
		MonthlyBreakdown: make(map[int]float64),
	}

	for _, bill := range bills {
		summary.TotalAmount += bill.Amount
		summary.MonthlyBreakdown[int(bill.DueDate.Month())] += bill.Amount
	}
	summary.AverageMonthly = summary.TotalAmount / 12

	// Earliest month wins ties so the result is deterministic
	for month := 1; month <= 12; month++ {
		amount, ok := summary.MonthlyBreakdown[month]
		if !ok {
			continue
		}
		if summary.HighestMonth == nil || amount > summary.HighestMonth.Amount {
			summary.HighestMonth = &models.MonthTotal{Month: month, Amount: amount}
		}
		if summary.LowestMonth == nil || amount < summary.LowestMonth.Amount {
			summary.LowestMonth = &models.MonthTotal{Month: month, Amount: amount}
		}
	}

	return summary, nil
}

// CategoryAnalysis aggregates all bills per category, biggest spender first
func (s *Service) CategoryAnalysis(ctx context.Context) (*models.CategoryAnalysis, error) {
	bills, err := s.store.ListBills(ctx, expense.Filter{})
	if err != nil {
		return nil, err
	}

	totals := make(map[string]float64)
	counts := make(map[string]int)
	for _, bill := range bills {
		totals[bill.Category] += bill.Amount
		counts[bill.Category]++
	}

	categories := make([]models.CategoryStat, 0, len(totals))
	for name, total := range totals {
		categories = append(categories, models.CategoryStat{
			Name:          name,
			TotalAmount:   total,
			BillCount:     counts[name],
			AverageAmount: total / float64(counts[name]),
		})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].TotalAmount != categories[j].TotalAmount {
			return categories[i].TotalAmount > categories[j].TotalAmount
		}
		return categories[i].Name < categories[j].Name
	})

	analysis := &models.CategoryAnalysis{
		Categories:      categories,
		TotalCategories: len(categories),
	}
	if len(categories) > 0 {
		analysis.HighestSpendingCategory = &categories[0]
		analysis.LowestSpendingCategory = &categories[len(categories)-1]
	}

	return analysis, nil
}

// TrendAnalysis groups the last months*30 days of bills by month and reads
// the direction from the first and last month totals.
func (s *Service) TrendAnalysis(ctx context.Context, months int) (*models.TrendAnalysis, error) {
	if months <= 0 {
		months = 6
	}

	now := s.now()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -months*30)

	bills, err := s.store.ListBills(ctx, expense.Filter{DueFrom: start, DueTo: end})
	if err != nil {
		return nil, err
	}

	monthly := make(map[string]models.TrendPoint)
	for _, bill := range bills {
		key := fmt.Sprintf("%04d-%02d", bill.DueDate.Year(), int(bill.DueDate.Month()))
		point := monthly[key]
		point.Amount += bill.Amount
		point.Count++
		monthly[key] = point
	}

	keys := make([]string, 0, len(monthly))
	for key := range monthly {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	analysis := &models.TrendAnalysis{
		MonthsAnalyzed: months,
		MonthlyData:    monthly,
		Trend:          "stable",
	}

	var sum float64
	for _, key := range keys {
		sum += monthly[key].Amount
	}
	if len(keys) > 0 {
		analysis.AverageMonthly = sum / float64(len(keys))
	}

	if len(keys) >= 2 {
		first := monthly[keys[0]].Amount
		last := monthly[keys[len(keys)-1]].Amount
		if last > first {
			analysis.Trend = "increasing"
		} else {
			analysis.Trend = "decreasing"
		}
		if first > 0 {
			analysis.ChangePercent = math.Round((last-first)/first*100*100) / 100
		}
	}

	return analysis, nil
}

// Stats derives the comprehensive statistics block: current vs last month,
// upcoming and overdue counts, payment completion rate. The rate is 0 when
// the month has no bills.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	now := s.now()

	current, err := s.MonthlySummary(ctx, now.Year(), int(now.Month()))
	if err != nil {
		return nil, err
	}

	lastMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	previous, err := s.MonthlySummary(ctx, lastMonth.Year(), int(lastMonth.Month()))
	if err != nil {
		return nil, err
	}

	upcoming, err := expense.Upcoming(ctx, s.store, now, 30)
	if err != nil {
		return nil, err
	}
	overdue, err := expense.Overdue(ctx, s.store, now)
	if err != nil {
		return nil, err
	}

	stats := &models.Stats{
		CurrentMonthTotal:  current.TotalAmount,
		LastMonthTotal:     previous.TotalAmount,
		CurrentMonthBills:  current.TotalBills,
		UpcomingBillsCount: len(upcoming),
		OverdueBillsCount:  len(overdue),
	}
	if current.TotalBills > 0 {
		stats.PaymentCompletionRate = float64(current.PaidBills) / float64(current.TotalBills) * 100
	}

	return stats, nil
}

// topCategory picks the largest spender; name order breaks ties so the
// result is deterministic.
func topCategory(breakdown map[string]float64) string {
	var top string
	var max float64
	for name, amount := range breakdown {
		if amount > max || (amount == max && (top == "" || name < top)) {
			top = name
			max = amount
		}
	}
	return top
}
